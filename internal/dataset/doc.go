// Package dataset defines the document types a Psych-DS dataset carries on
// disk: the dataset description, the data-package manifest, and the per-file
// column dictionaries. Writers emit two-space indented JSON with user-supplied
// fields only; empty fields never appear in the output.
package dataset
