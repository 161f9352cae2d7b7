// Package validation builds the file-tree handed to the dataset validator
// and runs the Psych-DS conformance checks. The description document is
// judged by a JSON-schema engine; structural rules (data directory, file
// naming, manifest resolution) are evaluated against the tree directly.
package validation
