// Package textutil provides text processing utilities for filename
// sanitization and keyword-value slugs.
//
// Slug feeds the dataset file naming convention: keyword-value filenames
// reserve dashes and underscores as structure, so slug values are reduced to
// lowercase letters and digits.
package textutil
