// Package scan provides the filesystem helpers behind wizard step 1:
// directory summaries, tabular-file discovery, and CSV introspection that
// produces the per-file column dictionaries.
package scan
