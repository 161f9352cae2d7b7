// Package organizer lays a selected directory out as a conforming dataset.
//
// It plans and applies the final structure: the required data/ subdirectory,
// any optional named subdirectories the user enabled, and keyword-value
// renames for selected files whose names do not already conform. Moves are
// collision-safe and fall back to copy+remove across filesystems. Scaffold
// produces an empty skeleton for the scaffold command.
package organizer
