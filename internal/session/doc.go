// Package session persists wizard sessions in SQLite so drafts survive
// restarts. A session row carries the full wizard state: step position,
// selected files, metadata, and the introspected column dictionaries.
package session
