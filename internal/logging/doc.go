// Package logging assembles the structured slog loggers shared by the wizard
// server and the CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handlers and services can
// automatically tag log lines with session IDs, wizard steps, and request
// IDs. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
