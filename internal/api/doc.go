// Package api defines wire-format types and converters for the HTTP and IPC
// layer. It translates internal session models into transport-friendly DTOs
// that the browser UI and CLI can render without coupling to internal types.
//
// # Key Types
//
// SessionSummary: transport representation of a wizard session with step,
// status, and selection counts.
//
// WizardStateView: full screen state for one session, including the gate for
// the next step, the selection, metadata, column dictionaries, and transient
// notifications.
//
// ServerStatus: wizard server runtime information including preflight checks.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers.
// Timestamps use RFC3339 with milliseconds. Document-shaped internal types
// (dataset.Description, dataset.ColumnInfo, validation.Report,
// osf.UploadResult) already carry their wire tags and cross as-is to avoid
// re-mapping JSON documents field by field.
package api
