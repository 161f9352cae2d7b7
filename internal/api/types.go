package api

import (
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SessionSummary describes a wizard session in a transport-friendly format.
type SessionSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Step           int    `json:"step"`
	MaxVisitedStep int    `json:"maxVisitedStep"`
	Directory      string `json:"directory,omitempty"`
	FileCount      int    `json:"fileCount"`
	LastError      string `json:"lastError,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// GateView reports whether the next wizard step is reachable and, when it is
// not, the UI-ready explanation.
type GateView struct {
	CanAdvance bool   `json:"canAdvance"`
	Reason     string `json:"reason,omitempty"`
}

// SelectionView is the step-1 payload echoed back to the UI.
type SelectionView struct {
	Directory string          `json:"directory,omitempty"`
	Files     []string        `json:"files,omitempty"`
	Subdirs   map[string]bool `json:"subdirs,omitempty"`
}

// WizardStateView is the full screen state for one wizard session. The
// metadata and column dictionaries cross the wire in their document shapes.
type WizardStateView struct {
	Session       SessionSummary                  `json:"session"`
	Gate          GateView                        `json:"gate"`
	Selection     SelectionView                   `json:"selection"`
	Metadata      dataset.Description             `json:"metadata"`
	Columns       map[string][]dataset.ColumnInfo `json:"columns,omitempty"`
	Notifications []string                        `json:"notifications,omitempty"`
}

// PreflightView reports one startup or status check.
type PreflightView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Fatal  bool   `json:"fatal"`
	Detail string `json:"detail,omitempty"`
}

// ServerStatus aggregates wizard server runtime information.
type ServerStatus struct {
	Running              bool            `json:"running"`
	Version              string          `json:"version"`
	PID                  int             `json:"pid"`
	URL                  string          `json:"url,omitempty"`
	SessionCount         int             `json:"sessionCount"`
	SessionDBPath        string          `json:"sessionDbPath,omitempty"`
	LockFilePath         string          `json:"lockFilePath,omitempty"`
	DependencyChecksDone bool            `json:"dependencyChecksDone"`
	Checks               []PreflightView `json:"checks,omitempty"`
}

// SessionListResponse wraps a collection of sessions for API responses.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session SessionSummary `json:"session"`
}

// ColumnsResponse carries the column dictionary for one tabular file.
type ColumnsResponse struct {
	File    string               `json:"file"`
	Columns []dataset.ColumnInfo `json:"columns"`
}

// CreateSessionRequest starts a new wizard session.
type CreateSessionRequest struct {
	Name string `json:"name"`
}

// SelectionRequest is the step-1 update payload.
type SelectionRequest struct {
	Directory string          `json:"directory"`
	Files     []string        `json:"files"`
	Subdirs   map[string]bool `json:"subdirs,omitempty"`
}

// StepRequest jumps the wizard to a specific step.
type StepRequest struct {
	Step int `json:"step"`
}

// PublishRequest uploads the dataset to an OSF project. Token is optional
// and overrides the configured one for this request only.
type PublishRequest struct {
	Project string `json:"project"`
	Token   string `json:"token,omitempty"`
}
