package ipc

import "github.com/psych-ds/psychds-r-sub001/internal/api"

// ServerStatus mirrors the HTTP API status DTO for IPC callers.
type ServerStatus = api.ServerStatus

// PreflightView mirrors the HTTP API check DTO for IPC callers.
type PreflightView = api.PreflightView

// SessionSummary mirrors the HTTP API session DTO for IPC callers.
type SessionSummary = api.SessionSummary

// StatusRequest fetches wizard runtime status.
type StatusRequest struct{}

// StatusResponse carries the wizard status snapshot.
type StatusResponse struct {
	Status ServerStatus `json:"status"`
}

// StopRequest stops the wizard process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// OpenBrowserRequest opens the wizard UI in the user's browser.
type OpenBrowserRequest struct{}

// OpenBrowserResponse reports the launch outcome. A failed launch is not an
// RPC error; the URL is returned so the caller can print it.
type OpenBrowserResponse struct {
	Opened  bool   `json:"opened"`
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// SessionListRequest lists wizard sessions.
type SessionListRequest struct{}

// SessionListResponse contains session summaries.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionGetRequest fetches a single session by id.
type SessionGetRequest struct {
	ID string `json:"id"`
}

// SessionGetResponse contains a single session.
type SessionGetResponse struct {
	Session SessionSummary `json:"session"`
}

// SessionDeleteRequest abandons a session by id.
type SessionDeleteRequest struct {
	ID string `json:"id"`
}

// SessionDeleteResponse indicates delete result.
type SessionDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// PreflightRequest reruns the startup checks.
type PreflightRequest struct{}

// PreflightResponse carries fresh check results.
type PreflightResponse struct {
	Checks []PreflightView `json:"checks"`
	Fatal  bool            `json:"fatal"`
}
