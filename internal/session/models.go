package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
)

// Status represents the lifecycle of a wizard session.
type Status string

const (
	StatusActive    Status = "active"
	StatusValidated Status = "validated"
	StatusPublished Status = "published"
	StatusAbandoned Status = "abandoned"
)

var allStatuses = []Status{
	StatusActive,
	StatusValidated,
	StatusPublished,
	StatusAbandoned,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown session status %q", value)
	}
	return status, nil
}

// Wizard step bounds. Step 0 means no active wizard; steps 1-3 are the
// select, describe, and organize screens.
const (
	StepNone  = 0
	StepFirst = 1
	StepLast  = 3
)

// ValidateStep rejects step values outside 0-3.
func ValidateStep(step int) error {
	if step < StepNone || step > StepLast {
		return fmt.Errorf("step %d out of range %d-%d", step, StepNone, StepLast)
	}
	return nil
}

// Session is one wizard session persisted in SQLite.
type Session struct {
	ID             string                          `json:"id"`
	Name           string                          `json:"name"`
	Status         Status                          `json:"status"`
	Step           int                             `json:"step"`
	MaxVisitedStep int                             `json:"maxVisitedStep"`
	Dir            string                          `json:"dir,omitempty"`
	Files          []string                        `json:"files,omitempty"`
	Subdirs        map[string]bool                 `json:"subdirs,omitempty"`
	Metadata       dataset.Description             `json:"metadata"`
	Columns        map[string][]dataset.ColumnInfo `json:"columns,omitempty"`
	LastError      string                          `json:"lastError,omitempty"`
	CreatedAt      time.Time                       `json:"createdAt"`
	UpdatedAt      time.Time                       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without racing the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Files != nil {
		out.Files = append([]string(nil), s.Files...)
	}
	if s.Subdirs != nil {
		out.Subdirs = make(map[string]bool, len(s.Subdirs))
		for k, v := range s.Subdirs {
			out.Subdirs[k] = v
		}
	}
	if s.Columns != nil {
		out.Columns = make(map[string][]dataset.ColumnInfo, len(s.Columns))
		for k, v := range s.Columns {
			out.Columns[k] = append([]dataset.ColumnInfo(nil), v...)
		}
	}
	if s.Metadata.Authors != nil {
		out.Metadata.Authors = append([]dataset.Person(nil), s.Metadata.Authors...)
	}
	if s.Metadata.Funding != nil {
		out.Metadata.Funding = append([]string(nil), s.Metadata.Funding...)
	}
	if s.Metadata.References != nil {
		out.Metadata.References = append([]string(nil), s.Metadata.References...)
	}
	if s.Metadata.Keywords != nil {
		out.Metadata.Keywords = append([]string(nil), s.Metadata.Keywords...)
	}
	return &out
}

// Finished reports whether the session reached a terminal status.
func (s *Session) Finished() bool {
	return s.Status == StatusPublished || s.Status == StatusAbandoned
}

// HealthSummary describes aggregated session counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Active    int
	Validated int
	Published int
	Abandoned int
}

// DatabaseHealth captures diagnostic information about the session database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalSessions    int
	Error            string
}
