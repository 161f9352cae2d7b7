package api

import (
	"github.com/psych-ds/psychds-r-sub001/internal/preflight"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/wizard"
)

// FromSession converts a session record to its API representation.
func FromSession(sess *session.Session) SessionSummary {
	if sess == nil {
		return SessionSummary{}
	}
	dto := SessionSummary{
		ID:             sess.ID,
		Name:           sess.Name,
		Status:         string(sess.Status),
		Step:           sess.Step,
		MaxVisitedStep: sess.MaxVisitedStep,
		Directory:      sess.Dir,
		FileCount:      len(sess.Files),
		LastError:      sess.LastError,
	}
	if !sess.CreatedAt.IsZero() {
		dto.CreatedAt = sess.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !sess.UpdatedAt.IsZero() {
		dto.UpdatedAt = sess.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromSessions converts a slice of session records into API DTOs.
func FromSessions(sessions []*session.Session) []SessionSummary {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, FromSession(sess))
	}
	return out
}

// StateView assembles the wizard screen state for one session. The gate
// describes the step after the current one; on the final step it stays
// closed with no reason, which the UI reads as "nothing further".
func StateView(sess *session.Session, notifications []string) WizardStateView {
	if sess == nil {
		return WizardStateView{}
	}
	view := WizardStateView{
		Session: FromSession(sess),
		Selection: SelectionView{
			Directory: sess.Dir,
			Files:     sess.Files,
			Subdirs:   sess.Subdirs,
		},
		Metadata:      sess.Metadata,
		Columns:       sess.Columns,
		Notifications: notifications,
	}
	if sess.Step < session.StepLast {
		next := sess.Step + 1
		view.Gate.CanAdvance = wizard.CanEnter(sess, next)
		if !view.Gate.CanAdvance {
			view.Gate.Reason = wizard.GateReason(sess, next)
		}
	}
	return view
}

// FromPreflight converts startup check results into API DTOs.
func FromPreflight(results []preflight.Result) []PreflightView {
	if len(results) == 0 {
		return nil
	}
	out := make([]PreflightView, 0, len(results))
	for _, res := range results {
		out = append(out, PreflightView{
			Name:   res.Name,
			Passed: res.Passed,
			Fatal:  res.Fatal,
			Detail: res.Detail,
		})
	}
	return out
}
