package wizard

import (
	"fmt"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// StepComplete reports whether the completeness condition for step holds.
// Step 1 is complete once a directory is set and at least one file is
// selected; step 2 once the dataset has a non-empty name and description;
// step 3 once the session reached a terminal state.
func StepComplete(sess *session.Session, step int) bool {
	if sess == nil {
		return false
	}
	switch step {
	case session.StepFirst:
		return strings.TrimSpace(sess.Dir) != "" && len(sess.Files) > 0
	case session.StepFirst + 1:
		return strings.TrimSpace(sess.Metadata.Name) != "" && strings.TrimSpace(sess.Metadata.Description) != ""
	case session.StepLast:
		return sess.Finished()
	}
	return false
}

// CanEnter reports whether the session may move to step. Moving back (or
// staying) is always allowed, as is re-entering any step already visited.
// Moving past the highest visited step requires every gate in between.
func CanEnter(sess *session.Session, step int) bool {
	if sess == nil || session.ValidateStep(step) != nil || step == session.StepNone {
		return false
	}
	if step <= sess.Step || step <= sess.MaxVisitedStep {
		return true
	}
	from := sess.MaxVisitedStep
	if from < session.StepFirst {
		from = session.StepFirst
	}
	for s := from; s < step; s++ {
		if !StepComplete(sess, s) {
			return false
		}
	}
	return true
}

// GateReason explains why the session cannot enter step, in UI-ready text.
// It returns "" when the step is open.
func GateReason(sess *session.Session, step int) string {
	if CanEnter(sess, step) {
		return ""
	}
	if sess == nil || session.ValidateStep(step) != nil || step == session.StepNone {
		return fmt.Sprintf("Step %d is not a wizard step", step)
	}
	return gateMessage(sess, step)
}

// gateMessage explains why a step is locked, in UI-ready text.
func gateMessage(sess *session.Session, step int) string {
	from := sess.MaxVisitedStep
	if from < session.StepFirst {
		from = session.StepFirst
	}
	for s := from; s < step; s++ {
		if StepComplete(sess, s) {
			continue
		}
		switch s {
		case session.StepFirst:
			return "Step 1 is incomplete: choose a dataset directory and select at least one file"
		case session.StepFirst + 1:
			return "Step 2 is incomplete: provide a dataset name and description"
		}
	}
	return fmt.Sprintf("Step %d is not reachable yet", step)
}
