package wizard

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/scan"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// UpdateSelection stores the step-1 payload: the dataset directory, the
// selected files (relative to it), and the optional subdirectory toggles.
// Column dictionaries are refreshed for every tabular selection; files whose
// columns cannot be read produce a notice instead of failing the update.
func (m *Manager) UpdateSelection(ctx context.Context, id, dir string, files []string, subdirs map[string]bool) (*session.Session, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrValidation, "wizard", "update selection", "Choose a dataset directory first", nil)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(
			services.ErrValidation,
			"wizard",
			"update selection",
			fmt.Sprintf("%s is not a usable directory", dir),
			err,
		)
	}

	cleaned, err := normalizeSelection(dir, files)
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]dataset.ColumnInfo)
	for _, rel := range cleaned {
		if !scan.IsTabular(rel) {
			continue
		}
		table, err := scan.IntrospectCSV(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			m.notices.add(sess.ID, fmt.Sprintf("Could not read columns from %s: %v", rel, err))
			continue
		}
		columns[rel] = table.Columns
	}

	sess.Dir = dir
	sess.Files = cleaned
	sess.Subdirs = copyToggles(subdirs)
	sess.Columns = columns
	sess.LastError = ""
	if sess.Status == session.StatusValidated {
		// The selection changed; the earlier validation no longer applies.
		sess.Status = session.StatusActive
	}

	updated, err := m.update(ctx, sess)
	if err != nil {
		return nil, err
	}
	m.logger.Info("selection updated",
		logging.String("session_id", sess.ID),
		logging.String("dir", dir),
		logging.Int("files", len(cleaned)))
	return updated, nil
}

// UpdateMetadata stores the step-2 payload after normalizing it.
func (m *Manager) UpdateMetadata(ctx context.Context, id string, desc dataset.Description) (*session.Session, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Metadata = desc.Normalize()
	sess.LastError = ""
	if sess.Status == session.StatusValidated {
		sess.Status = session.StatusActive
	}

	updated, err := m.update(ctx, sess)
	if err != nil {
		return nil, err
	}
	m.logger.Info("metadata updated",
		logging.String("session_id", sess.ID),
		logging.String("name", sess.Metadata.Name))
	return updated, nil
}

// Advance moves the session to the next step when its gate is open.
func (m *Manager) Advance(ctx context.Context, id string) (*session.Session, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step >= session.StepLast {
		return nil, services.Wrap(services.ErrConflict, "wizard", "advance", "Already on the final step", nil)
	}
	target := sess.Step + 1
	if !CanEnter(sess, target) {
		return nil, services.Wrap(services.ErrConflict, "wizard", "advance", gateMessage(sess, target), nil)
	}
	return m.moveTo(ctx, sess, target)
}

// Back moves the session to the previous step. Going back is never gated.
func (m *Manager) Back(ctx context.Context, id string) (*session.Session, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step <= session.StepFirst {
		return nil, services.Wrap(services.ErrConflict, "wizard", "back", "Already on the first step", nil)
	}
	return m.moveTo(ctx, sess, sess.Step-1)
}

// GoTo jumps to an arbitrary step, requiring every gate along the way.
func (m *Manager) GoTo(ctx context.Context, id string, step int) (*session.Session, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.ValidateStep(step); err != nil || step == session.StepNone {
		return nil, services.Wrap(
			services.ErrValidation,
			"wizard",
			"go to step",
			fmt.Sprintf("Step %d is not a wizard step", step),
			nil,
		)
	}
	if step == sess.Step {
		return sess, nil
	}
	if !CanEnter(sess, step) {
		return nil, services.Wrap(services.ErrConflict, "wizard", "go to step", gateMessage(sess, step), nil)
	}
	return m.moveTo(ctx, sess, step)
}

func (m *Manager) moveTo(ctx context.Context, sess *session.Session, step int) (*session.Session, error) {
	sess.Step = step
	if step > sess.MaxVisitedStep {
		sess.MaxVisitedStep = step
	}
	updated, err := m.update(ctx, sess)
	if err != nil {
		return nil, err
	}
	m.logger.Info("step changed",
		logging.String("session_id", sess.ID),
		logging.Int("step", step))
	return updated, nil
}

// normalizeSelection cleans, validates, dedupes, and sorts the selected
// relative paths. Every file must live under dir.
func normalizeSelection(dir string, files []string) ([]string, error) {
	seen := make(map[string]struct{}, len(files))
	cleaned := make([]string, 0, len(files))
	for _, f := range files {
		rel := path.Clean(filepath.ToSlash(strings.TrimSpace(f)))
		if rel == "" || rel == "." {
			continue
		}
		if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, services.Wrap(
				services.ErrValidation,
				"wizard",
				"update selection",
				fmt.Sprintf("File %s is outside the chosen directory", f),
				nil,
			)
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			return nil, services.Wrap(
				services.ErrValidation,
				"wizard",
				"update selection",
				fmt.Sprintf("File %s was not found in the chosen directory", rel),
				err,
			)
		}
		seen[rel] = struct{}{}
		cleaned = append(cleaned, rel)
	}
	sort.Strings(cleaned)
	return cleaned, nil
}

func copyToggles(subdirs map[string]bool) map[string]bool {
	if len(subdirs) == 0 {
		return nil
	}
	out := make(map[string]bool, len(subdirs))
	for name, enabled := range subdirs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = enabled
	}
	return out
}
