package wizard

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/osf"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

// FinalizeResult reports what the step-3 finalize action produced.
type FinalizeResult struct {
	Root            string   `json:"root"`
	DescriptionPath string   `json:"descriptionPath"`
	ManifestPath    string   `json:"manifestPath"`
	DataFiles       []string `json:"dataFiles"`
	Moves           int      `json:"moves"`
}

// Finalize applies the dataset layout and writes the description and
// manifest documents. The session stays active until validation passes.
func (m *Manager) Finalize(ctx context.Context, id string) (*FinalizeResult, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = services.WithStep(services.WithSessionID(ctx, sess.ID), sess.Step)
	if sess.Step != session.StepLast {
		return nil, services.Wrap(services.ErrConflict, "wizard", "finalize", "Move to the final step before finalizing", nil)
	}
	for step := session.StepFirst; step < session.StepLast; step++ {
		if !StepComplete(sess, step) {
			return nil, services.Wrap(services.ErrConflict, "wizard", "finalize", gateMessage(sess, session.StepLast), nil)
		}
	}

	plan, err := m.organizer.Plan(sess)
	if err != nil {
		return nil, err
	}
	if err := m.organizer.Execute(ctx, plan); err != nil {
		return nil, err
	}

	root := sess.Dir
	moved := make(map[string]string, len(plan.Moves))
	for _, mv := range plan.Moves {
		rel, err := filepath.Rel(root, mv.Target)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "wizard", "finalize", "Could not resolve a moved file", err)
		}
		moved[mv.Source] = filepath.ToSlash(rel)
	}
	files := make([]string, 0, len(sess.Files))
	columns := make(map[string][]dataset.ColumnInfo, len(sess.Columns))
	for _, rel := range sess.Files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		newRel, ok := moved[abs]
		if !ok {
			newRel = rel
		}
		files = append(files, newRel)
		if cols, ok := sess.Columns[rel]; ok {
			columns[newRel] = cols
		}
	}
	sort.Strings(files)

	meta := sess.Metadata.Normalize()
	license := meta.License
	if license == "" {
		license = m.cfg.Wizard.DefaultLicense
	}
	contributors := make([]string, 0, len(meta.Authors))
	for _, a := range meta.Authors {
		contributors = append(contributors, a.DisplayName())
	}

	if err := dataset.WriteDescription(root, meta); err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "finalize", "Failed to write the dataset description", err)
	}
	manifest, err := dataset.BuildManifest(root, displayName(sess), license, files, contributors)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "finalize", "Failed to assemble the data package manifest", err)
	}
	if err := dataset.WriteManifest(root, manifest); err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "finalize", "Failed to write the data package manifest", err)
	}

	sess.Files = files
	sess.Columns = columns
	sess.Metadata = meta
	if _, err := m.update(ctx, sess); err != nil {
		return nil, err
	}

	m.logger.Info("dataset finalized",
		logging.String("session_id", sess.ID),
		logging.String("root", root),
		logging.Int("moves", len(plan.Moves)))
	return &FinalizeResult{
		Root:            root,
		DescriptionPath: filepath.Join(root, dataset.DescriptionFileName),
		ManifestPath:    filepath.Join(root, dataset.ManifestFileName),
		DataFiles:       files,
		Moves:           len(plan.Moves),
	}, nil
}

// Validate runs the conformance checks against the session's directory and
// marks the session validated when they pass.
func (m *Manager) Validate(ctx context.Context, id string) (*validation.Report, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = services.WithStep(services.WithSessionID(ctx, sess.ID), sess.Step)
	if strings.TrimSpace(sess.Dir) == "" {
		return nil, services.Wrap(services.ErrConflict, "wizard", "validate", "Nothing to validate yet; choose a dataset directory first", nil)
	}

	tree, err := validation.BuildFileTree(sess.Dir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "validate", "Could not read the dataset directory", err)
	}
	report, err := m.validator.Check(ctx, tree)
	if err != nil {
		return nil, err
	}

	var failed []string
	for _, check := range report.Checks {
		if !check.Passed {
			failed = append(failed, check.Rule)
		}
	}
	if report.Valid {
		sess.Status = session.StatusValidated
		sess.LastError = ""
	} else {
		if sess.Status == session.StatusValidated {
			sess.Status = session.StatusActive
		}
		sess.LastError = "Validation failed: " + strings.Join(failed, ", ")
	}
	if _, err := m.update(ctx, sess); err != nil {
		return nil, err
	}

	if err := m.notifier.ValidationCompleted(ctx, displayName(sess), report.Valid, failed); err != nil {
		m.logger.Warn("validation notification failed", logging.Error(err))
	}
	m.logger.Info("validation finished",
		logging.String("session_id", sess.ID),
		logging.Bool("valid", report.Valid))
	return report, nil
}

// Publish uploads the dataset to OSF and discards the session on success.
// An explicit project or token overrides the configured ones.
func (m *Manager) Publish(ctx context.Context, id, project, token string) (*osf.UploadResult, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = services.WithStep(services.WithSessionID(ctx, sess.ID), sess.Step)
	if sess.Status != session.StatusValidated {
		return nil, services.Wrap(services.ErrConflict, "wizard", "publish", "Validate the dataset before publishing", nil)
	}

	project = strings.TrimSpace(project)
	if project == "" {
		project = strings.TrimSpace(m.cfg.OSF.Project)
	}
	if project == "" {
		return nil, services.Wrap(
			services.ErrValidation,
			"wizard",
			"publish",
			"No OSF project id provided; set osf.project in config.toml or supply one",
			nil,
		)
	}

	uploader := m.uploader
	if token = strings.TrimSpace(token); token != "" {
		uploader = osf.NewServiceWithToken(m.cfg, m.logger, token)
	}

	tree, err := validation.BuildFileTree(sess.Dir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "publish", "Could not read the dataset directory", err)
	}
	paths := publishPaths(tree)

	result, err := uploader.UploadDataset(ctx, project, sess.Dir, paths)
	if err != nil {
		m.notices.add(sess.ID, "Publish failed: "+err.Error())
		if notifyErr := m.notifier.PublishFailed(ctx, displayName(sess), err.Error()); notifyErr != nil {
			m.logger.Warn("publish-failed notification failed", logging.Error(notifyErr))
		}
		return nil, err
	}

	if err := m.notifier.PublishCompleted(ctx, displayName(sess), project, len(result.Files)); err != nil {
		m.logger.Warn("publish notification failed", logging.Error(err))
	}
	if _, err := m.store.Delete(ctx, sess.ID); err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "publish", "Uploaded but could not discard the session", err)
	}
	m.notices.clear(sess.ID)
	m.logger.Info("dataset published",
		logging.String("session_id", sess.ID),
		logging.String("project", project),
		logging.Int("files", len(result.Files)),
		logging.Int64("bytes", result.TotalBytes))
	return result, nil
}

// publishPaths lists every non-hidden file in the tree, sorted.
func publishPaths(tree validation.FileTree) []string {
	var paths []string
	for rel, entry := range tree {
		if entry.Type != validation.EntryFile {
			continue
		}
		if hiddenPath(rel) {
			continue
		}
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths
}

func hiddenPath(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func displayName(sess *session.Session) string {
	if name := strings.TrimSpace(sess.Metadata.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(sess.Name); name != "" {
		return name
	}
	return "Untitled Dataset"
}
