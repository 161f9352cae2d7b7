package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/fileutil"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/textutil"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

// maxNameAttempts bounds collision-suffix allocation per file.
const maxNameAttempts = 1000

// Move relocates one selected file into the dataset layout.
type Move struct {
	Source string
	Target string
}

// Plan is the computed layout for a session: directories to ensure and file
// moves to apply, in order.
type Plan struct {
	Root  string
	Dirs  []string
	Moves []Move
}

// Organizer computes and applies the final dataset layout.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs an organizer.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{cfg: cfg, logger: logger.With(logging.String("component", "organizer"))}
}

// Plan computes the layout for the session's selected directory and files.
// File names that already follow the keyword-value convention are kept;
// everything else is renamed to study-<slug>_data.<ext> with the slug taken
// from the dataset name. Name collisions get an extra set-<n> keyword pair so
// the result still conforms.
func (o *Organizer) Plan(sess *session.Session) (*Plan, error) {
	if sess == nil {
		return nil, services.Wrap(services.ErrValidation, "organizer", "plan layout", "No session provided", nil)
	}
	root := strings.TrimSpace(sess.Dir)
	if root == "" {
		return nil, services.Wrap(
			services.ErrValidation,
			"organizer",
			"plan layout",
			"No dataset directory selected; complete the first step before organizing",
			nil,
		)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(
			services.ErrValidation,
			"organizer",
			"plan layout",
			fmt.Sprintf("Dataset directory %s is not usable", root),
			err,
		)
	}

	dataDir := filepath.Join(root, dataset.DataDirName)
	plan := &Plan{Root: root, Dirs: []string{dataDir}}
	for _, name := range o.enabledSubdirs(sess) {
		plan.Dirs = append(plan.Dirs, filepath.Join(root, name))
	}

	slug := textutil.Slug(sess.Metadata.Name)
	taken := make(map[string]struct{})
	for _, rel := range sess.Files {
		src := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(src); err != nil {
			return nil, services.Wrap(
				services.ErrValidation,
				"organizer",
				"plan layout",
				fmt.Sprintf("Selected file %s is missing; refresh the file selection", rel),
				err,
			)
		}
		base := conformingBase(filepath.Base(src), slug)
		if src == filepath.Join(dataDir, base) {
			// Already in place from an earlier run; keep its name reserved.
			taken[base] = struct{}{}
			continue
		}
		target, err := allocateTarget(dataDir, base, taken)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "organizer", "plan layout", "Unable to allocate a data file name", err)
		}
		plan.Moves = append(plan.Moves, Move{Source: src, Target: target})
	}
	return plan, nil
}

// Execute creates the planned directories and applies the planned moves.
func (o *Organizer) Execute(ctx context.Context, plan *Plan) error {
	if plan == nil {
		return services.Wrap(services.ErrValidation, "organizer", "apply layout", "No layout plan provided", nil)
	}
	logger := logging.WithContext(ctx, o.logger)
	for _, dir := range plan.Dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrTransient, "organizer", "ensure layout", fmt.Sprintf("Failed to create %s", dir), err)
		}
	}
	for _, mv := range plan.Moves {
		if err := ctx.Err(); err != nil {
			return err
		}
		if mv.Source == mv.Target {
			continue
		}
		if err := fileutil.MoveFile(mv.Source, mv.Target); err != nil {
			return services.Wrap(
				services.ErrTransient,
				"organizer",
				"move data file",
				fmt.Sprintf("Failed to move %s into place", filepath.Base(mv.Source)),
				err,
			)
		}
		logger.Info("data file placed",
			logging.String("source", mv.Source),
			logging.String("target", mv.Target))
	}
	logger.Info("layout applied",
		logging.String("root", plan.Root),
		logging.Int("dirs", len(plan.Dirs)),
		logging.Int("moves", len(plan.Moves)))
	return nil
}

// enabledSubdirs returns the session's enabled optional subdirectories,
// filtered against the configured allow list, sorted for determinism.
func (o *Organizer) enabledSubdirs(sess *session.Session) []string {
	if len(sess.Subdirs) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(o.cfg.Wizard.OptionalDirs))
	for _, name := range o.cfg.Wizard.OptionalDirs {
		allowed[name] = struct{}{}
	}
	var names []string
	for name, enabled := range sess.Subdirs {
		if !enabled {
			continue
		}
		if _, ok := allowed[name]; !ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// conformingBase returns the base name the file should carry under data/.
func conformingBase(base, slug string) string {
	if validation.ValidFileName(base) {
		return base
	}
	ext := sanitizeExt(filepath.Ext(base))
	return fmt.Sprintf("study-%s_data.%s", slug, ext)
}

func sanitizeExt(ext string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimPrefix(ext, ".")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "dat"
	}
	return b.String()
}

// allocateTarget reserves a collision-free path for base under dataDir.
// Attempt n > 1 inserts a set-<n> keyword pair before the final suffix so
// the allocated name still conforms.
func allocateTarget(dataDir, base string, taken map[string]struct{}) (string, error) {
	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = withSetPair(base, attempt)
		}
		if _, ok := taken[candidate]; ok {
			continue
		}
		full := filepath.Join(dataDir, candidate)
		if fileutil.PathExists(full) {
			taken[candidate] = struct{}{}
			continue
		}
		taken[candidate] = struct{}{}
		return full, nil
	}
	return "", fmt.Errorf("exhausted name slots for %s in %s", base, dataDir)
}

func withSetPair(base string, n int) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return fmt.Sprintf("%s_set-%d%s", stem, n, ext)
	}
	suffix := parts[len(parts)-1]
	pairs := parts[:len(parts)-1]
	rebuilt := make([]string, 0, len(parts)+1)
	rebuilt = append(rebuilt, pairs...)
	rebuilt = append(rebuilt, fmt.Sprintf("set-%d", n), suffix)
	return strings.Join(rebuilt, "_") + ext
}
