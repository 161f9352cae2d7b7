package preflight

import (
	"context"
	"log/slog"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
)

// Result reports the outcome of a single preflight check. A failed result
// with Fatal set must abort startup; a failed result without it is a
// warning.
type Result struct {
	Name   string
	Passed bool
	Fatal  bool
	Detail string
}

// Fatal reports whether any result must block startup.
func Fatal(results []Result) bool {
	for _, r := range results {
		if r.Fatal {
			return true
		}
	}
	return false
}

// FailureSummary joins the names of fatal results into one message.
func FailureSummary(results []Result) string {
	var failed []string
	for _, r := range results {
		if r.Fatal {
			failed = append(failed, r.Name)
		}
	}
	return strings.Join(failed, ", ")
}

// RunAll executes all applicable preflight checks for the given config.
// Optional checks are only run when the corresponding feature is enabled.
// In strict mode every optional failure except a version mismatch is
// promoted to fatal.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	strict := cfg.Wizard.StrictPreflight

	var results []Result
	record := func(r Result, fatalWhenFailed bool) {
		if !r.Passed {
			if fatalWhenFailed {
				r.Fatal = true
			}
			logger.Warn("preflight check failed",
				logging.String("check", r.Name),
				logging.Bool("fatal", r.Fatal),
				logging.String("detail", r.Detail))
		}
		results = append(results, r)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		record(Result{Name: "Directories", Detail: err.Error()}, true)
		return results
	}

	// Required: the wizard cannot run without its state, its store, or
	// its schema.
	record(CheckDirectoryAccess("State directory", cfg.Paths.StateDir), true)
	record(CheckDirectoryAccess("Log directory", cfg.Paths.LogDir), true)
	record(CheckSessionStore(ctx, cfg), true)
	record(CheckSchema(cfg), true)

	// Optional: warn and continue, unless strict mode promotes the
	// failure. Version mismatches stay warnings even in strict mode.
	if cfg.Paths.DatasetRoot != "" {
		record(CheckDirectoryAccess("Dataset root", cfg.Paths.DatasetRoot), strict)
	}
	for _, status := range CheckStartupDeps(ctx, cfg) {
		record(depResult(status), strict && !status.VersionMismatch())
	}
	if strings.TrimSpace(cfg.OSF.Token) != "" {
		record(CheckOSF(ctx, cfg.OSF.APIBaseURL, cfg.OSF.Token), strict)
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		record(CheckNtfy(ctx, cfg.Notifications.NtfyBaseURL), strict)
	}

	return results
}
