package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/deps"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

const remoteCheckTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSessionStore verifies the session database can be opened and reports
// healthy.
func CheckSessionStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Session store"

	store, err := session.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: fmt.Sprintf("%s (integrity check failed)", store.Path())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d session(s))", store.Path(), health.TotalSessions)}
}

// CheckSchema verifies the description schema compiles.
func CheckSchema(cfg *config.Config) Result {
	const name = "Validator schema"

	if _, err := validation.NewValidator(cfg, nil); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	source := strings.TrimSpace(cfg.Validator.SchemaPath)
	if source == "" {
		source = "embedded"
	}
	return Result{Name: name, Passed: true, Detail: source}
}

// CheckStartupDeps evaluates the optional tools enabled by the config:
// pandoc when PDF rendering is on, and the browser opener when auto-launch
// is on.
func CheckStartupDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	var requirements []deps.Requirement
	if cfg.Codebook.PDFEnabled {
		requirements = append(requirements, deps.PandocRequirement(cfg.PandocBinary()))
	}
	if cfg.Server.OpenBrowser {
		requirements = append(requirements, deps.BrowserRequirement(cfg.Server.Browser))
	}
	return deps.CheckBinaries(ctx, requirements)
}

// CheckSystemDeps evaluates every external tool the wizard can use,
// regardless of config toggles. The CLI check command uses this to show the
// full environment.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		deps.PandocRequirement(cfg.PandocBinary()),
		deps.BrowserRequirement(cfg.Server.Browser),
	}
	return deps.CheckBinaries(ctx, requirements)
}

func depResult(status deps.Status) Result {
	switch {
	case !status.Available:
		return Result{Name: status.Name, Detail: status.Detail}
	case status.VersionMismatch():
		return Result{Name: status.Name, Detail: status.Detail}
	default:
		detail := status.Path
		if status.Version != "" {
			detail = fmt.Sprintf("%s (version %s)", status.Path, status.Version)
		}
		return Result{Name: status.Name, Passed: true, Detail: detail}
	}
}

// CheckOSF verifies the OSF API is reachable and the token is accepted.
func CheckOSF(ctx context.Context, baseURL, token string) Result {
	const name = "OSF API"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "missing token"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	client := &http.Client{Timeout: remoteCheckTimeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	}
}

// CheckNtfy verifies the notification endpoint is reachable.
func CheckNtfy(ctx context.Context, baseURL string) Result {
	const name = "Notifications"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	client := &http.Client{Timeout: remoteCheckTimeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/v1/health", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
	return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
}
