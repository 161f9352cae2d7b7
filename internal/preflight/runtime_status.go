package preflight

import (
	"context"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/deps"
)

// CheckOSFFromConfig evaluates OSF status from config and connectivity.
func CheckOSFFromConfig(cfg *config.Config) Result {
	const name = "OSF API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.OSF.Token) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (no token)"}
	}
	return CheckOSF(context.Background(), cfg.OSF.APIBaseURL, cfg.OSF.Token)
}

// CheckNtfyFromConfig evaluates notification status from config and
// connectivity.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (no topic)"}
	}
	return CheckNtfy(context.Background(), cfg.Notifications.NtfyBaseURL)
}

// CheckPandocFromConfig evaluates the PDF toolchain status.
func CheckPandocFromConfig(cfg *config.Config) Result {
	const name = "Pandoc"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Codebook.PDFEnabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	statuses := deps.CheckBinaries(context.Background(), []deps.Requirement{
		deps.PandocRequirement(cfg.PandocBinary()),
	})
	return depResult(statuses[0])
}

// CheckBrowserFromConfig evaluates the browser opener status.
func CheckBrowserFromConfig(cfg *config.Config) Result {
	const name = "Browser opener"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Server.OpenBrowser {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	statuses := deps.CheckBinaries(context.Background(), []deps.Requirement{
		deps.BrowserRequirement(cfg.Server.Browser),
	})
	return depResult(statuses[0])
}
