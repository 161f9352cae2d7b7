// Package browser opens the wizard UI in the user's web browser.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
)

// Launcher starts the configured browser command for a URL.
type Launcher struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New returns a launcher bound to the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Launcher{cfg: cfg, logger: logging.NewComponentLogger(logger, "browser")}
}

// Enabled reports whether automatic browser launch is turned on.
func (l *Launcher) Enabled() bool {
	return l.cfg != nil && l.cfg.Server.OpenBrowser
}

// Command resolves the browser command. The server.browser setting wins
// (config loading already folds in PSYCHDS_BROWSER); otherwise the
// platform opener.
func (l *Launcher) Command() string {
	if l.cfg != nil {
		if cmd := strings.TrimSpace(l.cfg.Server.Browser); cmd != "" {
			return cmd
		}
	}
	return defaultCommand()
}

func defaultCommand() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// Open launches the browser at url without waiting for it to exit. The URL
// is logged up front so the user can open it by hand when the launch fails.
func (l *Launcher) Open(ctx context.Context, url string) error {
	command := l.Command()
	l.logger.Info("opening wizard UI",
		logging.String("url", url),
		logging.String("command", command))

	path, err := exec.LookPath(command)
	if err != nil {
		return fmt.Errorf("browser command %q not found; open %s manually", command, url)
	}
	cmd := exec.CommandContext(ctx, path, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", command, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug("browser command exited", logging.Error(err))
		}
	}()
	return nil
}
