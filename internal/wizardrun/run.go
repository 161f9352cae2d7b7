// Package wizardrun boots the wizard process. It is shared by the
// psychds-wizard binary and the psychds wizard command.
package wizardrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/wizard"
	"github.com/psych-ds/psychds-r-sub001/internal/wizardd"
)

// Options configures wizard process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	NoBrowser   bool
	SocketPath  string
	Version     string
}

// Run starts the wizard runtime loop and blocks until a signal arrives or
// the wizard is stopped over the control socket.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if opts.NoBrowser {
		cfg.Server.OpenBrowser = false
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("psychds-%s.log", runID))

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update wizard.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "psychds-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.StateDir, "wizard.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := session.Open(cfg)
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		return err
	}
	defer store.Close()

	sweepSessions(signalCtx, cfg, store, logger)
	if health, err := store.Health(signalCtx); err == nil && health.Total > 0 {
		logger.Info("sessions on disk",
			logging.Int("total", health.Total),
			logging.Int("active", health.Active),
			logging.Int("validated", health.Validated))
	}

	mgr, err := wizard.NewManager(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create wizard manager: %w", err)
	}

	w, err := wizardd.New(cfg, store, mgr, logger, opts.Version)
	if err != nil {
		return fmt.Errorf("create wizard runtime: %w", err)
	}
	defer w.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, w, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := w.Start(signalCtx); err != nil {
		logger.Error("wizard start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "wizard_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and state directory access"),
		)
		return err
	}

	select {
	case <-signalCtx.Done():
		logger.Info("wizard shutting down")
	case <-w.Done():
		logger.Info("wizard stopped via control socket")
	}
	return nil
}

// sweepSessions drops sessions older than the configured TTL and any
// published or abandoned rows a crash left behind, so stale drafts do not
// pile up across runs.
func sweepSessions(ctx context.Context, cfg *config.Config, store *session.Store, logger *slog.Logger) {
	if removed, err := store.DeleteFinished(ctx); err != nil {
		logger.Warn("finished-session sweep failed", logging.Error(err))
	} else if removed > 0 {
		logger.Info("finished sessions removed", logging.Int64("removed_count", removed))
	}

	if cfg.Wizard.SessionTTLDays <= 0 {
		return
	}
	ttl := time.Duration(cfg.Wizard.SessionTTLDays) * 24 * time.Hour
	removed, err := store.DeleteExpired(ctx, ttl)
	if err != nil {
		logger.Warn("session sweep failed", logging.Error(err))
		return
	}
	if removed > 0 {
		logger.Info("expired sessions removed", logging.Int64("removed_count", removed))
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "wizard.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
