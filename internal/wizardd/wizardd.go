package wizardd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/browser"
	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/preflight"
	"github.com/psych-ds/psychds-r-sub001/internal/server"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/wizard"
)

// Wizard runs the wizard process: single-instance lock, preflight checks,
// the HTTP API server, and the browser launch.
type Wizard struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	manager  *wizard.Manager
	version  string
	launcher *browser.Launcher
	httpSrv  *server.Server

	lockPath string
	lock     *flock.Flock

	running     atomic.Bool
	depsChecked atomic.Bool

	mu     sync.Mutex
	checks []preflight.Result

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New constructs the wizard runtime with initialized dependencies.
func New(cfg *config.Config, store *session.Store, mgr *wizard.Manager, logger *slog.Logger, version string) (*Wizard, error) {
	if cfg == nil || store == nil || mgr == nil {
		return nil, errors.New("wizardd requires config, store, and manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	w := &Wizard{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  mgr,
		version:  version,
		launcher: browser.New(cfg, logger),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		done:     make(chan struct{}),
	}
	w.httpSrv = server.New(cfg, mgr, store, w, logger)
	return w, nil
}

// Start acquires the instance lock, runs preflight once per process, starts
// the HTTP API, and opens the browser unless disabled.
func (w *Wizard) Start(ctx context.Context) error {
	if w.running.Load() {
		return errors.New("wizard already running")
	}

	// The lock file lives in the state directory, which may not exist on
	// first run.
	if err := w.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another wizard instance is already running (lock %s); stop it with 'psychds stop' first", w.lockPath)
	}

	if !w.depsChecked.Load() {
		results := preflight.RunAll(ctx, w.cfg, w.logger)
		w.mu.Lock()
		w.checks = results
		w.mu.Unlock()
		w.depsChecked.Store(true)
		if preflight.Fatal(results) {
			_ = w.lock.Unlock()
			return fmt.Errorf("startup checks failed: %s", preflight.FailureSummary(results))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := w.httpSrv.Start(runCtx); err != nil {
		cancel()
		_ = w.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	w.cancel = cancel

	w.running.Store(true)
	w.logger.Info("wizard started",
		logging.String("url", w.URL()),
		logging.String("lock", w.lockPath))

	if w.launcher.Enabled() {
		if err := w.launcher.Open(runCtx, w.URL()); err != nil {
			w.logger.Warn("browser launch failed", logging.Error(err))
		}
	}
	return nil
}

// Stop shuts down the HTTP server and releases the instance lock.
func (w *Wizard) Stop() {
	if !w.running.Load() {
		return
	}

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.httpSrv.Stop()
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release wizard lock", logging.Error(err))
	}
	w.running.Store(false)
	w.logger.Info("wizard stopped")
	w.stopOnce.Do(func() { close(w.done) })
}

// Done is closed once the wizard has stopped, whether from a signal or an
// IPC stop request.
func (w *Wizard) Done() <-chan struct{} {
	return w.done
}

// Close stops the wizard and releases held resources.
func (w *Wizard) Close() error {
	w.Stop()
	if w.store != nil {
		return w.store.Close()
	}
	return nil
}

// Running reports whether the wizard is currently serving.
func (w *Wizard) Running() bool {
	return w.running.Load()
}

// URL returns the address the wizard UI is reachable at. Once the server is
// listening the actual bound address wins, so a configured port of 0 still
// yields a usable URL.
func (w *Wizard) URL() string {
	if addr := w.httpSrv.Addr(); addr != "" {
		return "http://" + addr
	}
	return w.cfg.BaseURL()
}

// OpenBrowser launches the configured browser at the wizard UI regardless of
// the open_browser setting.
func (w *Wizard) OpenBrowser(ctx context.Context) error {
	return w.launcher.Open(ctx, w.URL())
}

// Checks returns the most recent preflight results.
func (w *Wizard) Checks() []preflight.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]preflight.Result, len(w.checks))
	copy(out, w.checks)
	return out
}

// RunPreflight reruns all startup checks and replaces the cached results.
func (w *Wizard) RunPreflight(ctx context.Context) []preflight.Result {
	results := preflight.RunAll(ctx, w.cfg, w.logger)
	w.mu.Lock()
	w.checks = results
	w.mu.Unlock()
	w.depsChecked.Store(true)
	return results
}

// ListSessions returns all wizard sessions.
func (w *Wizard) ListSessions(ctx context.Context) ([]*session.Session, error) {
	if w.manager == nil {
		return nil, errors.New("session manager unavailable")
	}
	return w.manager.List(ctx)
}

// GetSession returns one wizard session by id.
func (w *Wizard) GetSession(ctx context.Context, id string) (*session.Session, error) {
	if w.manager == nil {
		return nil, errors.New("session manager unavailable")
	}
	return w.manager.Get(ctx, id)
}

// DeleteSession abandons a wizard session.
func (w *Wizard) DeleteSession(ctx context.Context, id string) error {
	if w.manager == nil {
		return errors.New("session manager unavailable")
	}
	return w.manager.Abandon(ctx, id)
}

// Status returns a point-in-time snapshot of the wizard runtime.
func (w *Wizard) Status(ctx context.Context) api.ServerStatus {
	status := api.ServerStatus{
		Running:              w.running.Load(),
		Version:              w.version,
		PID:                  os.Getpid(),
		SessionDBPath:        w.store.Path(),
		LockFilePath:         w.lockPath,
		DependencyChecksDone: w.depsChecked.Load(),
		Checks:               api.FromPreflight(w.Checks()),
	}
	if status.Running {
		status.URL = w.URL()
	}
	if sessions, err := w.manager.List(ctx); err == nil {
		status.SessionCount = len(sessions)
	}
	return status
}
