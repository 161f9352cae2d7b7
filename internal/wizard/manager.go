package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"log/slog"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/notifications"
	"github.com/psych-ds/psychds-r-sub001/internal/organizer"
	"github.com/psych-ds/psychds-r-sub001/internal/osf"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

// Manager coordinates wizard sessions and the step actions around them.
type Manager struct {
	cfg       *config.Config
	store     *session.Store
	logger    *slog.Logger
	validator *validation.Validator
	organizer *organizer.Organizer
	uploader  osf.Service
	notifier  notifications.Service

	locks   sync.Map // session id -> *sync.Mutex
	notices *noticeBoard
}

// NewManager constructs a manager with default collaborators.
func NewManager(cfg *config.Config, store *session.Store, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	validator, err := validation.NewValidator(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewManagerWithDependencies(
		cfg,
		store,
		logger,
		validator,
		organizer.New(cfg, logger),
		osf.NewService(cfg, logger),
		notifications.NewService(cfg),
	), nil
}

// NewManagerWithDependencies allows injecting collaborators (used in tests).
func NewManagerWithDependencies(
	cfg *config.Config,
	store *session.Store,
	logger *slog.Logger,
	validator *validation.Validator,
	org *organizer.Organizer,
	uploader osf.Service,
	notifier notifications.Service,
) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		logger:    logger.With(logging.String("component", "wizard")),
		validator: validator,
		organizer: org,
		uploader:  uploader,
		notifier:  notifier,
		notices:   newNoticeBoard(),
	}
}

// lock serializes mutation per session id and returns the unlock func.
func (m *Manager) lock(id string) func() {
	v, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// load fetches a session or returns a not-found-marked error.
func (m *Manager) load(ctx context.Context, id string) (*session.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "wizard", "load session", "No session id provided", nil)
	}
	sess, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "load session", "Could not read the session store", err)
	}
	if sess == nil {
		return nil, services.Wrap(
			services.ErrNotFound,
			"wizard",
			"load session",
			fmt.Sprintf("No wizard session %s; start a new session", id),
			nil,
		)
	}
	return sess, nil
}

// StartSession creates a fresh session on step 1.
func (m *Manager) StartSession(ctx context.Context, name string) (*session.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled Dataset"
	}
	sess, err := m.store.Create(ctx, name)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "start session", "Could not create the session", err)
	}
	m.logger.Info("session started",
		logging.String("session_id", sess.ID),
		logging.String("name", sess.Name))
	return sess, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(ctx context.Context, id string) (*session.Session, error) {
	return m.load(ctx, id)
}

// List returns all sessions, newest first.
func (m *Manager) List(ctx context.Context) ([]*session.Session, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "list sessions", "Could not read the session store", err)
	}
	return sessions, nil
}

// Abandon discards the session and its transient notices. Session state is
// not kept after the wizard ends.
func (m *Manager) Abandon(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := m.store.Delete(ctx, sess.ID); err != nil {
		return services.Wrap(services.ErrTransient, "wizard", "abandon session", "Could not delete the session", err)
	}
	m.notices.clear(sess.ID)
	m.logger.Info("session abandoned", logging.String("session_id", sess.ID))
	return nil
}

// Notifications returns the transient notices recorded for the session.
func (m *Manager) Notifications(id string) []string {
	return m.notices.list(strings.TrimSpace(id))
}

// ClearNotifications drops the transient notices for the session.
func (m *Manager) ClearNotifications(id string) {
	m.notices.clear(strings.TrimSpace(id))
}

// update persists the session and returns the stored state.
func (m *Manager) update(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if err := m.store.Update(ctx, sess); err != nil {
		return nil, services.Wrap(services.ErrTransient, "wizard", "save session", "Could not save the session", err)
	}
	return m.load(ctx, sess.ID)
}
