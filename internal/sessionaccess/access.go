package sessionaccess

import (
	"context"
	"fmt"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// Access provides session operations regardless of IPC or direct store
// backing. CLI commands work against this interface so they behave the same
// whether the wizard server is running or not.
type Access interface {
	List(ctx context.Context) ([]api.SessionSummary, error)
	Get(ctx context.Context, id string) (*api.SessionSummary, error)
	Delete(ctx context.Context, id string) error
}

// NewIPCAccess returns an Access backed by the wizard control socket.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct session store access.
func NewStoreAccess(store *session.Store) Access {
	return &storeAccess{store: store, service: api.NewSessionService(store)}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) List(_ context.Context) ([]api.SessionSummary, error) {
	resp, err := a.client.SessionList()
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Sessions, nil
}

func (a *ipcAccess) Get(_ context.Context, id string) (*api.SessionSummary, error) {
	resp, err := a.client.SessionGet(id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Session, nil
}

func (a *ipcAccess) Delete(_ context.Context, id string) error {
	_, err := a.client.SessionDelete(id)
	return err
}

type storeAccess struct {
	store   *session.Store
	service *api.SessionService
}

func (a *storeAccess) List(ctx context.Context) ([]api.SessionSummary, error) {
	return a.service.List(ctx)
}

func (a *storeAccess) Get(ctx context.Context, id string) (*api.SessionSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "sessionaccess", "get session", "No session id provided", nil)
	}
	summary, err := a.service.Describe(ctx, id)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, notFound(id)
	}
	return summary, nil
}

func (a *storeAccess) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrValidation, "sessionaccess", "delete session", "No session id provided", nil)
	}
	deleted, err := a.store.Delete(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "sessionaccess", "delete session", "Could not delete the session", err)
	}
	if !deleted {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return services.Wrap(
		services.ErrNotFound,
		"sessionaccess",
		"get session",
		fmt.Sprintf("No wizard session %s; start a new session", id),
		nil,
	)
}
