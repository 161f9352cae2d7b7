package sessionaccess

import (
	"fmt"

	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// Handle bundles a session access with its cleanup function.
type Handle struct {
	Access Access
	// Live reports whether the access talks to a running wizard.
	Live  bool
	close func() error
}

// Close releases resources associated with the handle.
func (h Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to the
// session store on disk.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*session.Store, error),
) (Handle, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Handle{
				Access: NewIPCAccess(client),
				Live:   true,
				close:  client.Close,
			}, nil
		}
	}

	if openStore == nil {
		return Handle{}, fmt.Errorf("open session store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Handle{}, fmt.Errorf("open session store: %w", err)
	}
	return Handle{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
