// Package wizardctl provides wizard process control shared by CLI commands:
// waiting for the control socket, stopping the process, and building status
// snapshots that fall back to offline checks.
package wizardctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/preflight"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// ErrNotRunning indicates wizard IPC is unavailable.
var ErrNotRunning = errors.New("wizard is not running")

// IsUnavailable reports whether err means no wizard is listening on the
// socket.
func IsUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// WaitForClient waits for IPC socket availability and returns a connected
// client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for wizard")
	}
	return nil, fmt.Errorf("wizard did not come up: %w", lastErr)
}

// WaitForShutdown waits for wizard IPC to disappear or report not-running.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if IsUnavailable(err) {
				return nil
			}
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		status, statusErr := client.Status()
		_ = client.Close()
		if statusErr == nil && !status.Status.Running {
			return nil
		}
		if statusErr != nil {
			lastErr = statusErr
		} else {
			lastErr = errors.New("wizard still running")
		}
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for shutdown")
	}
	return fmt.Errorf("wizard did not stop: %w", lastErr)
}

// ProcessInfo returns whether wizard IPC is reachable and the wizard PID
// when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if IsUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	return true, status.Status.PID, nil
}

// StopResult captures the wizard stop outcome.
type StopResult struct {
	StopAcknowledged bool
	PID              int
}

// StopAndWait requests a stop over IPC and waits for the socket to go away.
func StopAndWait(socketPath string, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if IsUnavailable(err) {
			return StopResult{}, ErrNotRunning
		}
		return StopResult{}, err
	}

	pid := 0
	if status, statusErr := client.Status(); statusErr == nil {
		pid = status.Status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}

	result := StopResult{PID: pid}
	if resp != nil {
		result.StopAcknowledged = resp.Stopped
	}
	if err := WaitForShutdown(socketPath, gracePeriod); err != nil {
		return result, err
	}
	return result, nil
}

// StatusSnapshot fetches live wizard status over IPC, falling back to
// offline checks built from configuration when no wizard is running.
func StatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*ipc.StatusResponse, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}

	if client, err := ipc.Dial(socketPath); err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			return resp, nil
		}
	}

	return &ipc.StatusResponse{Status: offlineStatus(ctx, cfg)}, nil
}

func offlineStatus(ctx context.Context, cfg *config.Config) api.ServerStatus {
	status := api.ServerStatus{
		SessionDBPath: cfg.DatabasePath(),
		LockFilePath:  cfg.LockPath(),
	}

	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if store, err := session.Open(cfg); err == nil {
		if stats, statsErr := store.Stats(queryCtx); statsErr == nil {
			for _, count := range stats {
				status.SessionCount += count
			}
		}
		_ = store.Close()
	}

	status.Checks = api.FromPreflight([]preflight.Result{
		preflight.CheckSchema(cfg),
		preflight.CheckPandocFromConfig(cfg),
		preflight.CheckBrowserFromConfig(cfg),
		preflight.CheckOSFFromConfig(cfg),
		preflight.CheckNtfyFromConfig(cfg),
	})
	return status
}
