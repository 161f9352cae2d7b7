package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/sessionaccess"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) socketPath() string {
	if c.socketFlag == nil {
		return defaultSocketPath()
	}
	if strings.TrimSpace(*c.socketFlag) == "" {
		*c.socketFlag = defaultSocketPath()
	}
	return *c.socketFlag
}

// socketOverride returns the explicit --socket value, empty when unset.
func (c *commandContext) socketOverride() string {
	if c.socketFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.socketFlag)
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

// withSessions runs fn against the running wizard when reachable and falls
// back to the session store on disk otherwise.
func (c *commandContext) withSessions(fn func(sessionaccess.Access) error) error {
	handle, err := sessionaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return ipc.Dial(c.socketPath()) },
		func() (*session.Store, error) {
			cfg, err := c.ensureConfig()
			if err != nil {
				return nil, err
			}
			return session.Open(cfg)
		},
	)
	if err != nil {
		return err
	}
	defer handle.Close()
	return fn(handle.Access)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to wizard: socket %s not found; start the wizard with `psychds wizard`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to wizard: socket %s refused the connection; verify the wizard is running", socket)
	default:
		return fmt.Errorf("connect to wizard: %w", err)
	}
}

func defaultSocketPath() string {
	cfg, _, _, err := config.Load("")
	if err == nil {
		return cfg.SocketPath()
	}

	stateDir, err2 := config.ExpandPath("~/.local/share/psychds")
	if err2 != nil {
		return filepath.Join(os.TempDir(), "wizard.sock")
	}
	return filepath.Join(stateDir, "wizard.sock")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// friendly strips service error wrapping so only the user-facing message
// reaches the terminal.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(services.Message(err))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
