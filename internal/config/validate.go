package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateWizard(); err != nil {
		return err
	}
	if err := c.validateOSF(); err != nil {
		return err
	}
	if err := c.validateCodebook(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	host, portText, err := net.SplitHostPort(c.Server.Bind)
	if err != nil {
		return fmt.Errorf("server.bind %q must be host:port: %w", c.Server.Bind, err)
	}
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("server.bind %q must name an interface (use 127.0.0.1 for local-only access)", c.Server.Bind)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.bind port %q must be between 1 and 65535", portText)
	}
	return nil
}

func (c *Config) validateWizard() error {
	if c.Wizard.SessionTTLDays < 0 {
		return errors.New("wizard.session_ttl_days must be zero or positive (zero disables draft expiry)")
	}
	for _, dir := range c.Wizard.OptionalDirs {
		if strings.ContainsAny(dir, "/\\") || dir == "." || dir == ".." {
			return fmt.Errorf("wizard.optional_dirs entry %q must be a plain directory name", dir)
		}
		if dir == "data" {
			return errors.New("wizard.optional_dirs must not include data; the data directory is always created")
		}
	}
	return nil
}

func (c *Config) validateOSF() error {
	for key, value := range map[string]string{
		"osf.api_base_url":   c.OSF.APIBaseURL,
		"osf.files_base_url": c.OSF.FilesBaseURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s %q must be an absolute http(s) URL", key, value)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s %q must use http or https", key, value)
		}
	}
	if c.OSF.RequestTimeout <= 0 {
		return errors.New("osf.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateCodebook() error {
	if c.Codebook.PDFEnabled && strings.TrimSpace(c.Codebook.PandocBinary) == "" {
		return errors.New("codebook.pandoc_binary must be set when codebook.pdf_enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	if c.Notifications.NtfyTopic != "" {
		parsed, err := url.Parse(c.Notifications.NtfyBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_base_url %q must be an absolute URL when a topic is set", c.Notifications.NtfyBaseURL)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
