package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeWizard()
	if err := c.normalizeValidator(); err != nil {
		return err
	}
	c.normalizeOSF()
	c.normalizeCodebook()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DatasetRoot) == "" {
		c.Paths.DatasetRoot = defaultDatasetRoot
	}
	if c.Paths.DatasetRoot, err = expandPath(c.Paths.DatasetRoot); err != nil {
		return fmt.Errorf("paths.dataset_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UIDir) != "" {
		if c.Paths.UIDir, err = expandPath(c.Paths.UIDir); err != nil {
			return fmt.Errorf("paths.ui_dir: %w", err)
		}
	} else {
		c.Paths.UIDir = ""
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.Browser = strings.TrimSpace(c.Server.Browser)
	if c.Server.Browser == "" {
		if value, ok := os.LookupEnv("PSYCHDS_BROWSER"); ok {
			c.Server.Browser = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeWizard() {
	dirs := make([]string, 0, len(c.Wizard.OptionalDirs))
	seen := make(map[string]struct{}, len(c.Wizard.OptionalDirs))
	for _, dir := range c.Wizard.OptionalDirs {
		normalized := strings.ToLower(strings.TrimSpace(dir))
		normalized = strings.Trim(normalized, "/")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		dirs = append(dirs, normalized)
	}
	if len(dirs) == 0 {
		dirs = defaultOptionalDirs()
	}
	c.Wizard.OptionalDirs = dirs
	c.Wizard.DefaultLicense = strings.TrimSpace(c.Wizard.DefaultLicense)
}

func (c *Config) normalizeValidator() error {
	c.Validator.SchemaPath = strings.TrimSpace(c.Validator.SchemaPath)
	if c.Validator.SchemaPath != "" {
		expanded, err := expandPath(c.Validator.SchemaPath)
		if err != nil {
			return fmt.Errorf("validator.schema_path: %w", err)
		}
		c.Validator.SchemaPath = expanded
	}
	return nil
}

func (c *Config) normalizeOSF() {
	c.OSF.Token = strings.TrimSpace(c.OSF.Token)
	if c.OSF.Token == "" {
		if value, ok := os.LookupEnv("PSYCHDS_OSF_TOKEN"); ok {
			c.OSF.Token = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OSF_TOKEN"); ok {
			c.OSF.Token = strings.TrimSpace(value)
		}
	}
	c.OSF.Project = strings.TrimSpace(c.OSF.Project)
	c.OSF.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.OSF.APIBaseURL), "/")
	if c.OSF.APIBaseURL == "" {
		c.OSF.APIBaseURL = defaultOSFAPIBaseURL
	}
	c.OSF.FilesBaseURL = strings.TrimRight(strings.TrimSpace(c.OSF.FilesBaseURL), "/")
	if c.OSF.FilesBaseURL == "" {
		c.OSF.FilesBaseURL = defaultOSFFilesBaseURL
	}
	if c.OSF.RequestTimeout <= 0 {
		c.OSF.RequestTimeout = defaultOSFRequestTimeout
	}
}

func (c *Config) normalizeCodebook() {
	c.Codebook.PandocBinary = strings.TrimSpace(c.Codebook.PandocBinary)
	if c.Codebook.PandocBinary == "" {
		c.Codebook.PandocBinary = defaultPandocBinary
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PSYCHDS_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.NtfyBaseURL = strings.TrimRight(strings.TrimSpace(c.Notifications.NtfyBaseURL), "/")
	if c.Notifications.NtfyBaseURL == "" {
		c.Notifications.NtfyBaseURL = defaultNtfyBaseURL
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
