package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DatasetRoot string `toml:"dataset_root"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	UIDir       string `toml:"ui_dir"`
}

// Server contains configuration for the wizard HTTP server.
type Server struct {
	Bind        string `toml:"bind"`
	OpenBrowser bool   `toml:"open_browser"`
	Browser     string `toml:"browser"`
}

// Wizard contains configuration for the dataset creation flow.
type Wizard struct {
	SessionTTLDays  int      `toml:"session_ttl_days"`
	StrictPreflight bool     `toml:"strict_preflight"`
	OptionalDirs    []string `toml:"optional_dirs"`
	DefaultLicense  string   `toml:"default_license"`
}

// Validator contains configuration for dataset validation.
type Validator struct {
	SchemaPath      string `toml:"schema_path"`
	RequireManifest bool   `toml:"require_manifest"`
}

// OSF contains configuration for the Open Science Framework upload API.
type OSF struct {
	APIBaseURL     string `toml:"api_base_url"`
	FilesBaseURL   string `toml:"files_base_url"`
	Token          string `toml:"token"`
	Project        string `toml:"project"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Codebook contains configuration for codebook generation.
type Codebook struct {
	PandocBinary string `toml:"pandoc_binary"`
	PDFEnabled   bool   `toml:"pdf_enabled"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	NtfyBaseURL    string `toml:"ntfy_base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	Validation     bool   `toml:"validation"`
	Publish        bool   `toml:"publish"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the wizard.
//
// Configuration sections by subsystem:
//   - Paths: dataset root, state directory, logs, optional static UI
//   - Server: HTTP bind address and browser launch behaviour
//   - Wizard: session retention, preflight strictness, optional dataset
//     subdirectories, default license
//   - Validator: schema override and manifest strictness
//   - OSF: Open Science Framework API endpoints and credentials
//   - Codebook: pandoc delegation for PDF output
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Wizard        Wizard        `toml:"wizard"`
	Validator     Validator     `toml:"validator"`
	OSF           OSF           `toml:"osf"`
	Codebook      Codebook      `toml:"codebook"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/psychds/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file is not
// an error; defaults plus environment fallbacks apply.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: unknown keys:\n%s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("PSYCHDS_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("psychds.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for wizard operation.
// DatasetRoot is created on a best-effort basis so the server can run when
// the user has not chosen a project location yet.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DatasetRoot) != "" {
		_ = os.MkdirAll(c.Paths.DatasetRoot, 0o755)
	}
	return nil
}

// DatabasePath returns the session store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "sessions.db")
}

// SocketPath returns the control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "wizard.sock")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "wizard.lock")
}

// BaseURL returns the wizard URL derived from the server bind address.
func (c *Config) BaseURL() string {
	return "http://" + c.Server.Bind
}

// PandocBinary returns the pandoc executable name.
func (c *Config) PandocBinary() string {
	if bin := strings.TrimSpace(c.Codebook.PandocBinary); bin != "" {
		return bin
	}
	return "pandoc"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
