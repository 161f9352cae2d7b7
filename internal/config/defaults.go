package config

const (
	defaultDatasetRoot          = "~/datasets"
	defaultStateDir             = "~/.local/share/psychds"
	defaultLogDir               = "~/.local/share/psychds/logs"
	defaultBind                 = "127.0.0.1:7373"
	defaultSessionTTLDays       = 14
	defaultLicense              = "CC-BY-4.0"
	defaultOSFAPIBaseURL        = "https://api.osf.io/v2"
	defaultOSFFilesBaseURL      = "https://files.osf.io/v1"
	defaultOSFRequestTimeout    = 30
	defaultPandocBinary         = "pandoc"
	defaultNtfyBaseURL          = "https://ntfy.sh"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
)

// defaultOptionalDirs lists the named subdirectories the standard allows
// alongside data/.
func defaultOptionalDirs() []string {
	return []string{"materials", "analysis", "results", "documentation", "products"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatasetRoot: defaultDatasetRoot,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Server: Server{
			Bind:        defaultBind,
			OpenBrowser: true,
		},
		Wizard: Wizard{
			SessionTTLDays: defaultSessionTTLDays,
			OptionalDirs:   defaultOptionalDirs(),
			DefaultLicense: defaultLicense,
		},
		OSF: OSF{
			APIBaseURL:     defaultOSFAPIBaseURL,
			FilesBaseURL:   defaultOSFFilesBaseURL,
			RequestTimeout: defaultOSFRequestTimeout,
		},
		Codebook: Codebook{
			PandocBinary: defaultPandocBinary,
		},
		Notifications: Notifications{
			NtfyBaseURL:    defaultNtfyBaseURL,
			RequestTimeout: defaultNotifyRequestTimeout,
			Validation:     true,
			Publish:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
