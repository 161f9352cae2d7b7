package main

import (
	"flag"
	"fmt"

	"github.com/psych-ds/psychds-r-sub001/internal/wizardrun"
)

// runSettings is the parsed command line for one wizard process.
type runSettings struct {
	configPath string
	socketPath string
	logLevel   string
	noBrowser  bool
	develop    bool
}

func parseArgs(args []string) (runSettings, error) {
	fs := flag.NewFlagSet("psychds-wizard", flag.ContinueOnError)

	var settings runSettings
	fs.StringVar(&settings.configPath, "config", "", "configuration file path")
	fs.StringVar(&settings.socketPath, "socket", "", "control socket path override")
	fs.StringVar(&settings.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	fs.BoolVar(&settings.noBrowser, "no-browser", false, "do not open the browser on startup")
	fs.BoolVar(&settings.develop, "develop", false, "enable development logging")

	if err := fs.Parse(args); err != nil {
		return runSettings{}, err
	}
	if fs.NArg() > 0 {
		return runSettings{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return settings, nil
}

// options maps the parsed flags onto the shared run options.
func (s runSettings) options(version string) wizardrun.Options {
	return wizardrun.Options{
		LogLevel:    s.logLevel,
		Development: s.develop,
		NoBrowser:   s.noBrowser,
		SocketPath:  s.socketPath,
		Version:     version,
	}
}
