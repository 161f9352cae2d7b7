package main

import (
	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/wizardrun"
)

func newWizardCommand(ctx *commandContext) *cobra.Command {
	var noBrowser bool
	var logLevel string
	var develop bool

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Run the wizard server in the foreground",
		Long: "Run the wizard server in the foreground: serve the wizard UI API, " +
			"listen on the control socket, and open the UI in a browser unless disabled.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return wizardrun.Run(cmd.Context(), cfg, wizardrun.Options{
				LogLevel:    logLevel,
				Development: develop,
				NoBrowser:   noBrowser,
				SocketPath:  ctx.socketOverride(),
				Version:     version,
			})
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not launch a browser at the wizard URL")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&develop, "develop", false, "Log in the human-readable console format")
	return cmd
}
