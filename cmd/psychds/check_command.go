package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run environment preflight checks",
		Long: "Run environment preflight checks. When the wizard server is running the " +
			"checks are rerun there and cached; otherwise they run in this process.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var checks []api.PreflightView
			var fatal bool
			if client, dialErr := ctx.dialClient(); dialErr == nil {
				resp, rpcErr := client.Preflight()
				client.Close()
				if rpcErr != nil {
					return rpcErr
				}
				checks = resp.Checks
				fatal = resp.Fatal
			} else {
				results := preflight.RunAll(cmd.Context(), cfg, logging.NewNop())
				checks = api.FromPreflight(results)
				fatal = preflight.Fatal(results)
			}

			if jsonOut {
				if err := writeJSON(cmd, map[string]any{"checks": checks, "fatal": fatal}); err != nil {
					return err
				}
			} else {
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Environment Checks", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, check := range checks {
					fmt.Fprintln(stdout, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
				}
			}

			if fatal {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}
