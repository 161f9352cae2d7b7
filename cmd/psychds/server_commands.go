package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/wizardctl"
)

func newServerCommands(ctx *commandContext) []*cobra.Command {
	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show wizard server and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			resp, err := wizardctl.StatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			status := resp.Status
			if statusJSON {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Wizard", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, serverStateLine(status, colorize))
			if status.URL != "" {
				fmt.Fprintln(stdout, renderStatusLine("URL", statusInfo, status.URL, colorize))
			}
			if status.Version != "" {
				fmt.Fprintln(stdout, renderStatusLine("Version", statusInfo, status.Version, colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Sessions", statusInfo, sessionCountDetail(status.SessionCount), colorize))
			if status.SessionDBPath != "" {
				fmt.Fprintln(stdout, renderStatusLine("Session store", statusInfo, status.SessionDBPath, colorize))
			}
			if status.LockFilePath != "" {
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Startup checks done", statusInfo, yesNo(status.DependencyChecksDone), colorize))

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Environment Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(status.Checks) == 0 {
				fmt.Fprintln(stdout, "No check results available")
				return nil
			}
			for _, check := range status.Checks {
				fmt.Fprintln(stdout, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the wizard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := wizardctl.StopAndWait(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, wizardctl.ErrNotRunning) {
				fmt.Fprintln(stdout, "Wizard is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping wizard (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Wizard stopped")
			return nil
		},
	}

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open the wizard UI in a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.OpenBrowser()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Opened {
					fmt.Fprintf(stdout, "Opening %s\n", resp.URL)
					return nil
				}
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				}
				if resp.URL != "" {
					fmt.Fprintf(stdout, "Open %s manually\n", resp.URL)
				}
				return nil
			})
		},
	}

	return []*cobra.Command{statusCmd, stopCmd, openCmd}
}
