package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/sessionaccess"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage wizard draft sessions",
	}

	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionDeleteCommand(ctx))

	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List draft sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSessions(func(access sessionaccess.Access) error {
				sessions, err := access.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.SessionListResponse{Sessions: sessions})
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No wizard sessions")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Name", "Step", "Status", "Files", "Updated"},
					buildSessionRows(sessions),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output sessions as JSON")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one draft session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSessions(func(access sessionaccess.Access) error {
				summary, err := access.Get(cmd.Context(), args[0])
				if err != nil {
					return friendly(err)
				}
				if jsonOut {
					return writeJSON(cmd, api.SessionResponse{Session: *summary})
				}
				for _, line := range sessionDetailLines(*summary) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the session as JSON")
	return cmd
}

func newSessionDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Discard a draft session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSessions(func(access sessionaccess.Access) error {
				if err := access.Delete(cmd.Context(), args[0]); err != nil {
					return friendly(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted\n", args[0])
				return nil
			})
		},
	}
}
