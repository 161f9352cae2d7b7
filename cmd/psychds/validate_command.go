package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "validate <directory>",
		Short: "Validate a dataset against the Psych-DS standard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve dataset path: %w", err)
			}

			tree, err := validation.BuildFileTree(root)
			if err != nil {
				return friendly(err)
			}
			validator, err := validation.NewValidator(cfg, logging.NewNop())
			if err != nil {
				return friendly(err)
			}
			report, err := validator.Check(cmd.Context(), tree)
			if err != nil {
				return friendly(err)
			}

			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Validation Report", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, check := range report.Checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(stdout, renderStatusLine(check.Rule, kind, check.Detail, colorize))
				}
				fmt.Fprintln(stdout)
				if report.Valid {
					fmt.Fprintln(stdout, "Dataset is a valid Psych-DS dataset")
				} else {
					fmt.Fprintln(stdout, "Dataset is not a valid Psych-DS dataset")
				}
			}

			if !report.Valid {
				return errors.New("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the report as JSON")
	return cmd
}
