package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/organizer"
)

func newScaffoldCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "scaffold <directory>",
		Short: "Create a Psych-DS dataset skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve target path: %w", err)
			}
			org := organizer.New(cfg, logging.NewNop())
			if err := org.Scaffold(dir, name); err != nil {
				return friendly(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created dataset skeleton in %s\n", dir)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit dataset_description.json and place tabular files under data/.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Dataset name for the description template")
	return cmd
}
