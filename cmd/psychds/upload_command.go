package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/osf"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var project string
	var token string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "upload <directory>",
		Short: "Upload a dataset to an OSF project",
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

			if strings.TrimSpace(project) == "" {
				project = cfg.OSF.Project
			}
			if strings.TrimSpace(project) == "" {
				return errors.New("an OSF project id is required; pass --project or set osf.project in config.toml")
			}

			tree, err := validation.BuildFileTree(root)
			if err != nil {
				return friendly(err)
			}
			paths := make([]string, 0, len(tree))
			for rel, entry := range tree {
				if entry.Type != validation.EntryFile {
					continue
				}
				paths = append(paths, rel)
			}
			sort.Strings(paths)
			if len(paths) == 0 {
				return fmt.Errorf("no files to upload in %s", root)
			}

			uploadToken := token
			if strings.TrimSpace(uploadToken) == "" {
				uploadToken = cfg.OSF.Token
			}
			svc := osf.NewServiceWithToken(cfg, logging.NewNop(), uploadToken,
				osf.WithProgressWriter(cmd.ErrOrStderr()))

			result, err := svc.UploadDataset(cmd.Context(), project, root, paths)
			if err != nil {
				return friendly(err)
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d files (%s) to project %s\n",
				len(result.Files),
				humanize.IBytes(uint64(result.TotalBytes)),
				result.Project,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "OSF project id")
	cmd.Flags().StringVar(&token, "token", "", "OSF personal access token (defaults to config or PSYCHDS_OSF_TOKEN)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the upload result as JSON")
	return cmd
}
