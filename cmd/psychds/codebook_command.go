package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/codebook"
	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/scan"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

func newCodebookCommand(ctx *commandContext) *cobra.Command {
	var pdf bool

	cmd := &cobra.Command{
		Use:   "codebook <directory>",
		Short: "Generate a Markdown codebook from a dataset's tabular files",
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

			sess, err := sessionFromDirectory(root)
			if err != nil {
				return friendly(err)
			}
			data, err := codebook.Generate(sess)
			if err != nil {
				return friendly(err)
			}
			path, err := codebook.WriteMarkdown(root, data)
			if err != nil {
				return friendly(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote codebook to %s\n", path)

			if pdf {
				pdfPath, err := codebook.RenderPDF(cmd.Context(), cfg, path)
				if err != nil {
					return friendly(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote PDF codebook to %s\n", pdfPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pdf, "pdf", false, "Also render a PDF via pandoc")
	return cmd
}

// sessionFromDirectory builds an ephemeral session for headless codebook
// generation: scanned column dictionaries plus any existing description.
func sessionFromDirectory(root string) (*session.Session, error) {
	files, err := scan.ListDataFiles(root)
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]dataset.ColumnInfo, len(files))
	for _, rel := range files {
		info, err := scan.IntrospectCSV(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		columns[rel] = info.Columns
	}

	sess := &session.Session{
		Name:    filepath.Base(root),
		Dir:     root,
		Files:   files,
		Columns: columns,
	}
	if desc, err := dataset.ReadDescription(filepath.Join(root, dataset.DescriptionFileName)); err == nil && desc != nil {
		sess.Metadata = *desc
	}
	return sess, nil
}
