package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/scan"
)

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "describe <directory|file>",
		Short: "Introspect tabular files and print their column dictionaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve target path: %w", err)
			}
			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("inspect path %q: %w", target, err)
			}

			var paths []string
			if info.IsDir() {
				rels, err := scan.ListDataFiles(target)
				if err != nil {
					return friendly(err)
				}
				for _, rel := range rels {
					paths = append(paths, filepath.Join(target, filepath.FromSlash(rel)))
				}
			} else {
				paths = []string{target}
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tabular files found")
				return nil
			}

			infos := make([]*scan.TableInfo, 0, len(paths))
			for _, path := range paths {
				tableInfo, err := scan.IntrospectCSV(path)
				if err != nil {
					return friendly(err)
				}
				infos = append(infos, tableInfo)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{"files": infos})
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for i, tableInfo := range infos {
				if i > 0 {
					fmt.Fprintln(stdout)
				}
				for _, line := range renderSectionHeader(tableInfo.File, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintf(stdout, "%d rows, %s encoding\n", tableInfo.Rows, tableInfo.Encoding)
				table := renderTable(
					[]string{"Column", "Type", "Unique", "Missing", "Min", "Max"},
					buildColumnRows(tableInfo.Columns),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				)
				fmt.Fprintln(stdout, table)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output column dictionaries as JSON")
	return cmd
}

func buildColumnRows(columns []dataset.ColumnInfo) [][]string {
	rows := make([][]string, 0, len(columns))
	for _, col := range columns {
		rows = append(rows, []string{
			col.Name,
			col.Type,
			strconv.Itoa(col.UniqueCount),
			strconv.Itoa(col.NACount),
			formatNumber(col.Min),
			formatNumber(col.Max),
		})
	}
	return rows
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
