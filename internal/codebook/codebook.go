// Package codebook renders human-readable column documentation for a
// session's scanned files: Markdown always, PDF when pandoc is installed.
package codebook

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// FileName is the Markdown codebook name written next to the dataset files.
const FileName = "codebook.md"

// Generate renders a Markdown codebook from the session's per-file column
// dictionaries.
func Generate(sess *session.Session) ([]byte, error) {
	if sess == nil {
		return nil, services.Wrap(services.ErrValidation, "codebook", "generate", "No session provided", nil)
	}
	if len(sess.Columns) == 0 {
		return nil, services.Wrap(
			services.ErrValidation,
			"codebook",
			"generate",
			"No column information recorded; select files in the first step so they can be scanned",
			nil,
		)
	}

	name := strings.TrimSpace(sess.Metadata.Name)
	if name == "" {
		name = strings.TrimSpace(sess.Name)
	}
	if name == "" {
		name = "Untitled Dataset"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Codebook: %s\n", name)
	if desc := strings.TrimSpace(sess.Metadata.Description); desc != "" {
		fmt.Fprintf(&buf, "\n%s\n", desc)
	}
	if authors := authorLine(sess.Metadata.Authors); authors != "" {
		fmt.Fprintf(&buf, "\nAuthors: %s\n", authors)
	}

	files := make([]string, 0, len(sess.Columns))
	for file := range sess.Columns {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		columns := sess.Columns[file]
		fmt.Fprintf(&buf, "\n## %s\n\n", fileHeading(file))
		fmt.Fprintf(&buf, "`%s` (%s)\n\n", file, countNoun(int64(len(columns)), "column"))
		buf.WriteString("| Column | Type | Unique | Missing | Min | Max | Description |\n")
		buf.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
		for _, col := range columns {
			fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s | %s |\n",
				col.Name,
				col.Type,
				humanize.Comma(int64(col.UniqueCount)),
				humanize.Comma(int64(col.NACount)),
				formatBound(col.Min),
				formatBound(col.Max),
				strings.TrimSpace(col.Description),
			)
		}
	}
	return buf.Bytes(), nil
}

// WriteMarkdown writes the codebook into dir and returns the written path.
func WriteMarkdown(dir string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", services.Wrap(services.ErrValidation, "codebook", "write markdown", "No target directory provided", nil)
	}
	target := filepath.Join(dir, FileName)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "codebook", "write markdown", fmt.Sprintf("Failed to write %s", target), err)
	}
	return target, nil
}

// RenderPDF converts a Markdown codebook to PDF via pandoc. When pandoc is
// not installed the error is marked unavailable so callers can downgrade it
// to a notice.
func RenderPDF(ctx context.Context, cfg *config.Config, mdPath string) (string, error) {
	binary := cfg.PandocBinary()
	if _, err := exec.LookPath(binary); err != nil {
		return "", services.Wrap(
			services.ErrUnavailable,
			"codebook",
			"render pdf",
			"pandoc is not installed; install pandoc 2.0 or newer to enable PDF export",
			err,
		)
	}

	target := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".pdf"
	cmd := exec.CommandContext(ctx, binary, mdPath, "-o", target, "--standalone")
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return "", services.Wrap(services.ErrExternalTool, "codebook", "render pdf", fmt.Sprintf("pandoc failed: %s", detail), err)
	}
	if _, err := os.Stat(target); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "codebook", "render pdf", "pandoc reported success but produced no PDF", err)
	}
	return target, nil
}

func authorLine(authors []dataset.Person) string {
	if len(authors) == 0 {
		return ""
	}
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.DisplayName())
	}
	return strings.Join(names, ", ")
}

// fileHeading turns a relative file path into a title-cased heading.
func fileHeading(rel string) string {
	base := filepath.Base(rel)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		title = base
	}
	return cases.Title(language.Und).String(title)
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func countNoun(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(n), noun)
}
