package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// DirSummary describes a candidate dataset directory.
type DirSummary struct {
	Root       string   `json:"root"`
	FileCount  int      `json:"fileCount"`
	TotalBytes int64    `json:"totalBytes"`
	TotalSize  string   `json:"totalSize"`
	Subdirs    []string `json:"subdirs,omitempty"`
	DataFiles  []string `json:"dataFiles,omitempty"`
}

// IsTabular reports whether the path carries a supported tabular extension.
func IsTabular(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// ListDataFiles walks root and returns the slash-separated relative paths of
// all tabular files, sorted. Hidden files and directories are skipped.
func ListDataFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsTabular(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Summary inspects root and reports file counts, total size, first-level
// subdirectory names, and the tabular files found anywhere below it.
func Summary(root string) (*DirSummary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	summary := &DirSummary{Root: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if filepath.Dir(path) == root {
				summary.Subdirs = append(summary.Subdirs, d.Name())
			}
			return nil
		}
		summary.FileCount++
		fi, err := d.Info()
		if err != nil {
			return err
		}
		summary.TotalBytes += fi.Size()
		if IsTabular(path) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			summary.DataFiles = append(summary.DataFiles, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(summary.Subdirs)
	sort.Strings(summary.DataFiles)
	summary.TotalSize = humanize.Bytes(uint64(summary.TotalBytes))
	return summary, nil
}
