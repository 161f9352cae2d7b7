package validation

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry types within a FileTree.
const (
	EntryFile      = "file"
	EntryDirectory = "directory"
)

// Entry is one node of a file tree. Content is accessed lazily through Open
// so large datasets are never loaded wholesale.
type Entry struct {
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileTree maps slash-separated relative paths to entries. The dataset root
// itself is not present.
type FileTree map[string]*Entry

// File returns the file entry at path, or nil.
func (t FileTree) File(path string) *Entry {
	if e, ok := t[path]; ok && e.Type == EntryFile {
		return e
	}
	return nil
}

// HasDir reports whether path is a directory entry.
func (t FileTree) HasDir(path string) bool {
	e, ok := t[path]
	return ok && e.Type == EntryDirectory
}

// FilesUnder returns the sorted paths of all file entries below dir.
func (t FileTree) FilesUnder(dir string) []string {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var files []string
	for path, e := range t {
		if e.Type == EntryFile && strings.HasPrefix(path, prefix) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}

// ReadFile reads the full content of the file entry at path.
func (t FileTree) ReadFile(path string) ([]byte, error) {
	e := t.File(path)
	if e == nil {
		return nil, fmt.Errorf("no file %q in tree", path)
	}
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// BuildFileTree walks root and maps every file and directory below it by
// relative path. Symlinks are recorded nowhere and never followed.
func BuildFileTree(root string) (FileTree, error) {
	root = filepath.Clean(root)
	tree := make(FileTree)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if d.IsDir() {
			tree[key] = &Entry{Type: EntryDirectory}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		full := path
		tree[key] = &Entry{
			Type: EntryFile,
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(full) },
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building file tree for %s: %w", root, err)
	}
	return tree, nil
}
