package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/psych-ds/psychds-r-sub001/internal/textutil"
)

// Resource describes one file listed in the data-package manifest. Path is
// slash-separated and relative to the dataset root.
type Resource struct {
	Name     string `json:"name,omitempty"`
	Path     string `json:"path,omitempty"`
	Format   string `json:"format,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// Manifest is the datapackage.json document. Empty fields are dropped on
// marshal, matching the description writer.
type Manifest struct {
	Name         string     `json:"name,omitempty"`
	Title        string     `json:"title,omitempty"`
	License      string     `json:"license,omitempty"`
	Contributors []string   `json:"contributors,omitempty"`
	Resources    []Resource `json:"resources,omitempty"`
}

// BuildManifest assembles a manifest for the given dataset root. Files are
// slash-separated paths relative to root; format comes from the extension and
// encoding from sniffing the file head.
func BuildManifest(root, title, license string, files, contributors []string) (Manifest, error) {
	manifest := Manifest{
		Name:         textutil.Slug(title),
		Title:        strings.TrimSpace(title),
		License:      strings.TrimSpace(license),
		Contributors: trimAll(contributors),
	}
	for _, rel := range files {
		rel = filepath.ToSlash(strings.TrimSpace(rel))
		if rel == "" {
			continue
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return Manifest{}, fmt.Errorf("stat resource %s: %w", rel, err)
		}
		encoding, err := SniffFileEncoding(full)
		if err != nil {
			return Manifest{}, err
		}
		ext := strings.ToLower(filepath.Ext(rel))
		manifest.Resources = append(manifest.Resources, Resource{
			Name:     textutil.SanitizeToken(strings.TrimSuffix(filepath.Base(rel), ext)),
			Path:     rel,
			Format:   strings.TrimPrefix(ext, "."),
			Encoding: encoding,
			Bytes:    info.Size(),
		})
	}
	return manifest, nil
}

// ReadManifest loads and parses a datapackage.json file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFileName, err)
	}
	return &manifest, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SniffEncoding classifies raw bytes as utf-8 or windows-1252. Any input
// that is not valid UTF-8 falls back to windows-1252, the encoding legacy
// spreadsheet exports almost always use.
func SniffEncoding(data []byte) string {
	if bytes.HasPrefix(data, utf8BOM) {
		return "utf-8"
	}
	if utf8.Valid(data) {
		return "utf-8"
	}
	return "windows-1252"
}

// SniffFileEncoding classifies the first chunk of a file.
func SniffFileEncoding(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("sniffing %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("sniffing %s: %w", filepath.Base(path), err)
	}
	head = head[:n]
	// A chunk boundary can split a multi-byte rune; trim the partial tail
	// so it does not force a windows-1252 verdict.
	if n == len(head) && n > 0 {
		for i := 0; i < utf8.UTFMax && i < len(head); i++ {
			if utf8.Valid(head[:len(head)-i]) {
				head = head[:len(head)-i]
				break
			}
		}
	}
	return SniffEncoding(head), nil
}
