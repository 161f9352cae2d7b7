package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDescription writes dataset_description.json into dir.
func WriteDescription(dir string, d Description) error {
	return writeJSONFile(filepath.Join(dir, DescriptionFileName), d)
}

// WriteManifest writes datapackage.json into dir.
func WriteManifest(dir string, m Manifest) error {
	return writeJSONFile(filepath.Join(dir, ManifestFileName), m)
}

func writeJSONFile(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
