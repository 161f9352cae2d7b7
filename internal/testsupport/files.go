package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with the given content, making parent directories
// as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SeedSourceDir creates a raw study directory with tabular files the wizard
// can select in step 1. It returns the directory and the relative file paths.
func SeedSourceDir(t testing.TB) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, "trials.csv"), "id,score\n1,0.5\n2,1.5\n")
	WriteFile(t, filepath.Join(dir, "followup.csv"), "id,answer\n1,yes\n")
	return dir, []string{"followup.csv", "trials.csv"}
}

// SeedDataset creates a conforming dataset layout rooted at a fresh temp
// directory: description, manifest, and one keyword-value data file.
func SeedDataset(t testing.TB) string {
	t.Helper()

	root := t.TempDir()
	WriteFile(t, filepath.Join(root, "dataset_description.json"),
		`{"@context":"https://schema.org","@type":"Dataset","name":"Seeded Study","description":"Fixture dataset."}`)
	WriteFile(t, filepath.Join(root, "datapackage.json"),
		`{"name":"seededstudy","resources":[{"name":"study-seed_data","path":"data/study-seed_data.csv","format":"csv","encoding":"utf-8"}]}`)
	WriteFile(t, filepath.Join(root, "data", "study-seed_data.csv"), "id,score\n1,0.5\n")
	return root
}
