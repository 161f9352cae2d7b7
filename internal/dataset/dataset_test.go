package dataset_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
)

func TestDescriptionMarshalOmitsEmptyFields(t *testing.T) {
	t.Parallel()

	desc := dataset.NewDescriptionTemplate("Memory Study")
	desc.Description = "Recall accuracy across three sessions."
	desc = desc.Normalize()

	raw, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{"@context", "@type", "description", "name"}
	if len(keys) != len(want) {
		t.Fatalf("unexpected keys %v, want %v", keys, want)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("unexpected keys %v, want %v", keys, want)
		}
	}
	if doc["@context"] != dataset.SchemaOrgContext || doc["@type"] != dataset.DatasetType {
		t.Fatalf("missing JSON-LD framing in %v", doc)
	}
}

func TestDescriptionNormalizeDropsBlankAuthors(t *testing.T) {
	t.Parallel()

	desc := dataset.Description{
		Name: "  Trimmed  ",
		Authors: []dataset.Person{
			{GivenName: "  Ana ", FamilyName: " Silva "},
			{GivenName: "   ", FamilyName: ""},
		},
		Keywords: []string{" memory ", "", "recall"},
	}
	got := desc.Normalize()

	if got.Name != "Trimmed" {
		t.Fatalf("name not trimmed: %q", got.Name)
	}
	if len(got.Authors) != 1 {
		t.Fatalf("expected 1 author, got %d", len(got.Authors))
	}
	if got.Authors[0].Type != "Person" || got.Authors[0].GivenName != "Ana" {
		t.Fatalf("unexpected author: %+v", got.Authors[0])
	}
	if len(got.Keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", got.Keywords)
	}
}

func TestWriteDescriptionFormatting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	desc := dataset.NewDescriptionTemplate("Format Check")
	desc.Description = "d"
	if err := dataset.WriteDescription(dir, desc); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, dataset.DescriptionFileName))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(raw)
	if !strings.HasSuffix(text, "\n") {
		t.Fatal("missing trailing newline")
	}
	if !strings.Contains(text, "\n  \"name\"") {
		t.Fatalf("missing two-space indentation:\n%s", text)
	}

	got, err := dataset.ReadDescription(filepath.Join(dir, dataset.DescriptionFileName))
	if err != nil {
		t.Fatalf("read description: %v", err)
	}
	if got.Name != "Format Check" || got.Description != "d" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestBuildManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	utf8Path := filepath.Join(dataDir, "study-mem_data.csv")
	if err := os.WriteFile(utf8Path, []byte("id,score\n1,0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	legacyPath := filepath.Join(dataDir, "study-mem_notes.tsv")
	if err := os.WriteFile(legacyPath, []byte{'c', 'a', 'f', 0xE9, '\n'}, 0o644); err != nil {
		t.Fatal(err)
	}

	manifest, err := dataset.BuildManifest(root, "Memory Study", "CC-BY-4.0",
		[]string{"data/study-mem_data.csv", "data/study-mem_notes.tsv"},
		[]string{"Ana Silva"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if manifest.Name != "memorystudy" {
		t.Fatalf("unexpected manifest name: %q", manifest.Name)
	}
	if len(manifest.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(manifest.Resources))
	}
	first := manifest.Resources[0]
	if first.Path != "data/study-mem_data.csv" || first.Format != "csv" || first.Encoding != "utf-8" {
		t.Fatalf("unexpected resource: %+v", first)
	}
	if first.Bytes == 0 {
		t.Fatal("resource size not recorded")
	}
	second := manifest.Resources[1]
	if second.Format != "tsv" || second.Encoding != "windows-1252" {
		t.Fatalf("unexpected resource: %+v", second)
	}

	if err := dataset.WriteManifest(root, manifest); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	got, err := dataset.ReadManifest(filepath.Join(root, dataset.ManifestFileName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if got.Title != "Memory Study" || len(got.Resources) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestBuildManifestMissingFile(t *testing.T) {
	t.Parallel()

	_, err := dataset.BuildManifest(t.TempDir(), "x", "", []string{"data/gone.csv"}, nil)
	if err == nil {
		t.Fatal("expected error for missing resource")
	}
}

func TestSniffEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ascii", []byte("id,score\n"), "utf-8"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("id\n")...), "utf-8"},
		{"multibyte", []byte("café\n"), "utf-8"},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "windows-1252"},
	}
	for _, tt := range tests {
		if got := dataset.SniffEncoding(tt.data); got != tt.want {
			t.Errorf("%s: SniffEncoding = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestColumnInfoNumeric(t *testing.T) {
	t.Parallel()

	if !(dataset.ColumnInfo{Type: dataset.TypeInteger}).Numeric() {
		t.Fatal("integer not numeric")
	}
	if (dataset.ColumnInfo{Type: dataset.TypeDate}).Numeric() {
		t.Fatal("date reported numeric")
	}
}
