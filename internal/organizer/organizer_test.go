package organizer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/organizer"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/testsupport"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
)

func newOrganizer(t *testing.T) *organizer.Organizer {
	t.Helper()
	return organizer.New(testsupport.NewConfig(t), logging.NewNop())
}

func seededSession(t *testing.T) (*session.Session, string) {
	t.Helper()
	dir, files := testsupport.SeedSourceDir(t)
	sess := &session.Session{
		ID:    "test-session",
		Dir:   dir,
		Files: files,
		Metadata: dataset.Description{
			Name: "Memory Study",
		},
	}
	return sess, dir
}

func TestPlanRenamesNonConformingFiles(t *testing.T) {
	org := newOrganizer(t)
	sess, dir := seededSession(t)

	plan, err := org.Plan(sess)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(plan.Moves))
	}
	dataDir := filepath.Join(dir, "data")
	wantTargets := map[string]bool{
		filepath.Join(dataDir, "study-memorystudy_data.csv"):       true,
		filepath.Join(dataDir, "study-memorystudy_set-2_data.csv"): true,
	}
	for _, mv := range plan.Moves {
		if !wantTargets[mv.Target] {
			t.Errorf("unexpected target %s", mv.Target)
		}
		if !validation.ValidFileName(filepath.Base(mv.Target)) {
			t.Errorf("target %s does not conform", filepath.Base(mv.Target))
		}
	}
}

func TestPlanKeepsConformingNames(t *testing.T) {
	org := newOrganizer(t)
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "study-mem_data.csv"), "id\n1\n")
	sess := &session.Session{
		ID:       "s",
		Dir:      dir,
		Files:    []string{"study-mem_data.csv"},
		Metadata: dataset.Description{Name: "Other Name"},
	}

	plan, err := org.Plan(sess)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(plan.Moves))
	}
	want := filepath.Join(dir, "data", "study-mem_data.csv")
	if plan.Moves[0].Target != want {
		t.Fatalf("expected %s, got %s", want, plan.Moves[0].Target)
	}
}

func TestPlanSkipsFilesAlreadyInPlace(t *testing.T) {
	org := newOrganizer(t)
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "data", "study-mem_data.csv"), "id\n1\n")
	sess := &session.Session{
		ID:       "s",
		Dir:      dir,
		Files:    []string{"data/study-mem_data.csv"},
		Metadata: dataset.Description{Name: "Mem"},
	}

	plan, err := org.Plan(sess)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Moves) != 0 {
		t.Fatalf("expected no moves for in-place file, got %d", len(plan.Moves))
	}
}

func TestPlanRejectsMissingFile(t *testing.T) {
	org := newOrganizer(t)
	sess := &session.Session{
		ID:       "s",
		Dir:      t.TempDir(),
		Files:    []string{"gone.csv"},
		Metadata: dataset.Description{Name: "Mem"},
	}

	_, err := org.Plan(sess)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if got := services.Classify(err); got != "validation" {
		t.Fatalf("expected validation category, got %s", got)
	}
}

func TestPlanRejectsUnsetDirectory(t *testing.T) {
	org := newOrganizer(t)
	_, err := org.Plan(&session.Session{ID: "s"})
	if err == nil {
		t.Fatal("expected error for unset directory")
	}
}

func TestExecuteAppliesLayout(t *testing.T) {
	org := newOrganizer(t)
	sess, dir := seededSession(t)
	sess.Subdirs = map[string]bool{"materials": true, "unlisted": true}

	plan, err := org.Plan(sess)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if err := org.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "data", "study-memorystudy_data.csv")); err != nil {
		t.Fatalf("expected renamed file in data/: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "study-memorystudy_set-2_data.csv")); err != nil {
		t.Fatalf("expected collision-suffixed file in data/: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "materials")); err != nil {
		t.Fatalf("expected materials/ from enabled subdir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "unlisted")); !os.IsNotExist(err) {
		t.Fatal("subdir outside the allow list must not be created")
	}
	if _, err := os.Stat(filepath.Join(dir, "trials.csv")); !os.IsNotExist(err) {
		t.Fatal("source file should have moved out of the root")
	}
}

func TestExecuteIsRerunnable(t *testing.T) {
	org := newOrganizer(t)
	sess, dir := seededSession(t)

	plan, err := org.Plan(sess)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if err := org.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Second round with the selection refreshed to the moved locations.
	sess.Files = []string{
		"data/study-memorystudy_data.csv",
		"data/study-memorystudy_set-2_data.csv",
	}
	plan, err = org.Plan(sess)
	if err != nil {
		t.Fatalf("Plan second run: %v", err)
	}
	if len(plan.Moves) != 0 {
		t.Fatalf("expected no moves on rerun, got %d", len(plan.Moves))
	}
	if err := org.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute second run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "study-memorystudy_data.csv")); err != nil {
		t.Fatalf("renamed file missing after rerun: %v", err)
	}
}

func TestScaffoldCreatesSkeleton(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())
	dir := filepath.Join(t.TempDir(), "newstudy")

	if err := org.Scaffold(dir, "Sleep Study"); err != nil {
		t.Fatalf("Scaffold: %v", err)
	}

	for _, rel := range []string{"data", "materials", "README.md", "CHANGES.md", "dataset_description.json"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("expected %s in skeleton: %v", rel, err)
		}
	}
	desc, err := dataset.ReadDescription(filepath.Join(dir, "dataset_description.json"))
	if err != nil {
		t.Fatalf("ReadDescription: %v", err)
	}
	if desc.Name != "Sleep Study" {
		t.Fatalf("expected template name, got %q", desc.Name)
	}
	if desc.License != cfg.Wizard.DefaultLicense {
		t.Fatalf("expected default license %q, got %q", cfg.Wizard.DefaultLicense, desc.License)
	}
}

func TestScaffoldRefusesExistingDescription(t *testing.T) {
	org := newOrganizer(t)
	dir := testsupport.SeedDataset(t)

	err := org.Scaffold(dir, "Duplicate")
	if err == nil {
		t.Fatal("expected refusal for existing description")
	}
	if got := services.Classify(err); got != "validation" {
		t.Fatalf("expected validation category, got %s", got)
	}
}
