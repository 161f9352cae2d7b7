package wizard_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/organizer"
	"github.com/psych-ds/psychds-r-sub001/internal/osf"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/testsupport"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
	"github.com/psych-ds/psychds-r-sub001/internal/wizard"
)

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	project string
	root    string
	paths   []string
}

func (f *fakeUploader) Verify(ctx context.Context) error { return f.err }

func (f *fakeUploader) EnsureUploadTarget(ctx context.Context, project string) error { return f.err }

func (f *fakeUploader) UploadFile(ctx context.Context, project, relPath string, r io.Reader, size int64) (*osf.FileResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &osf.FileResult{Path: relPath, Bytes: size}, nil
}

func (f *fakeUploader) UploadDataset(ctx context.Context, project, root string, paths []string) (*osf.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.project = project
	f.root = root
	f.paths = append([]string(nil), paths...)
	result := &osf.UploadResult{Project: project}
	for _, p := range paths {
		result.Files = append(result.Files, osf.FileResult{Path: p, Bytes: 1})
		result.TotalBytes++
	}
	return result, nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	validations int
	lastValid   bool
	publishes   int
	failures    int
}

func (r *recordingNotifier) WizardStarted(ctx context.Context, url string) error { return nil }

func (r *recordingNotifier) ValidationCompleted(ctx context.Context, name string, valid bool, failed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations++
	r.lastValid = valid
	return nil
}

func (r *recordingNotifier) PublishCompleted(ctx context.Context, name, project string, files int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishes++
	return nil
}

func (r *recordingNotifier) PublishFailed(ctx context.Context, name, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	return nil
}

func (r *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

type fixture struct {
	mgr      *wizard.Manager
	store    *session.Store
	uploader *fakeUploader
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	validator, err := validation.NewValidator(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	uploader := &fakeUploader{}
	notifier := &recordingNotifier{}
	mgr := wizard.NewManagerWithDependencies(
		cfg,
		store,
		logging.NewNop(),
		validator,
		organizer.New(cfg, logging.NewNop()),
		uploader,
		notifier,
	)
	return &fixture{mgr: mgr, store: store, uploader: uploader, notifier: notifier}
}

// walkToFinalStep drives a fresh session through selection and metadata to
// step 3, the state Finalize expects.
func walkToFinalStep(t *testing.T, fx *fixture) *session.Session {
	t.Helper()
	ctx := context.Background()

	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dir, files := testsupport.SeedSourceDir(t)
	if _, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, files, map[string]bool{"materials": true}); err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if _, err := fx.mgr.Advance(ctx, sess.ID); err != nil {
		t.Fatalf("Advance to step 2: %v", err)
	}
	meta := dataset.Description{Name: "Memory Study", Description: "A weekly recall study."}
	if _, err := fx.mgr.UpdateMetadata(ctx, sess.ID, meta); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	got, err := fx.mgr.Advance(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Advance to step 3: %v", err)
	}
	if got.Step != session.StepLast {
		t.Fatalf("expected step %d, got %d", session.StepLast, got.Step)
	}
	return got
}

func TestStartSessionDefaults(t *testing.T) {
	fx := newFixture(t)
	sess, err := fx.mgr.StartSession(context.Background(), "   ")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.Name != "Untitled Dataset" {
		t.Errorf("expected default name, got %q", sess.Name)
	}
	if sess.Step != session.StepFirst || sess.MaxVisitedStep != session.StepFirst {
		t.Errorf("expected a fresh session on step 1, got step=%d max=%d", sess.Step, sess.MaxVisitedStep)
	}
	if sess.Status != session.StatusActive {
		t.Errorf("expected active status, got %s", sess.Status)
	}
}

func TestUpdateSelectionRefreshesColumns(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dir, files := testsupport.SeedSourceDir(t)

	got, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, files, map[string]bool{"materials": true})
	if err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if len(got.Files) != 2 || got.Files[0] != "followup.csv" || got.Files[1] != "trials.csv" {
		t.Fatalf("unexpected files %v", got.Files)
	}
	cols := got.Columns["trials.csv"]
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns for trials.csv, got %d", len(cols))
	}
	if cols[0].Name != "id" || cols[1].Name != "score" {
		t.Errorf("unexpected column names %q, %q", cols[0].Name, cols[1].Name)
	}
	if !got.Subdirs["materials"] {
		t.Error("materials toggle was dropped")
	}
}

func TestUpdateSelectionRejectsEscapingPath(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dir, _ := testsupport.SeedSourceDir(t)

	_, err = fx.mgr.UpdateSelection(ctx, sess.ID, dir, []string{"../outside.csv"}, nil)
	if err == nil {
		t.Fatal("expected an error for a path outside the directory")
	}
	if got := services.Classify(err); got != "validation" {
		t.Errorf("expected validation error, got %s", got)
	}
}

func TestUpdateSelectionNoticesUnreadableColumns(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dir, files := testsupport.SeedSourceDir(t)
	testsupport.WriteFile(t, filepath.Join(dir, "empty.csv"), "")

	got, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, append(files, "empty.csv"), nil)
	if err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if _, ok := got.Columns["empty.csv"]; ok {
		t.Error("empty.csv should have no column dictionary")
	}
	notices := fx.mgr.Notifications(sess.ID)
	if len(notices) != 1 || !strings.Contains(notices[0], "empty.csv") {
		t.Fatalf("expected one notice about empty.csv, got %v", notices)
	}
}

func TestUpdateSelectionResetsValidatedStatus(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	sess.Status = session.StatusValidated
	if err := fx.store.Update(ctx, sess); err != nil {
		t.Fatalf("Update: %v", err)
	}
	dir, files := testsupport.SeedSourceDir(t)

	got, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, files, nil)
	if err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if got.Status != session.StatusActive {
		t.Errorf("expected the selection change to reset status, got %s", got.Status)
	}
}

func TestUpdateMetadataNormalizes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	got, err := fx.mgr.UpdateMetadata(ctx, sess.ID, dataset.Description{
		Name:        "  Memory Study  ",
		Description: " A weekly recall study. ",
		Authors:     []dataset.Person{{GivenName: " ", FamilyName: ""}},
	})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if got.Metadata.Name != "Memory Study" {
		t.Errorf("name not trimmed: %q", got.Metadata.Name)
	}
	if got.Metadata.Type != dataset.DatasetType {
		t.Errorf("expected JSON-LD framing, got %q", got.Metadata.Type)
	}
	if len(got.Metadata.Authors) != 0 {
		t.Errorf("nameless author should be dropped, got %v", got.Metadata.Authors)
	}
}

func TestAdvanceThroughGates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	if _, err := fx.mgr.Advance(ctx, sess.ID); services.Classify(err) != "conflict" {
		t.Fatalf("expected a conflict before the selection, got %v", err)
	}

	dir, files := testsupport.SeedSourceDir(t)
	if _, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, files, nil); err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	got, err := fx.mgr.Advance(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got.Step != 2 {
		t.Fatalf("expected step 2, got %d", got.Step)
	}

	_, err = fx.mgr.Advance(ctx, sess.ID)
	if services.Classify(err) != "conflict" {
		t.Fatalf("expected a conflict before the metadata, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "Step 2 is incomplete") {
		t.Errorf("gate message should name step 2, got %v", err)
	}

	meta := dataset.Description{Name: "Memory Study", Description: "A weekly recall study."}
	if _, err := fx.mgr.UpdateMetadata(ctx, sess.ID, meta); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	got, err = fx.mgr.Advance(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got.Step != session.StepLast || got.MaxVisitedStep != session.StepLast {
		t.Fatalf("expected the final step, got step=%d max=%d", got.Step, got.MaxVisitedStep)
	}

	if _, err := fx.mgr.Advance(ctx, sess.ID); services.Classify(err) != "conflict" {
		t.Fatalf("expected a conflict past the final step, got %v", err)
	}
}

func TestBackFromFirstStepFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := fx.mgr.Back(ctx, sess.ID); services.Classify(err) != "conflict" {
		t.Fatalf("expected a conflict, got %v", err)
	}
}

func TestGoToRejectsInvalidStep(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	for _, step := range []int{session.StepNone, 4, -1} {
		if _, err := fx.mgr.GoTo(ctx, sess.ID, step); services.Classify(err) != "validation" {
			t.Errorf("step %d: expected a validation error, got %v", step, err)
		}
	}
}

func TestFinalizeRequiresFinalStep(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := fx.mgr.Finalize(ctx, sess.ID); services.Classify(err) != "conflict" {
		t.Fatalf("expected a conflict on step 1, got %v", err)
	}
}

func TestFinalizeWritesDatasetDocuments(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess := walkToFinalStep(t, fx)

	res, err := fx.mgr.Finalize(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Moves != 2 {
		t.Errorf("expected 2 moves, got %d", res.Moves)
	}
	wantFiles := []string{
		"data/study-memorystudy_data.csv",
		"data/study-memorystudy_set-2_data.csv",
	}
	if len(res.DataFiles) != len(wantFiles) {
		t.Fatalf("unexpected data files %v", res.DataFiles)
	}
	for i, want := range wantFiles {
		if res.DataFiles[i] != want {
			t.Errorf("data file %d: got %s, want %s", i, res.DataFiles[i], want)
		}
	}

	desc, err := dataset.ReadDescription(res.DescriptionPath)
	if err != nil {
		t.Fatalf("ReadDescription: %v", err)
	}
	if desc.Name != "Memory Study" {
		t.Errorf("description name: %q", desc.Name)
	}
	manifest, err := dataset.ReadManifest(res.ManifestPath)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(manifest.Resources) != 2 {
		t.Errorf("expected 2 manifest resources, got %d", len(manifest.Resources))
	}
	if info, err := os.Stat(filepath.Join(res.Root, "materials")); err != nil || !info.IsDir() {
		t.Error("enabled materials/ subdirectory was not created")
	}

	got, err := fx.mgr.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := got.Columns["data/study-memorystudy_data.csv"]; !ok {
		t.Error("column dictionary was not re-keyed to the new layout")
	}
}

func TestValidateMarksSessionValidated(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess := walkToFinalStep(t, fx)
	if _, err := fx.mgr.Finalize(ctx, sess.ID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	report, err := fx.mgr.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !report.Valid {
		t.Fatalf("expected a valid dataset, checks: %+v", report.Checks)
	}
	got, err := fx.mgr.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != session.StatusValidated {
		t.Errorf("expected validated status, got %s", got.Status)
	}
	if got.LastError != "" {
		t.Errorf("expected no last error, got %q", got.LastError)
	}
	if fx.notifier.validations != 1 || !fx.notifier.lastValid {
		t.Errorf("expected one passing validation notification")
	}
}

func TestValidateRecordsFailures(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dir, files := testsupport.SeedSourceDir(t)
	if _, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, files, nil); err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}

	// The raw directory has no description and no data/ layout yet.
	report, err := fx.mgr.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Valid {
		t.Fatal("a raw directory should not validate")
	}
	got, err := fx.mgr.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != session.StatusActive {
		t.Errorf("expected active status, got %s", got.Status)
	}
	if !strings.Contains(got.LastError, "Validation failed") {
		t.Errorf("expected a recorded failure, got %q", got.LastError)
	}
}

func TestPublishRequiresValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := fx.mgr.Publish(ctx, sess.ID, "ab12x", ""); services.Classify(err) != "conflict" {
		t.Fatalf("expected a conflict before validation, got %v", err)
	}
}

func TestPublishUploadsAndDiscardsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess := walkToFinalStep(t, fx)
	if _, err := fx.mgr.Finalize(ctx, sess.ID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := fx.mgr.Validate(ctx, sess.ID); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	result, err := fx.mgr.Publish(ctx, sess.ID, "ab12x", "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.Project != "ab12x" {
		t.Errorf("unexpected project %q", result.Project)
	}
	if fx.uploader.project != "ab12x" {
		t.Errorf("uploader saw project %q", fx.uploader.project)
	}
	want := map[string]bool{
		"dataset_description.json":              true,
		"datapackage.json":                      true,
		"data/study-memorystudy_data.csv":       true,
		"data/study-memorystudy_set-2_data.csv": true,
	}
	if len(fx.uploader.paths) != len(want) {
		t.Fatalf("unexpected upload paths %v", fx.uploader.paths)
	}
	for _, p := range fx.uploader.paths {
		if !want[p] {
			t.Errorf("unexpected upload path %s", p)
		}
	}
	if fx.notifier.publishes != 1 {
		t.Errorf("expected one publish notification, got %d", fx.notifier.publishes)
	}
	if _, err := fx.mgr.Get(ctx, sess.ID); services.Classify(err) != "not_found" {
		t.Errorf("expected the session to be discarded, got %v", err)
	}
}

func TestPublishWithoutProjectFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess := walkToFinalStep(t, fx)
	if _, err := fx.mgr.Finalize(ctx, sess.ID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := fx.mgr.Validate(ctx, sess.ID); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if _, err := fx.mgr.Publish(ctx, sess.ID, "", ""); services.Classify(err) != "validation" {
		t.Fatalf("expected a validation error without a project, got %v", err)
	}
}

func TestPublishFailureKeepsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess := walkToFinalStep(t, fx)
	if _, err := fx.mgr.Finalize(ctx, sess.ID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := fx.mgr.Validate(ctx, sess.ID); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	fx.uploader.err = errors.New("storage is read-only")

	if _, err := fx.mgr.Publish(ctx, sess.ID, "ab12x", ""); err == nil {
		t.Fatal("expected the upload error to surface")
	}
	got, err := fx.mgr.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("the session should survive a failed publish: %v", err)
	}
	if got.Status != session.StatusValidated {
		t.Errorf("expected validated status, got %s", got.Status)
	}
	notices := fx.mgr.Notifications(sess.ID)
	if len(notices) != 1 || !strings.Contains(notices[0], "Publish failed") {
		t.Errorf("expected a publish-failed notice, got %v", notices)
	}
	if fx.notifier.failures != 1 {
		t.Errorf("expected one failure notification, got %d", fx.notifier.failures)
	}
}

func TestAbandonRemovesSessionAndNotices(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sess, err := fx.mgr.StartSession(ctx, "Memory Study")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dir, files := testsupport.SeedSourceDir(t)
	testsupport.WriteFile(t, filepath.Join(dir, "empty.csv"), "")
	if _, err := fx.mgr.UpdateSelection(ctx, sess.ID, dir, append(files, "empty.csv"), nil); err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if len(fx.mgr.Notifications(sess.ID)) == 0 {
		t.Fatal("expected a notice before abandoning")
	}

	if err := fx.mgr.Abandon(ctx, sess.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := fx.mgr.Get(ctx, sess.ID); services.Classify(err) != "not_found" {
		t.Errorf("expected not_found after abandon, got %v", err)
	}
	if got := fx.mgr.Notifications(sess.ID); len(got) != 0 {
		t.Errorf("expected notices to be cleared, got %v", got)
	}
}
