package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/notifications"
	"github.com/psych-ds/psychds-r-sub001/internal/organizer"
	"github.com/psych-ds/psychds-r-sub001/internal/osf"
	"github.com/psych-ds/psychds-r-sub001/internal/scan"
	"github.com/psych-ds/psychds-r-sub001/internal/server"
	"github.com/psych-ds/psychds-r-sub001/internal/testsupport"
	"github.com/psych-ds/psychds-r-sub001/internal/validation"
	"github.com/psych-ds/psychds-r-sub001/internal/wizard"
)

type stubUploader struct {
	datasets int
}

func (s *stubUploader) Verify(context.Context) error                      { return nil }
func (s *stubUploader) EnsureUploadTarget(context.Context, string) error  { return nil }
func (s *stubUploader) UploadFile(_ context.Context, _, relPath string, _ io.Reader, size int64) (*osf.FileResult, error) {
	return &osf.FileResult{Path: relPath, Bytes: size}, nil
}
func (s *stubUploader) UploadDataset(_ context.Context, project, _ string, paths []string) (*osf.UploadResult, error) {
	s.datasets++
	result := &osf.UploadResult{Project: project}
	for _, p := range paths {
		result.Files = append(result.Files, osf.FileResult{Path: p, Bytes: 1})
		result.TotalBytes++
	}
	return result, nil
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	validator, err := validation.NewValidator(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	mgr := wizard.NewManagerWithDependencies(
		cfg,
		store,
		logging.NewNop(),
		validator,
		organizer.New(cfg, logging.NewNop()),
		&stubUploader{},
		notifications.NewService(cfg),
	)
	return server.New(cfg, mgr, store, nil, logging.NewNop())
}

func doRequest(t *testing.T, srv *server.Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func createSession(t *testing.T, srv *server.Server, name string) api.SessionSummary {
	t.Helper()
	w := doRequest(t, srv, http.MethodPost, "/api/v1/sessions", api.CreateSessionRequest{Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeBody[api.SessionResponse](t, w).Session
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody[map[string]string](t, w); got["status"] != "ok" {
		t.Fatalf("unexpected body %v", got)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t)
	created := createSession(t, srv, "Memory Study")
	if created.Name != "Memory Study" || created.Step != 1 {
		t.Fatalf("unexpected session %+v", created)
	}

	w := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decodeBody[api.SessionResponse](t, w).Session
	if got.ID != created.ID {
		t.Fatalf("unexpected session %+v", got)
	}

	list := doRequest(t, srv, http.MethodGet, "/api/v1/sessions", nil)
	sessions := decodeBody[api.SessionListResponse](t, list).Sessions
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
}

func TestCreateSessionEmptyBodyUsesDefaults(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if got := decodeBody[api.SessionResponse](t, w).Session; got.Name != "Untitled Dataset" {
		t.Fatalf("unexpected default name %q", got.Name)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decodeBody[map[string]string](t, w)
	if !strings.Contains(body["error"], "No wizard session") {
		t.Fatalf("unexpected error text %q", body["error"])
	}
}

func TestAdvanceGateRefusalMapsTo409(t *testing.T) {
	srv := newTestServer(t)
	created := createSession(t, srv, "Memory Study")

	w := doRequest(t, srv, http.MethodPost, "/api/v1/sessions/"+created.ID+"/advance", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody[map[string]string](t, w)
	if !strings.Contains(body["error"], "Step 1 is incomplete") {
		t.Fatalf("unexpected error text %q", body["error"])
	}
}

func TestSelectionEndpointReturnsState(t *testing.T) {
	srv := newTestServer(t)
	created := createSession(t, srv, "Memory Study")
	dir, files := testsupport.SeedSourceDir(t)

	w := doRequest(t, srv, http.MethodPut, "/api/v1/sessions/"+created.ID+"/selection", api.SelectionRequest{
		Directory: dir,
		Files:     files,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	state := decodeBody[api.WizardStateView](t, w)
	if state.Session.FileCount != 2 {
		t.Fatalf("unexpected state %+v", state.Session)
	}
	if !state.Gate.CanAdvance {
		t.Fatalf("gate should open after the selection, got %+v", state.Gate)
	}
	if len(state.Columns["trials.csv"]) != 2 {
		t.Fatalf("columns missing from state: %+v", state.Columns)
	}
}

func TestSelectionRejectsBadBody(t *testing.T) {
	srv := newTestServer(t)
	created := createSession(t, srv, "Memory Study")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+created.ID+"/selection", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStateIncludesNotifications(t *testing.T) {
	srv := newTestServer(t)
	created := createSession(t, srv, "Memory Study")
	dir, files := testsupport.SeedSourceDir(t)
	testsupport.WriteFile(t, filepath.Join(dir, "empty.csv"), "")

	w := doRequest(t, srv, http.MethodPut, "/api/v1/sessions/"+created.ID+"/selection", api.SelectionRequest{
		Directory: dir,
		Files:     append(files, "empty.csv"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	state := decodeBody[api.WizardStateView](t, w)
	if len(state.Notifications) != 1 || !strings.Contains(state.Notifications[0], "empty.csv") {
		t.Fatalf("expected a notice about empty.csv, got %v", state.Notifications)
	}

	del := doRequest(t, srv, http.MethodDelete, "/api/v1/sessions/"+created.ID+"/notifications", nil)
	if del.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", del.Code)
	}
	after := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/"+created.ID+"/state", nil)
	if state := decodeBody[api.WizardStateView](t, after); len(state.Notifications) != 0 {
		t.Fatalf("expected cleared notifications, got %v", state.Notifications)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	created := createSession(t, srv, "Memory Study")

	w := doRequest(t, srv, http.MethodDelete, "/api/v1/sessions/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if again := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/"+created.ID, nil); again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", again.Code)
	}
}

func TestScanEndpoint(t *testing.T) {
	srv := newTestServer(t)
	dir, _ := testsupport.SeedSourceDir(t)

	w := doRequest(t, srv, http.MethodGet, "/api/v1/fs/scan?dir="+url.QueryEscape(dir), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	summary := decodeBody[scan.DirSummary](t, w)
	if summary.FileCount != 2 || len(summary.DataFiles) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if missing := doRequest(t, srv, http.MethodGet, "/api/v1/fs/scan", nil); missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without dir, got %d", missing.Code)
	}
}

func TestColumnsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	dir, _ := testsupport.SeedSourceDir(t)
	base := "/api/v1/fs/columns?dir=" + url.QueryEscape(dir)

	w := doRequest(t, srv, http.MethodGet, base+"&file=trials.csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.ColumnsResponse](t, w)
	if resp.File != "trials.csv" || len(resp.Columns) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}

	escape := doRequest(t, srv, http.MethodGet, base+"&file="+url.QueryEscape("../secret.csv"), nil)
	if escape.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an escaping path, got %d", escape.Code)
	}
}

func TestStatusFallback(t *testing.T) {
	srv := newTestServer(t)
	createSession(t, srv, "Memory Study")

	w := doRequest(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	status := decodeBody[api.ServerStatus](t, w)
	if !status.Running || status.SessionCount != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestLandingPage(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Psych-DS Wizard") {
		t.Fatalf("unexpected landing body %q", w.Body.String())
	}
	if nope := doRequest(t, srv, http.MethodGet, "/nope", nil); nope.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown paths, got %d", nope.Code)
	}
}
