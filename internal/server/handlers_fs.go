package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/scan"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status != nil {
		s.writeJSON(w, http.StatusOK, s.status.Status(r.Context()))
		return
	}
	count, err := s.sessions.Count(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ServerStatus{
		Running:      true,
		PID:          os.Getpid(),
		URL:          s.cfg.BaseURL(),
		SessionCount: count,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	dir := strings.TrimSpace(r.URL.Query().Get("dir"))
	if dir == "" {
		writeError(w, http.StatusBadRequest, "The dir query parameter is required")
		return
	}
	summary, err := scan.Summary(dir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	dir := strings.TrimSpace(r.URL.Query().Get("dir"))
	file := strings.TrimSpace(r.URL.Query().Get("file"))
	if dir == "" || file == "" {
		writeError(w, http.StatusBadRequest, "The dir and file query parameters are required")
		return
	}
	rel := path.Clean(filepath.ToSlash(file))
	if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		writeError(w, http.StatusBadRequest, "The file must be relative to dir")
		return
	}
	table, err := scan.IntrospectCSV(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ColumnsResponse{File: rel, Columns: table.Columns})
}

// handleLanding serves a tiny page at / when no UI directory is configured,
// so opening the wizard URL in a browser shows something useful.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html>
<title>Psych-DS Wizard</title>
<h1>Psych-DS Wizard</h1>
<p>The wizard server is running. The JSON API lives under <code>/api/v1/</code>;
point the wizard UI at this address or set <code>paths.ui_dir</code> in
config.toml to serve a bundled UI from here.</p>
`))
}
