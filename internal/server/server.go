package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/fileutil"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/wizard"
)

// StatusProvider supplies the aggregated runtime status for /api/v1/status.
// The wizard runtime implements it; handlers fall back to a minimal payload
// when none is wired.
type StatusProvider interface {
	Status(ctx context.Context) api.ServerStatus
}

// Server is the HTTP API consumed by the browser UI.
type Server struct {
	cfg      *config.Config
	manager  *wizard.Manager
	sessions *api.SessionService
	status   StatusProvider
	logger   *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New assembles the route table and middleware around the manager.
func New(cfg *config.Config, manager *wizard.Manager, store *session.Store, status StatusProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		manager:  manager,
		sessions: api.NewSessionService(store),
		status:   status,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/state", s.handleState)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/selection", s.handleSelection)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/metadata", s.handleMetadata)
	mux.HandleFunc("POST /api/v1/sessions/{id}/advance", s.handleAdvance)
	mux.HandleFunc("POST /api/v1/sessions/{id}/back", s.handleBack)
	mux.HandleFunc("POST /api/v1/sessions/{id}/step", s.handleGoTo)
	mux.HandleFunc("POST /api/v1/sessions/{id}/finalize", s.handleFinalize)
	mux.HandleFunc("POST /api/v1/sessions/{id}/validate", s.handleValidate)
	mux.HandleFunc("POST /api/v1/sessions/{id}/publish", s.handlePublish)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/notifications", s.handleClearNotifications)
	mux.HandleFunc("GET /api/v1/fs/scan", s.handleScan)
	mux.HandleFunc("GET /api/v1/fs/columns", s.handleColumns)

	if uiDir := strings.TrimSpace(cfg.Paths.UIDir); uiDir != "" && fileutil.PathExists(uiDir) {
		mux.Handle("/", http.FileServer(http.Dir(uiDir)))
	} else {
		mux.HandleFunc("/", s.handleLanding)
	}

	s.handler = Chain(
		Recovery(s.log()),
		RequestID(),
		Logging(s.log()),
	)(mux)

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the assembled route table for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the listener.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
