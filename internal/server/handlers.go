package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
)

// readJSON decodes the request body into dst. An empty body is allowed and
// leaves dst at its zero value.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "The request body is not valid JSON")
	return false
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	sess, err := s.manager.StartSession(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.manager.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: api.FromSessions(sessions)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Abandon(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateView(sess, s.manager.Notifications(id)))
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req api.SelectionRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	sess, err := s.manager.UpdateSelection(r.Context(), id, req.Directory, req.Files, req.Subdirs)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateView(sess, s.manager.Notifications(id)))
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var desc dataset.Description
	if !s.readJSON(w, r, &desc) {
		return
	}
	sess, err := s.manager.UpdateMetadata(r.Context(), id, desc)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateView(sess, s.manager.Notifications(id)))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.manager.Advance(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateView(sess, s.manager.Notifications(id)))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.manager.Back(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateView(sess, s.manager.Notifications(id)))
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req api.StepRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	sess, err := s.manager.GoTo(r.Context(), id, req.Step)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateView(sess, s.manager.Notifications(id)))
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	result, err := s.manager.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	report, err := s.manager.Validate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req api.PublishRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	result, err := s.manager.Publish(r.Context(), r.PathValue("id"), req.Project, req.Token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	s.manager.ClearNotifications(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
