package api

import (
	"context"

	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// SessionReader abstracts session persistence interactions needed for API
// queries.
type SessionReader interface {
	List(ctx context.Context, statuses ...session.Status) ([]*session.Session, error)
	GetByID(ctx context.Context, id string) (*session.Session, error)
}

// SessionService exposes read-only session operations returning API DTOs.
type SessionService struct {
	store SessionReader
}

// NewSessionService constructs a SessionService around the provided reader.
func NewSessionService(store SessionReader) *SessionService {
	if store == nil {
		return nil
	}
	return &SessionService{store: store}
}

// List returns all sessions as summaries, newest first.
func (s *SessionService) List(ctx context.Context) ([]SessionSummary, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return FromSessions(sessions), nil
}

// Describe fetches a single session summary, nil when absent.
func (s *SessionService) Describe(ctx context.Context, id string) (*SessionSummary, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	sess, err := s.store.GetByID(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	dto := FromSession(sess)
	return &dto, nil
}

// Count returns the number of stored sessions.
func (s *SessionService) Count(ctx context.Context) (int, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	sessions, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}
