// Package app wires the durable store, presence mirror, and write coalescer
// into the operations the HTTP and WebSocket layers call.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
)

// Service implements domain.AppService.
type Service struct {
	store     domain.SessionStore
	presence  domain.PresenceStore
	coalescer *WriteCoalescer
	clock     clockwork.Clock
}

func NewService(store domain.SessionStore, presence domain.PresenceStore, coalescer *WriteCoalescer, clock clockwork.Clock) *Service {
	return &Service{
		store:     store,
		presence:  presence,
		coalescer: coalescer,
		clock:     clock,
	}
}

// newSessionID returns a short identifier for clean invite URLs.
func newSessionID() string {
	return uuid.NewString()[:8]
}

func (s *Service) CreateSession(ctx context.Context, language, initialCode string) (domain.Session, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}

	now := s.clock.Now()
	session := domain.Session{
		ID:        newSessionID(),
		Code:      initialCode,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("Session created", "session_id", session.ID, "language", session.Language)
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (domain.Session, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("Session deleted", "session_id", id)
	return nil
}

func (s *Service) SaveCode(ctx context.Context, sessionID, code string) bool {
	return s.coalescer.MaybePersist(ctx, sessionID, code)
}

func (s *Service) SaveLanguage(ctx context.Context, sessionID, language string) error {
	if language == "" {
		language = domain.DefaultLanguage
	}
	if err := s.store.UpdateLanguage(ctx, sessionID, language); err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	return nil
}

// ParticipantJoined mirrors the new member into the presence store.
// Best-effort: a presence failure never blocks admission.
func (s *Service) ParticipantJoined(ctx context.Context, sessionID, participantID string) {
	if err := s.presence.Add(ctx, sessionID, participantID); err != nil {
		slog.Warn("Presence add failed", "session_id", sessionID, "participant_id", participantID, "error", err)
	}
}

func (s *Service) ParticipantLeft(ctx context.Context, sessionID, participantID string) {
	if err := s.presence.Remove(ctx, sessionID, participantID); err != nil {
		slog.Warn("Presence remove failed", "session_id", sessionID, "participant_id", participantID, "error", err)
	}
}

// SessionEmptied flushes coalesced text and clears presence after the last
// connection detaches. The durable record itself stays until it expires or
// is deleted explicitly.
func (s *Service) SessionEmptied(ctx context.Context, sessionID string) {
	s.coalescer.Flush(ctx, sessionID)
	if err := s.presence.Clear(ctx, sessionID); err != nil {
		slog.Warn("Presence clear failed", "session_id", sessionID, "error", err)
	}
}
