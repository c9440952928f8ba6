package domain

import (
	"context"
	"time"
)

// SessionStore is the durable store collaborator. Implementations must map
// missing sessions to ErrSessionNotFound.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	UpdateCode(ctx context.Context, id, code string) error
	UpdateLanguage(ctx context.Context, id, language string) error
	Delete(ctx context.Context, id string) error

	// DeleteExpired prunes sessions created before the cutoff and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// PresenceStore mirrors the live participant set of a session into shared
// storage. All calls on the real-time path are best-effort: the in-memory
// hub remains the source of truth for the active count.
type PresenceStore interface {
	Add(ctx context.Context, sessionID, participantID string) error
	Remove(ctx context.Context, sessionID, participantID string) error
	Clear(ctx context.Context, sessionID string) error
}
