package domain

import "context"

// AppService coordinates the durable store, presence mirror, and write
// coalescer on behalf of the HTTP and WebSocket layers.
type AppService interface {
	// Session lifecycle (REST surface, not on the real-time path)

	CreateSession(ctx context.Context, language, initialCode string) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error

	// Real-time path

	// SaveCode persists the document text through the write coalescer and
	// reports whether a durable write actually happened. The broadcast path
	// is never gated by this call.
	SaveCode(ctx context.Context, sessionID, code string) bool

	// SaveLanguage persists the language tag synchronously; language changes
	// are rare and never coalesced.
	SaveLanguage(ctx context.Context, sessionID, language string) error

	ParticipantJoined(ctx context.Context, sessionID, participantID string)
	ParticipantLeft(ctx context.Context, sessionID, participantID string)

	// SessionEmptied runs when the last connection detaches: it flushes any
	// coalesced document text and clears the presence mirror.
	SessionEmptied(ctx context.Context, sessionID string)
}
