package domain

import "encoding/json"

// Wire message types. Every outbound message except MessageInit is broadcast
// to all other members of the sender's session; the sender never receives an
// echo of its own action.
const (
	MessageInit           = "init"
	MessageUserJoin       = "user_join"
	MessageUserLeave      = "user_leave"
	MessageCodeChange     = "code_change"
	MessageLanguageChange = "language_change"
	MessageCursorMove     = "cursor_move"
)

// Inbound is one decoded client frame. Unrecognized types are ignored by the
// protocol loop so newer clients can talk to older servers.
type Inbound struct {
	Type           string          `json:"type"`
	Code           string          `json:"code"`
	Language       string          `json:"language"`
	CursorPosition json.RawMessage `json:"cursorPosition"`
}

// InitMessage is sent once, to the joining connection only.
type InitMessage struct {
	Type          string `json:"type"`
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	Code          string `json:"code"`
	Language      string `json:"language"`
	ActiveUsers   int    `json:"activeUsers"`
}

// PresenceMessage announces a user_join or user_leave together with the
// refreshed participant count.
type PresenceMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	ActiveUsers   int    `json:"activeUsers"`
}

// CodeChangeMessage carries the full document text, not a diff.
type CodeChangeMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	Code          string `json:"code"`
}

// LanguageChangeMessage announces a new language tag for the session.
type LanguageChangeMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	Language      string `json:"language"`
}

// CursorMoveMessage forwards an opaque cursor payload verbatim. The server
// never interprets the position.
type CursorMoveMessage struct {
	Type           string          `json:"type"`
	ParticipantID  string          `json:"participantId"`
	CursorPosition json.RawMessage `json:"cursorPosition"`
}
