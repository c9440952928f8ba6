package domain

import "time"

// DefaultLanguage is applied when a session is created or a language_change
// arrives without an explicit language tag.
const DefaultLanguage = "python"

// Session is the durable record of one collaborative document. The live
// participant set is not part of this struct: membership is in-memory state
// owned by the hub, and the durable copy may lag the broadcast stream by up
// to the write-coalescing interval.
type Session struct {
	ID        string
	Code      string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
