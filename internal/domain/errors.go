package domain

import "errors"

var (
	// ErrSessionNotFound terminates a pending connection before admission and
	// maps to HTTP 404 on the REST surface. It is never surfaced as a
	// mid-session error.
	ErrSessionNotFound = errors.New("session not found")
)
