// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (session.go, message.go, store.go, errors.go) hold
// shared types and cross-cutting contracts. No implementation code lives
// here; keeping interfaces on the consumer side prevents circular imports.
package domain
