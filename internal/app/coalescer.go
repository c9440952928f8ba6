package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
	"github.com/Prasanna018/code-collab-backend/internal/metrics"
)

// WriteCoalescer bounds how often one session's document text reaches the
// durable store. Broadcast delivery is never gated here; only the durable
// write is throttled. Language changes and session deletion bypass the
// coalescer entirely.
type WriteCoalescer struct {
	store    domain.SessionStore
	clock    clockwork.Clock
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*coalesceEntry
}

type coalesceEntry struct {
	lastWrite time.Time
	// pending holds text that arrived inside the coalescing window and has
	// not been persisted yet. Flushed when the session empties.
	pending string
	dirty   bool
}

func NewWriteCoalescer(store domain.SessionStore, clock clockwork.Clock, interval time.Duration) *WriteCoalescer {
	return &WriteCoalescer{
		store:    store,
		clock:    clock,
		interval: interval,
		sessions: make(map[string]*coalesceEntry),
	}
}

// MaybePersist writes code durably if the session's coalescing window has
// elapsed and reports whether a write happened. Eligibility is decided under
// the lock; the store call runs outside it, so two overlapping windows can
// at worst produce one extra write, never lose one.
func (w *WriteCoalescer) MaybePersist(ctx context.Context, sessionID, code string) bool {
	now := w.clock.Now()

	w.mu.Lock()
	e, ok := w.sessions[sessionID]
	if !ok {
		e = &coalesceEntry{}
		w.sessions[sessionID] = e
	}
	if !e.lastWrite.IsZero() && now.Sub(e.lastWrite) < w.interval {
		e.pending = code
		e.dirty = true
		w.mu.Unlock()
		metrics.WritesCoalescedTotal.Inc()
		return false
	}
	// Claim the window before the store call so concurrent senders for this
	// session do not all write.
	e.lastWrite = now
	e.dirty = false
	w.mu.Unlock()

	if err := w.store.UpdateCode(ctx, sessionID, code); err != nil {
		slog.Error("Durable code write failed", "session_id", sessionID, "error", err)
		metrics.WriteFailuresTotal.Inc()
		// Keep the text as pending so the next eligible write or the final
		// flush retries it.
		w.mu.Lock()
		e.pending = code
		e.dirty = true
		w.mu.Unlock()
		return false
	}

	metrics.WritesPersistedTotal.Inc()
	return true
}

// Flush persists any text still pending for the session and drops its
// coalescing state. Called when the last participant leaves, so the final
// keystrokes of a session are never lost to the throttle.
func (w *WriteCoalescer) Flush(ctx context.Context, sessionID string) {
	w.mu.Lock()
	e, ok := w.sessions[sessionID]
	if !ok {
		w.mu.Unlock()
		return
	}
	delete(w.sessions, sessionID)
	pending, dirty := e.pending, e.dirty
	w.mu.Unlock()

	if !dirty {
		return
	}
	if err := w.store.UpdateCode(ctx, sessionID, pending); err != nil {
		slog.Error("Final flush failed", "session_id", sessionID, "error", err)
		metrics.WriteFailuresTotal.Inc()
		return
	}
	metrics.WritesPersistedTotal.Inc()
}
