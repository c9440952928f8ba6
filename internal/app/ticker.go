package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
	"github.com/Prasanna018/code-collab-backend/internal/metrics"
)

// CleanupTicker periodically prunes sessions older than the expiry window.
// The durable store is the source of truth for expiry; live connections are
// unaffected because the hub never consults the store after admission.
type CleanupTicker struct {
	store    domain.SessionStore
	clock    clockwork.Clock
	interval time.Duration
	maxAge   time.Duration
}

func NewCleanupTicker(store domain.SessionStore, clock clockwork.Clock, interval, maxAge time.Duration) *CleanupTicker {
	return &CleanupTicker{
		store:    store,
		clock:    clock,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run starts the periodic cleanup loop. It blocks until ctx is cancelled.
func (t *CleanupTicker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.sweep(ctx)
		}
	}
}

func (t *CleanupTicker) sweep(ctx context.Context) {
	cutoff := t.clock.Now().Add(-t.maxAge)

	removed, err := t.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		slog.Error("Expired session cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		metrics.SessionsCleanedUpTotal.Add(float64(removed))
		slog.Info("Cleaned up expired sessions", "removed", removed)
	}
}
