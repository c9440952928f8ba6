package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// presenceTTL guards against orphaned sets when a process dies without
// clearing them; live membership is always refreshed on join.
const presenceTTL = 24 * time.Hour

// PresenceStore mirrors each session's live participant set into a Redis
// set. Implements domain.PresenceStore. The hub remains the source of truth
// for the active count; this mirror exists for external inspection.
type PresenceStore struct {
	rdb *goredis.Client
}

func NewPresenceStore(rdb *goredis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

func presenceKey(sessionID string) string {
	return "presence:" + sessionID
}

func (p *PresenceStore) Add(ctx context.Context, sessionID, participantID string) error {
	key := presenceKey(sessionID)
	pipe := p.rdb.Pipeline()
	pipe.SAdd(ctx, key, participantID)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add participant to presence set: %w", err)
	}
	return nil
}

func (p *PresenceStore) Remove(ctx context.Context, sessionID, participantID string) error {
	if err := p.rdb.SRem(ctx, presenceKey(sessionID), participantID).Err(); err != nil {
		return fmt.Errorf("failed to remove participant from presence set: %w", err)
	}
	return nil
}

func (p *PresenceStore) Clear(ctx context.Context, sessionID string) error {
	if err := p.rdb.Del(ctx, presenceKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear presence set: %w", err)
	}
	return nil
}
