package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/simpyt/search-room/internal/domain"
)

// SnapshotCache keeps the latest compatibility snapshot per room in Redis with a
// TTL, so repeated reads skip SQLite. A nil cache is valid and caches nothing,
// which is how the service runs without Redis configured.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if client == nil {
		return nil
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(roomID string) string { return "compat:" + roomID }

func (c *SnapshotCache) Get(ctx context.Context, roomID string) (domain.CompatibilitySnapshot, bool) {
	if c == nil {
		return domain.CompatibilitySnapshot{}, false
	}
	raw, err := c.client.Get(ctx, snapshotKey(roomID)).Result()
	if err != nil {
		return domain.CompatibilitySnapshot{}, false
	}
	var snap domain.CompatibilitySnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return domain.CompatibilitySnapshot{}, false
	}
	return snap, true
}

func (c *SnapshotCache) Set(ctx context.Context, snap domain.CompatibilitySnapshot) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	c.client.Set(ctx, snapshotKey(snap.RoomID), raw, c.ttl)
}

// Invalidate drops the cached snapshot; called whenever a party saves new
// criteria so stale reads fall through to storage.
func (c *SnapshotCache) Invalidate(ctx context.Context, roomID string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, snapshotKey(roomID))
}
