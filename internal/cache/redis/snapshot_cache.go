package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polyarb/arbot/internal/domain"
)

const snapshotTTL = 2 * time.Minute

// SnapshotCache implements domain.SnapshotCache using Redis strings with
// JSON-serialized snapshots. Each market's latest snapshot supersedes the
// previous one; stale entries simply expire.
//
// Key schema:
//
//	snapshot:{marketID} - JSON-encoded domain.Snapshot
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(marketID string) string { return "snapshot:" + marketID }

// Set stores one market snapshot with a short TTL.
func (sc *SnapshotCache) Set(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.MarketID, err)
	}

	if err := sc.rdb.Set(ctx, snapshotKey(snap.MarketID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.MarketID, err)
	}
	return nil
}

// SetBatch stores a full polling pass worth of snapshots in one pipeline
// round trip.
func (sc *SnapshotCache) SetBatch(ctx context.Context, snaps []domain.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	pipe := sc.rdb.Pipeline()
	for _, snap := range snaps {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("redis: marshal snapshot %s: %w", snap.MarketID, err)
		}
		pipe.Set(ctx, snapshotKey(snap.MarketID), data, snapshotTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set snapshot batch: %w", err)
	}
	return nil
}

// Get retrieves the latest snapshot for a market. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (sc *SnapshotCache) Get(ctx context.Context, marketID string) (domain.Snapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot %s: %w", marketID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot %s: %w", marketID, err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
