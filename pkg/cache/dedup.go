package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyDedup        = "dedup:%s:%s"
	DefaultDedupTTL = 48 * time.Hour
)

// Deduper remembers processed event ids per consumer scope.
type Deduper struct {
	rdb   *redis.Client
	scope string
	ttl   time.Duration
}

func NewDeduper(rdb *redis.Client, scope string, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduper{rdb: rdb, scope: scope, ttl: ttl}
}

// Claim marks eventID as in progress. It returns false when another delivery
// already claimed it. Without Redis every event is claimable.
func (d *Deduper) Claim(ctx context.Context, eventID string) (bool, error) {
	if d == nil || d.rdb == nil || eventID == "" {
		return true, nil
	}
	return d.rdb.SetNX(ctx, fmt.Sprintf(keyDedup, d.scope, eventID), "1", d.ttl).Result()
}

// Release forgets a claim so a failed event can be redelivered.
func (d *Deduper) Release(ctx context.Context, eventID string) error {
	if d == nil || d.rdb == nil || eventID == "" {
		return nil
	}
	return d.rdb.Del(ctx, fmt.Sprintf(keyDedup, d.scope, eventID)).Err()
}
