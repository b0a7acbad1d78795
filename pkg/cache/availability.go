// Package cache holds the Redis-backed helpers. Every helper accepts a nil
// client and degrades to a no-op, so services run unchanged without Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyAvailabilityVersion    = "avail:ver:%s:%s"
	keyAvailabilityGeneration = "avail:gen:%s"
	keyAvailability           = "avail:%s:%s:%s:%d:g%d:v%d"
)

// AvailabilityCache stores computed slot lists per restaurant and date.
// Entries embed a per-day version and a per-restaurant generation; bumping
// either orphans the affected entries so they expire unread.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func (c *AvailabilityCache) Enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func (c *AvailabilityCache) version(ctx context.Context, restaurantID, date string) (gen, ver int64, err error) {
	values, err := c.rdb.MGet(ctx,
		fmt.Sprintf(keyAvailabilityGeneration, restaurantID),
		fmt.Sprintf(keyAvailabilityVersion, restaurantID, date),
	).Result()
	if err != nil {
		return 0, 0, err
	}
	counters := make([]int64, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if counters[i], err = strconv.ParseInt(s, 10, 64); err != nil {
			return 0, 0, err
		}
	}
	return counters[0], counters[1], nil
}

func (c *AvailabilityCache) key(restaurantID, date, variant string, duration int, gen, ver int64) string {
	return fmt.Sprintf(keyAvailability, restaurantID, date, variant, duration, gen, ver)
}

// Entry pins a lookup to the counters Get read. Set writes under that key
// only, so a value computed before an invalidation lands on an orphaned key.
// The zero Entry is never written.
type Entry struct {
	Key string
}

// Get loads a cached value into dst. It reports false on a miss, when the
// cache is disabled, or on any Redis error. The returned Entry is what a
// later Set for the same lookup must be given.
func (c *AvailabilityCache) Get(ctx context.Context, restaurantID, date, variant string, duration int, dst any) (Entry, bool) {
	if !c.Enabled() {
		return Entry{}, false
	}
	gen, ver, err := c.version(ctx, restaurantID, date)
	if err != nil {
		return Entry{}, false
	}
	entry := Entry{Key: c.key(restaurantID, date, variant, duration, gen, ver)}
	raw, err := c.rdb.Get(ctx, entry.Key).Bytes()
	if err != nil {
		return entry, false
	}
	return entry, json.Unmarshal(raw, dst) == nil
}

func (c *AvailabilityCache) Set(ctx context.Context, entry Entry, value any) error {
	if !c.Enabled() || entry.Key == "" {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, entry.Key, raw, c.ttl).Err()
}

// Invalidate bumps the day's version after any reservation mutation.
func (c *AvailabilityCache) Invalidate(ctx context.Context, restaurantID, date string) error {
	if !c.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyAvailabilityVersion, restaurantID, date)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*c.ttl+time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateRestaurant orphans every cached day of a restaurant after its
// hours or table counts change.
func (c *AvailabilityCache) InvalidateRestaurant(ctx context.Context, restaurantID string) error {
	if !c.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyAvailabilityGeneration, restaurantID)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*c.ttl+time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
