package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const monthKeyPrefix = "agenda:months:"

// MonthCounts caches the per-day appointment counts for a calendar month.
// It is purely an optimization for the admin calendar grid; every path
// tolerates a miss or an unavailable Redis by recomputing from storage.
type MonthCounts struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewMonthCounts(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *MonthCounts {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MonthCounts{rdb: rdb, ttl: ttl, logger: logger}
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%s%04d-%02d", monthKeyPrefix, year, int(month))
}

func (c *MonthCounts) Get(ctx context.Context, year int, month time.Month) (map[int]int, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, monthKey(year, month)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Warn("month cache read failed", "err", err)
		}
		return nil, false
	}
	var counts map[int]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false
	}
	return counts, true
}

func (c *MonthCounts) Set(ctx context.Context, year int, month time.Month, counts map[int]int) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, monthKey(year, month), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("month cache write failed", "err", err)
	}
}

// Invalidate drops every cached month. Appointment writes are rare enough
// that a full flush is simpler than tracking which months a record touches.
func (c *MonthCounts) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, monthKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		if c.logger != nil {
			c.logger.Warn("month cache scan failed", "err", err)
		}
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil && c.logger != nil {
		c.logger.Warn("month cache invalidate failed", "err", err)
	}
}
