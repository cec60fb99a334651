// Package cache keeps dashboard projections in Redis. The ledger stays the
// source of truth; a miss or a Redis failure only costs a recompute.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
)

const defaultTTL = 5 * time.Minute

// NewClient parses a redis:// URL.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

type Dashboard struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewDashboard(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Dashboard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Dashboard{client: client, ttl: ttl, logger: logger.With("component", "dashboard_cache")}
}

func dashboardKey(parentID int64) string {
	return fmt.Sprintf("kidbank:dashboard:%d", parentID)
}

func (d *Dashboard) Get(ctx context.Context, parentID int64) (*model.DashboardStats, bool) {
	val, err := d.client.Get(ctx, dashboardKey(parentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		d.logger.Warn("cache read failed", "parent_id", parentID, "error", err)
		return nil, false
	}

	var stats model.DashboardStats
	if err := json.Unmarshal(val, &stats); err != nil {
		d.logger.Warn("cache entry corrupt", "parent_id", parentID, "error", err)
		return nil, false
	}
	return &stats, true
}

func (d *Dashboard) Set(ctx context.Context, stats *model.DashboardStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		d.logger.Error("marshal dashboard", "error", err)
		return
	}
	if err := d.client.Set(ctx, dashboardKey(stats.ParentID), data, d.ttl).Err(); err != nil {
		d.logger.Warn("cache write failed", "parent_id", stats.ParentID, "error", err)
	}
}

// Invalidate drops a family's cached projection.
func (d *Dashboard) Invalidate(ctx context.Context, parentID int64) error {
	if err := d.client.Del(ctx, dashboardKey(parentID)).Err(); err != nil {
		return fmt.Errorf("invalidate dashboard: %w", err)
	}
	return nil
}

func (d *Dashboard) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// InvalidationSink evicts the family's dashboard on every notice, since
// every notice follows a committed ledger change.
type InvalidationSink struct {
	cache *Dashboard
}

func NewInvalidationSink(cache *Dashboard) *InvalidationSink {
	return &InvalidationSink{cache: cache}
}

func (s *InvalidationSink) Name() string { return "dashboard_cache" }

func (s *InvalidationSink) Deliver(ctx context.Context, n notify.Notice) error {
	if n.ParentID == 0 {
		return nil
	}
	return s.cache.Invalidate(ctx, n.ParentID)
}

var _ notify.Sink = (*InvalidationSink)(nil)
