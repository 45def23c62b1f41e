package server

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"blueduck/internal/aggregator"
	"blueduck/internal/models"
)

// snapshot is one generated feed.
type snapshot struct {
	items       []models.NewsItem
	report      aggregator.Report
	generatedAt time.Time
}

// feedCache serves the last generated feed until it is older than ttl, then
// regenerates it on the next request. A zero ttl regenerates every time.
// Callers arriving while a run is in flight share that run's result.
type feedCache struct {
	mu       sync.Mutex
	group    singleflight.Group
	generate func(ctx context.Context) snapshot
	ttl      time.Duration
	now      func() time.Time
	last     *snapshot
}

func newFeedCache(generate func(ctx context.Context) snapshot, ttl time.Duration, now func() time.Time) *feedCache {
	return &feedCache{generate: generate, ttl: ttl, now: now}
}

// get returns the current snapshot. The run is detached from ctx: a caller
// that goes away must not cancel a feed other callers are waiting on. Each
// source is still bounded by its own timeout. An empty feed is served but
// not kept.
func (c *feedCache) get(ctx context.Context) snapshot {
	if snap, ok := c.fresh(); ok {
		return snap
	}

	v, _, _ := c.group.Do("feed", func() (any, error) {
		snap := c.generate(context.WithoutCancel(ctx))
		snap.generatedAt = c.now()

		if len(snap.items) > 0 {
			c.mu.Lock()
			c.last = &snap
			c.mu.Unlock()
		}

		return snap, nil
	})

	return v.(snapshot)
}

func (c *feedCache) fresh() (snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil || c.ttl <= 0 || c.now().Sub(c.last.generatedAt) >= c.ttl {
		return snapshot{}, false
	}

	return *c.last, true
}
