package analytics

import (
	"sync"
	"time"
)

// statsCache holds the last per-address summary for a short TTL
type statsCache struct {
	mu          sync.RWMutex
	stats       []Stats
	lastRefresh time.Time
	ttl         time.Duration
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{ttl: ttl}
}

// get returns the cached stats if present and fresh
func (c *statsCache) get() ([]Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastRefresh.IsZero() || time.Since(c.lastRefresh) > c.ttl {
		return nil, false
	}
	return c.stats, true
}

func (c *statsCache) set(stats []Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = stats
	c.lastRefresh = time.Now()
}

// invalidate drops the cached summary after any write
func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = nil
	c.lastRefresh = time.Time{}
}
