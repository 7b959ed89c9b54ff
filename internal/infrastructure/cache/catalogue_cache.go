// Package cache holds the idempotency stores (C2) and the catalogue
// snapshot cache (C3).
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

// CatalogueFetcher loads the full catalogue from the external store. It is
// satisfied by internal/infrastructure/persistence's item repositories.
type CatalogueFetcher interface {
	FindAll(ctx context.Context) ([]*inventory.Item, error)
}

// CatalogueCache is a short-TTL snapshot of catalogue items for duplicate
// scans (C3, §4.3). The chat handler reads it to feed the duplicate engine
// and to serve stock searches and item views; the movement executor never
// reads it and always reads the store directly.
type CatalogueCache struct {
	fetcher CatalogueFetcher
	ttl     time.Duration
	logger  *zap.Logger

	mu        sync.RWMutex
	snapshot  []*inventory.Item
	fetchedAt time.Time
	hasData   bool
}

// NewCatalogueCache constructs a cache with the given refresh TTL (default
// 5 minutes per §4.3 if ttl <= 0).
func NewCatalogueCache(fetcher CatalogueFetcher, ttl time.Duration, logger *zap.Logger) *CatalogueCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogueCache{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the current snapshot, refetching on miss or expiry. On fetch
// failure with a stale snapshot present, it returns the stale snapshot and
// logs a warning, per §4.3.
func (c *CatalogueCache) Get(ctx context.Context) ([]*inventory.Item, error) {
	c.mu.RLock()
	fresh := c.hasData && time.Since(c.fetchedAt) < c.ttl
	snapshot := c.snapshot
	c.mu.RUnlock()

	if fresh {
		return snapshot, nil
	}

	items, err := c.fetcher.FindAll(ctx)
	if err != nil {
		c.mu.RLock()
		hadData := c.hasData
		stale := c.snapshot
		c.mu.RUnlock()
		if hadData {
			c.logger.Warn("catalogue refresh failed, serving stale snapshot",
				zap.Error(err), zap.Time("fetched_at", c.fetchedAt))
			return stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.snapshot = items
	c.fetchedAt = time.Now()
	c.hasData = true
	c.mu.Unlock()

	return items, nil
}

// Invalidate forces the next Get to refetch regardless of TTL.
func (c *CatalogueCache) Invalidate() {
	c.mu.Lock()
	c.hasData = false
	c.mu.Unlock()
}

// Age reports how long ago the current snapshot was fetched, or zero if
// there is no snapshot yet.
func (c *CatalogueCache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasData {
		return 0
	}
	return time.Since(c.fetchedAt)
}
