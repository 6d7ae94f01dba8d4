package indexer

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// Builder produces a gallery index for a source directory.
type Builder interface {
	Build(ctx context.Context, sourceDir string) (Index, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, sourceDir string) (Index, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, sourceDir string) (Index, error) {
	return f(ctx, sourceDir)
}

// Cache memoizes successful builds per source directory for the life of the
// process. Entries never expire; Invalidate and Reset are the only ways to
// drop them. Concurrent misses for the same directory share one build.
type Cache struct {
	builder Builder
	store   *cache.Cache
	group   singleflight.Group

	// generations lets Invalidate discard builds already in flight
	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64
}

// NewCache returns an empty cache in front of builder.
func NewCache(builder Builder) *Cache {
	return &Cache{
		builder: builder,
		store:   cache.New(cache.NoExpiration, 0),
		gens:    make(map[string]uint64),
	}
}

// Key returns the cache key for a source directory.
func Key(sourceDir string) string {
	return filepath.Clean(sourceDir)
}

// Get returns the memoized index for sourceDir, building it on a miss. A
// failed build is not stored, so the next call retries. The build runs
// detached from ctx cancellation because its result is shared by every
// waiting caller.
func (c *Cache) Get(ctx context.Context, sourceDir string) (Index, error) {
	key := Key(sourceDir)

	if idx, ok := c.lookup(key); ok {
		metrics.GalleryCacheLookups.WithLabelValues("hit").Inc()
		logging.Debug("Gallery cache hit for %s", key)
		return idx, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if idx, ok := c.lookup(key); ok {
			return idx, nil
		}

		gen := c.generation(key)
		idx, err := c.builder.Build(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key]+c.epoch == gen {
			c.store.Set(key, idx, cache.NoExpiration)
		} else {
			logging.Debug("Discarding gallery build for %s invalidated while running", key)
		}
		c.mu.Unlock()
		metrics.GalleryCacheEntries.Set(float64(c.store.ItemCount()))
		return idx, nil
	})

	if shared {
		metrics.GalleryCacheLookups.WithLabelValues("shared").Inc()
	} else {
		metrics.GalleryCacheLookups.WithLabelValues("miss").Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(Index), nil
}

// Invalidate drops the entry for sourceDir. A build for it that is already
// running still answers its waiters but is not stored.
func (c *Cache) Invalidate(sourceDir string) {
	key := Key(sourceDir)

	c.mu.Lock()
	c.gens[key]++
	c.store.Delete(key)
	c.mu.Unlock()
	c.group.Forget(key)

	metrics.GalleryCacheInvalidations.Inc()
	metrics.GalleryCacheEntries.Set(float64(c.store.ItemCount()))
	logging.Info("Gallery cache invalidated for %s", key)
}

// Reset drops every entry. As with Invalidate, builds already running are
// not stored.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.epoch++
	c.store.Flush()
	c.mu.Unlock()

	metrics.GalleryCacheInvalidations.Inc()
	metrics.GalleryCacheEntries.Set(0)
	logging.Info("Gallery cache reset")
}

// Len returns the number of memoized indexes.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Stats implements metrics.StatsProvider.
func (c *Cache) Stats() metrics.Stats {
	items := c.store.Items()
	stats := metrics.Stats{CachedGalleries: len(items)}
	for _, item := range items {
		if idx, ok := item.Object.(Index); ok {
			stats.CachedImages += idx.Len()
		}
	}
	return stats
}

func (c *Cache) lookup(key string) (Index, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.(Index), true
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key] + c.epoch
}
