package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ItemNamespace prefixes every cached view derived from items.
// Invalidation removes the whole namespace.
const ItemNamespace = "udm:items:"

const DefaultTTL = 60 * time.Second

// ItemListKey normalizes a list query. Every parameter affecting the result
// set is part of the key.
func ItemListKey(skip, limit int) string {
	return fmt.Sprintf("%slist:skip=%d:limit=%d", ItemNamespace, skip, limit)
}

// ItemStatsKey names a cached aggregate over items, e.g. "dashboard".
func ItemStatsKey(name string) string {
	return ItemNamespace + "stats:" + name
}

// ListCache is the read-through, write-invalidate cache in front of item
// queries. A nil backend disables caching; backend failures are logged and
// never returned.
type ListCache struct {
	backend    CacheService
	ttl        time.Duration
	log        zerolog.Logger
	flight     singleflight.Group
	generation atomic.Uint64
}

func NewListCache(backend CacheService, ttl time.Duration, log zerolog.Logger) *ListCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ListCache{backend: backend, ttl: ttl, log: log.With().Str("component", "list_cache").Logger()}
}

// loadTimeout bounds a shared load, which no longer follows any single caller's context.
const loadTimeout = 30 * time.Second

// GetOrLoad returns the cached value for key or runs loader, stores its result
// for the TTL and returns it. Concurrent misses on one key share a single load.
// A load that overlaps an invalidation is returned but not written back.
// A caller whose ctx ends stops waiting; the shared load keeps running for the others.
func GetOrLoad[T any](ctx context.Context, c *ListCache, key string, loader func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return loader(ctx)
	}
	if cached, ok := lookup[T](ctx, c, key); ok {
		return cached, nil
	}

	gen := c.generation.Load()
	ch := c.flight.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		loaded, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.store(loadCtx, key, loaded)
		}
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func lookup[T any](ctx context.Context, c *ListCache, key string) (T, bool) {
	var zero T
	if c == nil || c.backend == nil {
		return zero, false
	}

	data, err := c.backend.GetBytes(ctx, key)
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed, reading from store")
		return zero, false
	}
	if data == nil {
		cacheRequests.WithLabelValues("miss").Inc()
		return zero, false
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		cacheErrors.WithLabelValues("decode").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable, reading from store")
		return zero, false
	}
	cacheRequests.WithLabelValues("hit").Inc()
	return out, true
}

func (c *ListCache) store(ctx context.Context, key string, value interface{}) {
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry not encodable")
		return
	}
	if err := c.backend.SetBytes(ctx, key, data, c.ttl); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// InvalidateItemLists drops every cached item view. It is called after a
// successful commit and never fails the caller.
func (c *ListCache) InvalidateItemLists(ctx context.Context) {
	if c == nil {
		return
	}
	c.generation.Add(1)
	cacheInvalidations.Inc()
	if c.backend == nil {
		return
	}

	// The caller's request may already be finishing; invalidation still runs.
	ctx = context.WithoutCancel(ctx)
	n, err := c.backend.DeleteByPrefix(ctx, ItemNamespace)
	if err != nil {
		cacheErrors.WithLabelValues("invalidate").Inc()
		c.log.Warn().Err(err).Str("prefix", ItemNamespace).Msg("cache invalidation skipped")
		return
	}
	c.log.Debug().Int("keys", n).Msg("item caches invalidated")
}

// Ping reports backend reachability for health checks.
func (c *ListCache) Ping(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return fmt.Errorf("cache disabled")
	}
	return c.backend.Ping(ctx)
}
