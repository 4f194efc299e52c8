// Package querycache memoizes backend reads outside the transport layer.
//
// Entries are keyed by endpoint and parameters ("GET /notes?limit=20&skip=0"),
// expire after a TTL and are dropped by prefix when a mutation may have changed
// them. Concurrent identical reads share one backend call.
package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cache is an externally owned query cache, safe for concurrent use. Cached
// values are shared between callers and must not be modified.
type Cache struct {
	lru   *expirable.LRU[string, any]
	group singleflight.Group
	gen   atomic.Uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Key builds the cache key of a request.
func Key(method, path string) string {
	return method + " " + path
}

// Fetch returns the cached value for key or calls load once, however many
// callers ask at the same time. Errors are never cached. A result whose load
// overlapped an Invalidate is returned but not stored, and reads issued after
// an Invalidate never join a load that started before it.
//
// The shared load runs detached from any one caller's cancellation; each
// caller stops waiting when its own ctx is done.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.lru.Get(key); ok {
		if out, ok := v.(T); ok {
			c.hits.Add(1)
			return out, nil
		}
	}
	c.misses.Add(1)

	gen := c.gen.Load()
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10)+"|"+key, func() (any, error) {
		out, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			c.lru.Add(key, out)
		}
		return out, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// Invalidate drops every entry whose key starts with prefix and returns how
// many were dropped.
func (c *Cache) Invalidate(prefix string) int {
	c.gen.Add(1)
	n := 0
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) && c.lru.Remove(k) {
			n++
		}
	}
	return n
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.gen.Add(1)
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats holds hit and miss counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
