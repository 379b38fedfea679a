// Package modelcache caches live model listings fetched from vendor APIs.
// Listings change rarely but the endpoints are slow and rate-limited, so the
// cache serves each provider's listing for a TTL, collapses concurrent
// refreshes into one vendor call, and falls back to a stale listing when the
// vendor is down.
package modelcache

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a listing is served without refetching.
	DefaultTTL = 5 * time.Minute
	// staleGrace is how far past its TTL a listing may still be served
	// when a refresh fails. Beyond it the janitor drops the entry.
	staleGrace = time.Hour
)

// FetchFunc loads a provider's model listing from the vendor.
type FetchFunc func(ctx context.Context) ([]string, error)

type entry struct {
	ids       []string
	fetchedAt time.Time
}

type flight struct {
	done chan struct{}
	ids  []string
	err  error
}

// Cache is a TTL cache of model listings keyed by provider ID.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[string]*entry
	inflight map[string]*flight

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a cache with the given TTL (DefaultTTL when ttl <= 0) and starts
// its janitor. Call Close when done.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:      ttl,
		entries:  make(map[string]*entry),
		inflight: make(map[string]*flight),
		stop:     make(chan struct{}),
	}
	go c.janitor()
	return c
}

// GetOrFetch returns the cached listing for key, refreshing it through fetch
// when missing or past its TTL. Concurrent callers for the same key share one
// fetch. When the fetch fails and a listing not yet past the stale grace is
// still held, that listing is returned instead of the error.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) ([]string, error) {
	now := time.Now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Sub(e.fetchedAt) < c.ttl {
		ids := copyIDs(e.ids)
		c.mu.Unlock()
		return ids, nil
	}
	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return awaitFlight(ctx, fl)
	}
	fl := &flight{done: make(chan struct{})}
	c.inflight[key] = fl
	c.mu.Unlock()

	ids, err := fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		c.entries[key] = &entry{ids: copyIDs(ids), fetchedAt: time.Now()}
	} else if stale, ok := c.entries[key]; ok && time.Since(stale.fetchedAt) < c.ttl+staleGrace {
		ids, err = copyIDs(stale.ids), nil
	}
	fl.ids, fl.err = ids, err
	close(fl.done)
	c.mu.Unlock()

	return ids, err
}

// awaitFlight blocks until the in-progress fetch settles or ctx ends.
func awaitFlight(ctx context.Context, fl *flight) ([]string, error) {
	select {
	case <-fl.done:
		return copyIDs(fl.ids), fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached listing for key, forcing the next GetOrFetch to
// hit the vendor.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached listings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the janitor. Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// janitor drops entries too old to serve even as stale fallbacks.
func (c *Cache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-(c.ttl + staleGrace))
			c.mu.Lock()
			for key, e := range c.entries {
				if e.fetchedAt.Before(cutoff) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func copyIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
