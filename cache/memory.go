package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Stats counts cache activity since construction.
type Stats struct {
	Hits   uint64
	Loads  uint64
	Errors uint64
}

// ResultCache is an in-memory, single-flight TTL cache.
//
// Cached reads take a shared lock only. On a miss or after expiry exactly
// one caller per key runs the loader while the others block until it
// finishes (block-until-fresh; no stale value is served). Loads for
// different keys never wait on each other.
type ResultCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry[V]
	policy  Policy
	group   singleflight.Group
	now     func() time.Time

	hits   atomic.Uint64
	loads  atomic.Uint64
	errors atomic.Uint64
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Option configures a ResultCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewResultCache creates a cache with the given policy.
func NewResultCache[V any](policy Policy, opts ...Option) *ResultCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &ResultCache[V]{
		entries: make(map[string]*cacheEntry[V]),
		policy:  policy,
		now:     o.now,
	}
}

// Fetch returns the value cached under key or loads it.
func (c *ResultCache[V]) Fetch(ctx context.Context, key string, load Loader[V]) (V, error) {
	var zero V
	if err := ValidateKey(key); err != nil {
		return zero, err
	}
	if load == nil {
		return zero, ErrNilLoader
	}

	if v, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return v, nil
	}

	// The load outlives any single waiter, so it must not inherit cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A flight that finished just before this one started may have stored a value.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		c.loads.Add(1)
		v, err := load(loadCtx)
		if err != nil {
			c.errors.Add(1)
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrWaitAbandoned, ctx.Err())
	}
}

// Invalidate removes a value from the cache. Idempotent - no error on miss.
// A load already in flight still stores its result.
func (c *ResultCache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll removes every value from the cache.
func (c *ResultCache[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry[V])
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *ResultCache[V]) Len() int {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the activity counters.
func (c *ResultCache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Loads:  c.loads.Load(),
		Errors: c.errors.Load(),
	}
}

// Policy returns the cache policy.
func (c *ResultCache[V]) Policy() Policy {
	return c.policy
}

func (c *ResultCache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *ResultCache[V]) store(key string, v V) {
	if !c.policy.ShouldCache() {
		return
	}
	ttl := c.policy.EffectiveTTL(0)

	c.mu.Lock()
	c.entries[key] = &cacheEntry[V]{
		value:     v,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

// Ensure ResultCache implements Fetcher
var _ Fetcher[int] = (*ResultCache[int])(nil)
