package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry[T any] struct {
	data      T
	expiresAt time.Time
}

func (e *cacheEntry[T]) valid(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// TTL is a keyed read-through cache. Concurrent misses for the same key
// share a single load. A zero TTL disables caching entirely.
type TTL[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*cacheEntry[T]
	group singleflight.Group
}

// New creates a cache whose entries live for ttl.
func New[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*cacheEntry[T]),
	}
}

// Enabled reports whether values are retained at all.
func (c *TTL[T]) Enabled() bool { return c.ttl > 0 }

// Get returns the cached value for key if it has not expired.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.items[key]; ok && e.valid(c.now()) {
		return e.data, true
	}
	var zero T
	return zero, false
}

// Set stores value under key.
func (c *TTL[T]) Set(key string, value T) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.items[key] = &cacheEntry[T]{data: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Errors are never cached. hit reports whether load was skipped.
//
// A shared load runs detached from the cancellation of the caller that
// started it, so one caller giving up does not fail the others waiting on
// the same key. Each caller still returns as soon as its own ctx is done.
// load must bound its own duration.
func (c *TTL[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (value T, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	if !c.Enabled() {
		v, err := load(ctx)
		return v, false, err
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(T), false, nil
	}
}

// Delete removes key.
func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *TTL[T]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*cacheEntry[T])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
