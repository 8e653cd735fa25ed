package connector

import (
	"context"
	"sync"
	"time"

	"github.com/workscorehq/workscore/internal/types"
)

type cacheItem struct {
	vars      types.ActivityVariables
	expiresAt time.Time
}

func (c cacheItem) expired() bool {
	return time.Now().After(c.expiresAt)
}

// Cached memoizes fetched variables per (user, period) with a TTL, so a
// re-run over the same period within the window does not hammer the
// collection layer. Only successful fetches are cached.
type Cached struct {
	inner Connector
	ttl   time.Duration

	mu    sync.RWMutex
	items map[string]cacheItem
}

// NewCached wraps inner with a TTL cache.
func NewCached(inner Connector, ttl time.Duration) *Cached {
	c := &Cached{
		inner: inner,
		ttl:   ttl,
		items: make(map[string]cacheItem),
	}
	go c.cleanup()
	return c
}

// FetchActivity implements Connector.
func (c *Cached) FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
	k := key(userID, period)

	c.mu.RLock()
	item, ok := c.items[k]
	c.mu.RUnlock()
	if ok && !item.expired() {
		return item.vars, nil
	}

	vars, err := c.inner.FetchActivity(ctx, userID, period)
	if err != nil {
		return types.ActivityVariables{}, err
	}

	c.mu.Lock()
	c.items[k] = cacheItem{vars: vars, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return vars, nil
}

// Len reports the number of cached entries, expired ones included.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cached) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for k, item := range c.items {
			if item.expired() {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
