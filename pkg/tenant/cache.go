package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved tenants so the control-plane database is not hit
// on every request. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, slug string) (*Tenant, bool)
	Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration)
	Delete(ctx context.Context, slug string)
}

type memoryCacheEntry struct {
	tenant    *Tenant
	expiresAt time.Time
}

// DefaultCacheSize bounds the in-process cache when no explicit size is
// given.
const DefaultCacheSize = 1000

// memoryCache is the default in-process cache. Expired entries are dropped
// lazily on read. The entry count is bounded: when full, the entry with
// the oldest Set wins eviction, so a burst of lookups across many tenants
// cannot grow the map without limit.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	order   []string // Set order, oldest first
	maxSize int
}

// NewMemoryCache returns an in-process TTL cache bounded at
// DefaultCacheSize entries.
func NewMemoryCache() Cache {
	return NewMemoryCacheWithSize(DefaultCacheSize)
}

// NewMemoryCacheWithSize returns an in-process TTL cache holding at most
// maxSize entries.
func NewMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		maxSize: maxSize,
	}
}

func (c *memoryCache) Get(ctx context.Context, slug string) (*Tenant, bool) {
	c.mu.RLock()
	e, ok := c.entries[slug]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.Delete(ctx, slug)
		return nil, false
	}
	return e.tenant, true
}

func (c *memoryCache) Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[slug]; exists {
		c.removeFromOrder(slug)
	} else if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[slug] = memoryCacheEntry{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.order = append(c.order, slug)
}

func (c *memoryCache) Delete(ctx context.Context, slug string) {
	c.mu.Lock()
	delete(c.entries, slug)
	c.removeFromOrder(slug)
	c.mu.Unlock()
}

// removeFromOrder drops slug from the eviction queue. Callers hold c.mu.
func (c *memoryCache) removeFromOrder(slug string) {
	for i, s := range c.order {
		if s == slug {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// noopCache disables caching; every request hits the provider.
type noopCache struct{}

// NewNoopCache returns a cache that caches nothing. Useful in tests.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (*Tenant, bool)              { return nil, false }
func (noopCache) Set(context.Context, string, *Tenant, time.Duration)      {}
func (noopCache) Delete(context.Context, string)                           {}
