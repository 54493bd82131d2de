// Package cache provides a TTL-bounded in-memory cache used by the vault
// facade to avoid repeating full-vault scans (backlinks, tag search).
package cache

import (
	"context"
	"sync"
	"time"
)

// Config holds the cache settings.
type Config struct {
	// DefaultTTL is the time-to-live applied by Set.
	DefaultTTL time.Duration
	// CleanupInterval is how often the janitor removes expired items.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; 0 means unbounded.
	MaxItems int
	// OnEviction, if set, is invoked for items removed by expiry or size pressure.
	OnEviction func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL expiry and a background
// cleanup goroutine. Close must be called to stop the janitor.
type Cache struct {
	mu     sync.RWMutex
	config Config
	items  map[string]item
	done   chan struct{}
	once   sync.Once
}

// New creates a cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	c := &Cache{
		config: config,
		items:  make(map[string]item),
		done:   make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	now := time.Now()
	c.mu.Lock()
	var evicted map[string]any
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			if c.config.OnEviction != nil {
				if evicted == nil {
					evicted = make(map[string]any)
				}
				evicted[key] = it.value
			}
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
	for key, value := range evicted {
		c.config.OnEviction(key, value)
	}
}

// Set stores a value with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		if _, exists := c.items[key]; !exists {
			// Evict the entry closest to expiry to make room.
			var oldestKey string
			var oldestAt time.Time
			for k, it := range c.items {
				if oldestKey == "" || it.expiresAt.Before(oldestAt) {
					oldestKey = k
					oldestAt = it.expiresAt
				}
			}
			if oldestKey != "" {
				if c.config.OnEviction != nil {
					c.config.OnEviction(oldestKey, c.items[oldestKey].value)
				}
				delete(c.items, oldestKey)
			}
		}
	}
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the cached value for key, or false if absent or expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry between
		// the read unlock and here; only delete if it is still expired.
		if current, ok := c.items[key]; ok && time.Now().After(current.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

// Delete removes a single key.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}

// Len returns the number of live entries, counting not-yet-collected expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine. The cache remains usable but no longer
// collects expired entries in the background.
func (c *Cache) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}
