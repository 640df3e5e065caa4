package cache

import (
	"context"
	"time"
)

// LayeredCache implements a two-tier cache (memory + shared)
type LayeredCache struct {
	memory Cache
	shared Cache
}

// NewLayeredCache creates a layered cache over the given tiers
func NewLayeredCache(memory, shared Cache) *LayeredCache {
	return &LayeredCache{
		memory: memory,
		shared: shared,
	}
}

// Get checks memory first, then the shared tier
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.memory.Get(ctx, key); found {
		return val, true
	}

	if val, found := c.shared.Get(ctx, key); found {
		// Promote to memory with its default TTL
		_ = c.memory.Set(ctx, key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both tiers
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, value, ttl)
}

// Delete removes a value from both tiers
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.memory.Delete(ctx, key)
	return c.shared.Delete(ctx, key)
}

// Clear removes all values from both tiers
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.memory.Clear(ctx)
	return c.shared.Clear(ctx)
}
