package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SeelanGov/thandi/internal/cache"
	"github.com/SeelanGov/thandi/internal/metrics"
)

// CachedEmbedder memoises embeddings keyed by engine name and exact text
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps next with c; ttl 0 uses the cache default
func NewCachedEmbedder(next Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: c, ttl: ttl}
}

// Embed returns a cached vector or computes and stores one. Cache write
// failures are ignored; the computed vector is still returned.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("embedding", e.next.Name(), text)

	if raw, ok := e.cache.Get(ctx, key); ok {
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return vec, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(vec); err == nil {
		_ = e.cache.Set(ctx, key, raw, e.ttl)
	}
	return vec, nil
}

// Dimensions delegates to the wrapped embedder
func (e *CachedEmbedder) Dimensions() int {
	return e.next.Dimensions()
}

// Name delegates to the wrapped embedder
func (e *CachedEmbedder) Name() string {
	return e.next.Name()
}
