package worker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/SeelanGov/thandi/internal/llm"
)

// Limiter keeps one token bucket per key, typically a provider name
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until key may make one call or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Allow reports whether key may make one call now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// SetRate overrides the rate for one key
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[key] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if b, ok := l.limiters[key]; ok {
		return b
	}
	b = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = b
	return b
}

// RateLimitedProvider waits on a shared Limiter before every completion, so
// concurrent batch requests cannot exceed a provider's quota
type RateLimitedProvider struct {
	llm.Provider
	limiter *Limiter
}

// NewRateLimitedProvider wraps p; a nil limiter returns p unchanged
func NewRateLimitedProvider(p llm.Provider, limiter *Limiter) llm.Provider {
	if p == nil || limiter == nil {
		return p
	}
	return &RateLimitedProvider{Provider: p, limiter: limiter}
}

// Complete waits for a token keyed by provider name, then delegates
func (r *RateLimitedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := r.limiter.Wait(ctx, r.Name()); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", r.Name(), err)
	}
	return r.Provider.Complete(ctx, req)
}
