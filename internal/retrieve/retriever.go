// Package retrieve wraps a knowledge store with per-call timeouts and retries.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/store"
)

const defaultBackoff = 100 * time.Millisecond

// retrieveSleepFunc waits between retries (injectable for tests)
var retrieveSleepFunc = sleepContext

// Retriever issues store calls with a per-call timeout and bounded retries
type Retriever struct {
	store   store.KnowledgeStore
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  logging.Logger
}

// New creates a retriever over s
func New(s store.KnowledgeStore, cfg model.RetrievalConfig, logger logging.Logger) *Retriever {
	return &Retriever{
		store:   s,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		backoff: defaultBackoff,
		logger:  logging.OrNop(logger).With(map[string]interface{}{"component": "retriever"}),
	}
}

// Search runs a similarity search. No matches is an empty slice and a nil
// error; transport failures surface as RETRIEVAL_FAILED.
func (r *Retriever) Search(ctx context.Context, vec []float32, threshold float64, limit int, filter *store.Filter) ([]store.Hit, error) {
	var hits []store.Hit
	err := r.do(ctx, "similarity_search", func(ctx context.Context) error {
		var err error
		hits, err = r.store.SimilaritySearch(ctx, vec, threshold, limit, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []store.Hit{}
	}
	return hits, nil
}

// FetchByAttribute returns every chunk whose attribute equals value
func (r *Retriever) FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.do(ctx, "fetch_by_attribute", func(ctx context.Context) error {
		var err error
		chunks, err = r.store.FetchByAttribute(ctx, name, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []model.Chunk{}
	}
	return chunks, nil
}

// do runs call with a timeout per attempt and exponential backoff between attempts
func (r *Retriever) do(ctx context.Context, op string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		lastErr = r.attempt(ctx, call)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(lastErr, store.ErrUnsupportedAttribute) {
			break
		}
		if attempt < r.retries {
			backoff := r.backoff * time.Duration(1<<uint(attempt))
			r.logger.Warn("Retrying knowledge store call", map[string]interface{}{
				"op":      op,
				"attempt": attempt + 1,
				"backoff": backoff.String(),
				"error":   lastErr.Error(),
			})
			if err := retrieveSleepFunc(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}
	return model.NewError(model.CodeRetrievalFailed, fmt.Sprintf("knowledge store %s failed", op), lastErr)
}

func (r *Retriever) attempt(ctx context.Context, call func(context.Context) error) error {
	if r.timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return call(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
