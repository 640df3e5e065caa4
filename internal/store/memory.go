package store

import (
	"context"
	"sync"

	"github.com/SeelanGov/thandi/internal/model"
)

// MemoryStore is an in-process store over preloaded chunks with embeddings
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []model.Chunk
}

// NewMemoryStore creates a store holding chunks
func NewMemoryStore(chunks []model.Chunk) *MemoryStore {
	s := &MemoryStore{}
	s.Add(chunks...)
	return s
}

// Add appends chunks; used when loading fixtures
func (s *MemoryStore) Add(chunks ...model.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
}

// Len returns the number of stored chunks
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// SimilaritySearch scans every chunk
func (s *MemoryStore) SimilaritySearch(ctx context.Context, vec []float32, minSimilarity float64, limit int, filter *Filter) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []Hit
	for _, c := range s.chunks {
		if !matchesFilter(c, filter) {
			continue
		}
		sim := Cosine(vec, c.Embedding)
		if sim < minSimilarity {
			continue
		}
		hits = append(hits, Hit{Chunk: c, Similarity: sim})
	}
	return rankHits(hits, limit), nil
}

// FetchByAttribute returns chunks whose attribute equals value
func (s *MemoryStore) FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := attributeValue(model.Chunk{}, name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Chunk
	for _, c := range s.chunks {
		if v, _ := attributeValue(c, name); v == value {
			out = append(out, c)
		}
	}
	return orderFetched(out), nil
}
