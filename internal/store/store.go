// Package store provides read-only access to the vector-indexed knowledge base.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/SeelanGov/thandi/internal/model"
)

// ErrUnsupportedAttribute is returned for attribute names a backend cannot filter on
var ErrUnsupportedAttribute = errors.New("unsupported attribute")

// Filter restricts a similarity search; zero fields are ignored
type Filter struct {
	Category string
	CareerID string
}

// Hit is one similarity-search result
type Hit struct {
	Chunk      model.Chunk
	Similarity float64 // Cosine similarity in [-1, 1]
}

// KnowledgeStore is the remote vector store contract
type KnowledgeStore interface {
	// SimilaritySearch returns up to limit chunks whose similarity to vec is at
	// least minSimilarity, best first. A nil filter means unrestricted.
	SimilaritySearch(ctx context.Context, vec []float32, minSimilarity float64, limit int, filter *Filter) ([]Hit, error)

	// FetchByAttribute returns every chunk whose attribute equals value, priority entries first
	FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error)
}

// attributeValue reads a filterable attribute from a chunk
func attributeValue(c model.Chunk, name string) (string, error) {
	switch name {
	case model.AttrCareerID:
		return c.Attributes.CareerID, nil
	case model.AttrCategory:
		return c.Category, nil
	case model.AttrSource:
		return c.Source, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAttribute, name)
}

func matchesFilter(c model.Chunk, f *Filter) bool {
	if f == nil {
		return true
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.CareerID != "" && c.Attributes.CareerID != f.CareerID {
		return false
	}
	return true
}

// rankHits orders hits best first with a stable id tie-break and truncates to limit
func rankHits(hits []Hit, limit int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// orderFetched puts priority chunks first, then by id
func orderFetched(chunks []model.Chunk) []model.Chunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Attributes.Priority != chunks[j].Attributes.Priority {
			return chunks[i].Attributes.Priority
		}
		return chunks[i].ID < chunks[j].ID
	})
	return chunks
}
