// Package embedding turns query text into vectors for similarity search.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/SeelanGov/thandi/internal/model"
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates the embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of embeddings
	Dimensions() int

	// Name returns the engine name, e.g. "openai:text-embedding-3-small"
	Name() string
}

// New creates an embedder from configuration
func New(cfg model.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "gemini", "genai", "google":
		return NewGenAIEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg)
	case "hash", "":
		return NewHashEmbedder(cfg.Dimensions), nil
	}
	return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, gemini, ollama, hash)", cfg.Provider)
}
