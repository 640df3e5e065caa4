package llm

import (
	"fmt"
	"strings"

	"github.com/SeelanGov/thandi/internal/model"
)

// NewProvider creates a provider from configuration. An empty provider name
// returns nil with no error: that slot is disabled.
func NewProvider(cfg model.ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)

	case "anthropic", "claude":
		return NewAnthropicProvider(cfg)

	case "gemini", "genai", "google":
		return NewGeminiProvider(cfg)

	case "ollama":
		return NewOllamaProvider(cfg)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, gemini, ollama)", cfg.Provider)
	}
}
