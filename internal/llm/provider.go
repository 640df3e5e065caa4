package llm

import (
	"context"
	"time"
)

// Provider defines the interface for completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the configured model identifier
	Model() string

	// Complete sends one system + user prompt and returns the generated text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion
type CompletionRequest struct {
	// System carries the non-negotiable instructions
	System string

	// Prompt is the user turn: question, context and requirements
	Prompt string

	// MaxTokens limits the response length; zero uses the configured value
	MaxTokens int

	// Temperature overrides the configured sampling temperature when non-nil
	Temperature *float64

	// Timeout overrides the configured per-call timeout when positive
	Timeout time.Duration
}

// CompletionResponse contains the provider output
type CompletionResponse struct {
	// Text is the generated answer
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

const (
	defaultMaxTokens   = 1500
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.3
)

func pickMaxTokens(req, configured int) int {
	if req > 0 {
		return req
	}
	if configured > 0 {
		return configured
	}
	return defaultMaxTokens
}

func pickTemperature(req *float64, configured float64) float64 {
	if req != nil {
		return *req
	}
	if configured > 0 {
		return configured
	}
	return defaultTemperature
}

func pickTimeout(req, configured time.Duration) time.Duration {
	if req > 0 {
		return req
	}
	if configured > 0 {
		return configured
	}
	return defaultTimeout
}

// estimateTokens approximates token usage when a provider omits counts
func estimateTokens(texts ...string) int {
	n := 0
	for _, t := range texts {
		n += len(t)
	}
	return n / 4
}
