package worker

import (
	"context"
	"testing"
	"time"

	"github.com/SeelanGov/thandi/internal/llm"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("Expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 1 {
		t.Errorf("Expected burst 1 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)

	for i := 0; i < 100; i++ {
		if !limiter.Allow("openai") {
			t.Fatalf("Expected unlimited calls, call %d refused", i)
		}
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("openai") {
		t.Fatal("Expected first openai call allowed")
	}
	if limiter.Allow("openai") {
		t.Error("Expected second openai call refused within the same second")
	}
	if !limiter.Allow("anthropic") {
		t.Error("Expected anthropic to have its own bucket")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	_ = limiter.Allow("openai")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("Expected Wait to fail before the next token is due")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetRate("ollama", 1000, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("ollama") {
			t.Fatalf("Expected burst of 10, call %d refused", i)
		}
	}
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string                     { return "openai" }
func (p *countingProvider) Model() string                    { return "gpt-test" }
func (p *countingProvider) IsAvailable(context.Context) bool { return true }

func (p *countingProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	return &llm.CompletionResponse{Text: "ok"}, nil
}

func TestRateLimitedProvider(t *testing.T) {
	inner := &countingProvider{}
	limiter := NewLimiter(0.01, 1)
	p := NewRateLimitedProvider(inner, limiter)

	if _, err := p.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
		t.Fatalf("First call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Complete(ctx, llm.CompletionRequest{})
	if err == nil {
		t.Fatal("Expected the second call to be throttled")
	}
	if inner.calls != 1 {
		t.Errorf("Expected 1 delegated call, got %d", inner.calls)
	}
	if p.Name() != "openai" || p.Model() != "gpt-test" {
		t.Error("Expected name and model to pass through")
	}
}

func TestNewRateLimitedProvider_NilLimiter(t *testing.T) {
	inner := &countingProvider{}
	if p := NewRateLimitedProvider(inner, nil); p != llm.Provider(inner) {
		t.Error("Expected the provider unchanged without a limiter")
	}
	var none llm.Provider
	if NewRateLimitedProvider(none, NewLimiter(1, 1)) != nil {
		t.Error("Expected nil for a nil provider")
	}
}
