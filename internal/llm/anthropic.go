package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/util"
)

const (
	anthropicDefaultURL   = "https://api.anthropic.com"
	anthropicDefaultModel = "claude-3-5-haiku-latest"
	anthropicVersion      = "2023-06-01"
)

// AnthropicProvider calls the Anthropic Messages API
type AnthropicProvider struct {
	call   jsonCall
	config model.ProviderConfig
}

type messagesRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"`
	Messages    []messageParam `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider requires an API key; model and base URL default
func NewAnthropicProvider(config model.ProviderConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if config.Model == "" {
		config.Model = anthropicDefaultModel
	}
	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = anthropicDefaultURL
	}

	return &AnthropicProvider{
		call: jsonCall{
			provider: "anthropic",
			client:   util.NewHTTPClient(0, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			url:      base + "/v1/messages",
			headers: map[string]string{
				"x-api-key":         config.APIKey,
				"anthropic-version": anthropicVersion,
			},
			decode: decodeAnthropicError,
		},
		config: config,
	}, nil
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.config.Model }

// IsAvailable sends a one-token message; any 2xx counts
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	ping := messagesRequest{
		Model:     p.config.Model,
		MaxTokens: 1,
		Messages:  []messageParam{{Role: "user", Content: "ping"}},
	}
	var out messagesResponse
	return p.call.post(ctx, ping, &out) == nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, pickTimeout(req.Timeout, p.config.Timeout))
	defer cancel()

	in := messagesRequest{
		Model:       p.config.Model,
		MaxTokens:   pickMaxTokens(req.MaxTokens, p.config.MaxTokens),
		System:      req.System,
		Messages:    []messageParam{{Role: "user", Content: req.Prompt}},
		Temperature: pickTemperature(req.Temperature, p.config.Temperature),
	}

	var out messagesResponse
	if err := p.call.post(ctx, in, &out); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	used := out.Model
	if used == "" {
		used = p.config.Model
	}
	return &CompletionResponse{
		Text:       answer,
		Model:      used,
		TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
	}, nil
}

func decodeAnthropicError(body []byte) (string, string) {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return "", ""
	}
	return e.Error.Type, e.Error.Message
}
