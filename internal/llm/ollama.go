package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/util"
)

const (
	ollamaDefaultURL     = "http://localhost:11434"
	ollamaDefaultTimeout = 60 * time.Second // Local models are slower
)

// OllamaProvider calls a local Ollama server's /api/generate
type OllamaProvider struct {
	base   string
	client *http.Client
	call   jsonCall
	config model.ProviderConfig
}

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`

	// Only set on the final message
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

// NewOllamaProvider requires a model name; there is no sensible default
func NewOllamaProvider(config model.ProviderConfig) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, errors.New("ollama: model must be set (e.g. llama3.1:8b)")
	}
	if config.Timeout == 0 {
		config.Timeout = ollamaDefaultTimeout
	}
	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = ollamaDefaultURL
	}

	client := util.NewHTTPClient(0, config.HTTPProxy, config.HTTPSProxy, config.NoProxy)
	return &OllamaProvider{
		base:   base,
		client: client,
		call: jsonCall{
			provider: "ollama",
			client:   client,
			url:      base + "/api/generate",
			decode:   decodeOllamaError,
		},
		config: config,
	}, nil
}

func (p *OllamaProvider) Name() string  { return "ollama" }
func (p *OllamaProvider) Model() string { return p.config.Model }

// IsAvailable reports whether /api/tags answers 200
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, pickTimeout(req.Timeout, p.config.Timeout))
	defer cancel()

	in := generateRequest{
		Model:  p.config.Model,
		System: req.System,
		Prompt: req.Prompt,
		Options: generateOptions{
			Temperature: pickTemperature(req.Temperature, p.config.Temperature),
			NumPredict:  pickMaxTokens(req.MaxTokens, p.config.MaxTokens),
		},
	}

	var out generateResponse
	if err := p.call.post(ctx, in, &out); err != nil {
		return nil, err
	}

	answer := strings.TrimSpace(out.Response)
	if answer == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	// Some models report no counts
	tokens := out.PromptEvalCount + out.EvalCount
	if tokens == 0 {
		tokens = estimateTokens(req.System, req.Prompt, answer)
	}

	used := out.Model
	if used == "" {
		used = p.config.Model
	}
	return &CompletionResponse{Text: answer, Model: used, TokensUsed: tokens}, nil
}

func decodeOllamaError(body []byte) (string, string) {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return "", ""
	}
	return "", e.Error
}
