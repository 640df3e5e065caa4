package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// errorDecoder pulls a type and message out of a provider's error body.
// It returns an empty message when the body is not in the provider's format.
type errorDecoder func(body []byte) (errType, message string)

// jsonCall is one POST of a JSON payload to a provider endpoint
type jsonCall struct {
	provider string
	client   *http.Client
	url      string
	headers  map[string]string
	decode   errorDecoder
}

// post sends in and decodes a 200 answer into out. Any other status becomes
// an *APIError so IsRetryable can classify it.
func (c jsonCall) post(ctx context.Context, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Message: string(raw)}
		if c.decode != nil {
			if typ, msg := c.decode(raw); msg != "" {
				apiErr.Type, apiErr.Message = typ, msg
			}
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}
