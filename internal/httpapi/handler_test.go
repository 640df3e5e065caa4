package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
)

type stubGuider struct {
	res      *model.GenerationResult
	err      error
	got      model.Query
	deadline bool
}

func (g *stubGuider) Guide(ctx context.Context, q model.Query) (*model.GenerationResult, error) {
	g.got = q
	_, g.deadline = ctx.Deadline()
	return g.res, g.err
}

func newTestRouter(t *testing.T, g Guider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Guider: g,
		Server: model.ServerConfig{AllowedOrigins: []string{"https://app.thandi.example"}, RequestTimeout: time.Minute},
		Logger: logging.NewTestLogger(t),
	})
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/guidance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGuide_Success(t *testing.T) {
	g := &stubGuider{res: &model.GenerationResult{
		Success:    true,
		Answer:     "Consider nursing.",
		Validation: model.ValidationReport{Passed: true},
		Meta:       model.GenerationMeta{RequestID: "req-1", Provider: "openai", Attempts: 1},
	}}
	r := newTestRouter(t, g)

	rec := post(r, `{"questionText": "What careers use biology?", "profile": {"grade": 11}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body GuidanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.Success || body.AnswerText != "Consider nursing." || body.Metadata.RequestID != "req-1" {
		t.Errorf("Unexpected body %+v", body)
	}
	if rec.Header().Get("X-Request-ID") != "req-1" {
		t.Errorf("Expected X-Request-ID req-1, got %q", rec.Header().Get("X-Request-ID"))
	}
	if g.got.Profile == nil || g.got.Profile.Grade != 11 {
		t.Errorf("Expected the profile forwarded, got %+v", g.got)
	}
	if !g.deadline {
		t.Error("Expected the request timeout applied to the pipeline context")
	}
}

func TestGuide_InvalidInputIs400(t *testing.T) {
	g := &stubGuider{}
	r := newTestRouter(t, g)

	for _, body := range []string{``, `{"questionText": 42}`, `{"questionText": "hi", "profile": {"grade": 3}}`} {
		rec := post(r, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if env.Error.Code != model.CodeInvalidQuery {
			t.Errorf("Expected INVALID_QUERY, got %q", env.Error.Code)
		}
	}
	if g.got.Text != "" {
		t.Error("Expected invalid requests never to reach the pipeline")
	}
}

func TestGuide_BodyTooLarge(t *testing.T) {
	r := newTestRouter(t, &stubGuider{})

	rec := post(r, `{"questionText": "`+strings.Repeat("a", maxBodyBytes)+`"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestGuide_FailureIs502(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"exhausted", model.NewError(model.CodeProvidersExhausted, "no valid answer after 4 attempts", nil)},
		{"embedding", model.NewError(model.CodeEmbeddingFailed, "embed query", nil)},
		{"retrieval", model.NewError(model.CodeRetrievalFailed, "explicit pass", nil)},
		{"timeout", model.NewError(model.CodeProviderTimeout, "primary", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &stubGuider{
				res: &model.GenerationResult{Meta: model.GenerationMeta{RequestID: "req-9"}},
				err: tt.err,
			}
			rec := post(newTestRouter(t, g), `{"questionText": "What careers use biology?"}`)

			if rec.Code != http.StatusBadGateway {
				t.Fatalf("Expected 502, got %d", rec.Code)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if env.Error.Code != model.CodeOf(tt.err) || env.RequestID != "req-9" {
				t.Errorf("Unexpected envelope %+v", env)
			}
			if strings.Contains(rec.Body.String(), "answerText") {
				t.Error("Expected no answer text in a failure body")
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, &stubGuider{})

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, &stubGuider{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/guidance", nil)
	req.Header.Set("Origin", "https://app.thandi.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.thandi.example" {
		t.Errorf("Expected allow-origin for the configured origin, got %q", got)
	}
}

func TestCORSConfig_Wildcard(t *testing.T) {
	cfg := corsConfig([]string{"*"})
	if !cfg.AllowAllOrigins || len(cfg.AllowOrigins) != 0 {
		t.Errorf("Expected allow-all without explicit origins, got %+v", cfg)
	}
}
