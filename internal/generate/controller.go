// Package generate turns an assembled context into validated guidance. The
// controller is an explicit state machine: safety scan, prompt, primary
// attempts with bounded retries, one secondary fallback, then done or fail.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/llm"
	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/metrics"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/safety"
	"github.com/SeelanGov/thandi/internal/validate"
)

// Disclaimer is appended to every answer, safety responses included
const Disclaimer = "Thandi gives general career information, not professional advice. Please confirm entry " +
	"requirements, fees and deadlines directly with the institutions and funders concerned, and talk important " +
	"decisions through with your parents or guardians and your school counsellor."

// State is one step of the generation state machine
type State string

const (
	StateReceive      State = "receive"
	StateSafetyScan   State = "safety_scan"
	StateSafeResponse State = "safe_response"
	StateBuildPrompt  State = "build_prompt"
	StateCallPrimary  State = "call_primary"
	StateValidate     State = "validate"
	StateRetry        State = "retry"
	StateFallback     State = "fallback_secondary"
	StateDone         State = "done"
	StateFail         State = "fail"
)

const defaultBackoff = 500 * time.Millisecond

// generateSleepFunc waits between primary retries (injectable for tests)
var generateSleepFunc = sleepContext

var tracer = otel.Tracer("thandi/generate")

// Request carries everything one generation needs
type Request struct {
	RequestID string
	Query     model.Query
	Intent    *model.Intent
	Context   model.AssembledContext
}

// Controller owns the providers and the checks. It holds no per-request
// state and may serve concurrent requests.
type Controller struct {
	primary   llm.Provider
	secondary llm.Provider
	scanner   *safety.Scanner
	validator *validate.Validator
	prompts   *PromptBuilder
	cfg       model.GenerationConfig
	logger    logging.Logger
}

// NewController wires a controller. Either provider may be nil; with both nil
// every non-safety request fails with PROVIDERS_EXHAUSTED.
func NewController(primary, secondary llm.Provider, tables *knowledge.Tables, cfg model.GenerationConfig, logger logging.Logger) *Controller {
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Controller{
		primary:   primary,
		secondary: secondary,
		scanner:   safety.NewScanner(tables),
		validator: validate.NewValidator(tables, cfg),
		prompts:   NewPromptBuilder(tables),
		cfg:       cfg,
		logger:    logging.OrNop(logger).With(map[string]interface{}{"component": "generator"}),
	}
}

// Screen runs only the safety scan. A triggered query gets its complete
// result here and must not reach embedding, retrieval or any provider.
func (c *Controller) Screen(req Request) (*model.GenerationResult, bool) {
	m, ok := c.scanner.ScanQuery(req.Query)
	if !ok {
		return nil, false
	}
	return c.safeResult(req, m), true
}

// run is the mutable state of one pass through the machine
type run struct {
	state      State
	base       Prompt
	prompt     Prompt
	onFallback bool
	attempts   int
	retries    int
	tokens     int
	provider   llm.Provider
	response   *llm.CompletionResponse
	report     model.ValidationReport
	failed     []model.CheckResult
	lastErr    error
	match      safety.Match
	started    time.Time
}

// Generate drives the state machine to DONE or FAIL. On FAIL the result has
// Success=false and the error is PROVIDERS_EXHAUSTED wrapping the last cause.
func (c *Controller) Generate(ctx context.Context, req Request) (*model.GenerationResult, error) {
	r := &run{state: StateReceive, started: time.Now()}
	exp := validate.ExpectationsFor(req.Intent, req.Context)
	log := c.logger.With(map[string]interface{}{"request_id": req.RequestID})

	for {
		switch r.state {
		case StateReceive:
			r.state = StateSafetyScan

		case StateSafetyScan:
			if m, ok := c.scanner.ScanQuery(req.Query); ok {
				r.match = m
				r.state = StateSafeResponse
			} else {
				r.state = StateBuildPrompt
			}

		case StateSafeResponse:
			return c.safeResult(req, r.match), nil

		case StateBuildPrompt:
			r.base = c.prompts.Build(req)
			r.prompt = r.base
			if c.primary == nil {
				r.state = StateFallback
			} else {
				r.state = StateCallPrimary
			}

		case StateCallPrimary:
			resp, err := c.call(ctx, c.primary, r)
			if err != nil {
				r.lastErr = err
				switch {
				case ctx.Err() != nil:
					r.state = StateFail
				case llm.IsRetryable(err) && r.retries < c.cfg.MaxRetries:
					log.Warn("primary call failed, retrying", map[string]interface{}{"attempt": r.attempts, "error": err.Error()})
					r.state = StateRetry
				default:
					log.Warn("primary call failed, falling back", map[string]interface{}{"attempt": r.attempts, "error": err.Error()})
					r.state = StateFallback
				}
				continue
			}
			r.provider, r.response = c.primary, resp
			r.state = StateValidate

		case StateValidate:
			r.report = c.validator.Validate(r.response.Text, exp)
			if r.report.Passed {
				r.state = StateDone
				continue
			}
			r.failed = r.report.Failed()
			for _, f := range r.failed {
				metrics.ValidationFailures.WithLabelValues(f.Name).Inc()
			}
			r.lastErr = fmt.Errorf("%s answer failed checks: %s", r.provider.Name(), checkNames(r.failed))
			log.Warn("answer failed validation", map[string]interface{}{
				"provider": r.provider.Name(),
				"attempt":  r.attempts,
				"failed":   checkNames(r.failed),
			})
			switch {
			case r.onFallback:
				r.state = StateFail
			case r.retries < c.cfg.MaxRetries:
				r.state = StateRetry
			default:
				r.state = StateFallback
			}

		case StateRetry:
			r.retries++
			r.prompt = c.prompts.Retry(r.base, r.failed)
			backoff := c.cfg.Backoff * time.Duration(1<<uint(r.retries-1))
			if err := generateSleepFunc(ctx, backoff); err != nil {
				r.lastErr = err
				r.state = StateFail
				continue
			}
			r.state = StateCallPrimary

		case StateFallback:
			if c.secondary == nil || r.onFallback {
				r.state = StateFail
				continue
			}
			r.onFallback = true
			r.prompt = c.prompts.Retry(r.base, r.failed)
			log.Info("using secondary provider", map[string]interface{}{"provider": c.secondary.Name()})
			resp, err := c.call(ctx, c.secondary, r)
			if err != nil {
				r.lastErr = err
				r.state = StateFail
				continue
			}
			r.provider, r.response = c.secondary, resp
			r.state = StateValidate

		case StateDone:
			return c.successResult(req, r), nil

		case StateFail:
			log.Error("generation failed", map[string]interface{}{"attempts": r.attempts, "fallback": r.onFallback})
			return c.failureResult(req, r), model.NewError(model.CodeProvidersExhausted,
				fmt.Sprintf("no valid answer after %d attempts", r.attempts), r.lastErr)

		default:
			return nil, fmt.Errorf("generate: unknown state %q", r.state)
		}
	}
}

// call makes one completion attempt and classifies its error
func (c *Controller) call(ctx context.Context, p llm.Provider, r *run) (*llm.CompletionResponse, error) {
	ctx, span := tracer.Start(ctx, "generate.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.Name()),
		attribute.Int("attempt", r.attempts+1),
	)

	r.attempts++
	resp, err := p.Complete(ctx, llm.CompletionRequest{System: r.prompt.System, Prompt: r.prompt.User})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		if llm.IsTimeout(err) {
			metrics.GenerationAttempts.WithLabelValues(p.Name(), "timeout").Inc()
			return nil, model.NewError(model.CodeProviderTimeout, p.Name()+" completion timed out", err)
		}
		metrics.GenerationAttempts.WithLabelValues(p.Name(), "error").Inc()
		return nil, model.NewError(model.CodeProviderFailed, p.Name()+" completion failed", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		metrics.GenerationAttempts.WithLabelValues(p.Name(), "error").Inc()
		return nil, model.NewError(model.CodeProviderFailed, p.Name()+" returned no text", llm.ErrEmptyResponse)
	}
	metrics.GenerationAttempts.WithLabelValues(p.Name(), "ok").Inc()
	r.tokens += resp.TokensUsed
	return resp, nil
}

func (c *Controller) safeResult(req Request, m safety.Match) *model.GenerationResult {
	metrics.SafetyTriggers.WithLabelValues(m.Category).Inc()
	c.logger.Info("safety trigger", map[string]interface{}{"request_id": req.RequestID, "category": m.Category})
	return &model.GenerationResult{
		Success:    true,
		Answer:     WithDisclaimer(m.Response),
		Validation: model.ValidationReport{Passed: true, Skipped: true},
		Meta: model.GenerationMeta{
			RequestID:       req.RequestID,
			SafetyTriggered: true,
			SafetyCategory:  m.Category,
		},
	}
}

func (c *Controller) successResult(req Request, r *run) *model.GenerationResult {
	return &model.GenerationResult{
		Success:    true,
		Answer:     WithDisclaimer(r.response.Text),
		Validation: r.report,
		Meta:       c.meta(req, r),
	}
}

func (c *Controller) failureResult(req Request, r *run) *model.GenerationResult {
	return &model.GenerationResult{
		Success:    false,
		Validation: r.report,
		Meta:       c.meta(req, r),
	}
}

func (c *Controller) meta(req Request, r *run) model.GenerationMeta {
	m := model.GenerationMeta{
		RequestID:    req.RequestID,
		Attempts:     r.attempts,
		Retries:      r.retries,
		UsedFallback: r.onFallback,
		TokensUsed:   r.tokens,
		ChunksUsed:   req.Context.ChunkCount,
		Frameworks:   req.Context.Frameworks,
		Elapsed:      time.Since(r.started),
	}
	if r.provider != nil {
		m.Provider = r.provider.Name()
		m.Model = r.provider.Model()
		if r.response != nil && r.response.Model != "" {
			m.Model = r.response.Model
		}
	}
	return m
}

// WithDisclaimer appends the fixed disclaimer to text
func WithDisclaimer(text string) string {
	return strings.TrimRight(text, "\n ") + "\n\n---\n" + Disclaimer
}

func checkNames(checks []model.CheckResult) string {
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsExhausted reports whether err is a PROVIDERS_EXHAUSTED failure
func IsExhausted(err error) bool {
	return errors.Is(err, model.ErrProvidersExhausted)
}
