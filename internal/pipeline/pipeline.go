// Package pipeline runs one guidance request end to end: validate, safety,
// intent, embed, hybrid search, re-rank, assemble, generate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SeelanGov/thandi/internal/assemble"
	"github.com/SeelanGov/thandi/internal/embedding"
	"github.com/SeelanGov/thandi/internal/extract"
	"github.com/SeelanGov/thandi/internal/generate"
	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/llm"
	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/metrics"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/retrieve"
	"github.com/SeelanGov/thandi/internal/score"
	"github.com/SeelanGov/thandi/internal/search"
	"github.com/SeelanGov/thandi/internal/store"
)

// Request outcomes recorded in metrics
const (
	OutcomeSuccess   = "success"
	OutcomeSafety    = "safety"
	OutcomeInvalid   = "invalid"
	OutcomeEmbedding = "embedding_failed"
	OutcomeRetrieval = "retrieval_failed"
	OutcomeExhausted = "exhausted"
)

var tracer = otel.Tracer("thandi")

// Deps are the collaborators a pipeline is built from. Tables, Store and
// Embedder are required; either provider may be nil.
type Deps struct {
	Tables    *knowledge.Tables
	Store     store.KnowledgeStore
	Embedder  embedding.Embedder
	Primary   llm.Provider
	Secondary llm.Provider
	Logger    logging.Logger
}

// Pipeline orchestrates the complete guidance process. All fields are
// read-only after New, so one pipeline serves concurrent requests.
type Pipeline struct {
	extractor  *extract.IntentExtractor
	embedder   embedding.Embedder
	search     *search.Orchestrator
	reranker   *score.Reranker
	assembler  *assemble.Assembler
	controller *generate.Controller
	logger     logging.Logger
	newID      func() string
}

// New creates a pipeline with the given configuration
func New(cfg *model.Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if deps.Tables == nil {
		return nil, errors.New("pipeline: knowledge tables are required")
	}
	if deps.Store == nil {
		return nil, errors.New("pipeline: knowledge store is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("pipeline: embedder is required")
	}

	logger := logging.OrNop(deps.Logger)
	retriever := retrieve.New(deps.Store, cfg.Retrieval, logger)

	return &Pipeline{
		extractor:  extract.NewIntentExtractor(deps.Tables),
		embedder:   deps.Embedder,
		search:     search.NewOrchestrator(retriever, deps.Tables, cfg.Retrieval, logger),
		reranker:   score.NewReranker(deps.Tables, cfg.Scoring),
		assembler:  assemble.NewAssembler(deps.Tables, cfg.Assembly),
		controller: generate.NewController(deps.Primary, deps.Secondary, deps.Tables, cfg.Generation, logger),
		logger:     logger.With(map[string]interface{}{"component": "pipeline"}),
		newID:      uuid.NewString,
	}, nil
}

// Guide answers one query. Invalid input, embedding and retrieval failures
// return a nil result and a typed *model.Error. Generation failure returns a
// result with Success=false together with PROVIDERS_EXHAUSTED.
func (p *Pipeline) Guide(ctx context.Context, q model.Query) (*model.GenerationResult, error) {
	start := time.Now()
	reqID := p.newID()

	ctx, span := tracer.Start(ctx, "pipeline.Guide", trace.WithAttributes(attribute.String("request_id", reqID)))
	defer span.End()
	log := p.logger.With(map[string]interface{}{"request_id": reqID})

	// 1. Validate input before any remote call
	if err := q.Validate(); err != nil {
		return nil, p.fail(span, start, OutcomeInvalid, err)
	}

	// 2. Safety scan short-circuits everything downstream
	req := generate.Request{RequestID: reqID, Query: q}
	if res, ok := p.controller.Screen(req); ok {
		addEvent(ctx, "safety_triggered", attribute.String("category", res.Meta.SafetyCategory))
		res.Meta.Elapsed = time.Since(start)
		p.observe(start, OutcomeSafety)
		return res, nil
	}

	// 3-7. Intent, embedding, search, re-ranking and assembly
	prep, err := p.prepare(ctx, q, log)
	if err != nil {
		return nil, p.fail(span, start, outcomeFor(err), err)
	}
	req.Intent = &prep.Intent
	req.Context = prep.Context

	// 8. Generate
	res, err := p.controller.Generate(ctx, req)
	if res != nil {
		res.Meta.Elapsed = time.Since(start)
	}
	if err != nil {
		return res, p.fail(span, start, OutcomeExhausted, err)
	}

	log.Info("Guidance generated", map[string]interface{}{
		"provider":   res.Meta.Provider,
		"attempts":   res.Meta.Attempts,
		"fallback":   res.Meta.UsedFallback,
		"chunks":     res.Meta.ChunksUsed,
		"elapsed_ms": res.Meta.Elapsed.Milliseconds(),
	})
	p.observe(start, OutcomeSuccess)
	return res, nil
}

// Retrieval is everything a request computes before generation
type Retrieval struct {
	Intent  model.Intent
	Search  *search.Result
	Ranked  []model.ScoredChunk
	Context model.AssembledContext
}

// Retrieve runs validation and the deterministic stages without the safety
// scan or any completion call
func (p *Pipeline) Retrieve(ctx context.Context, q model.Query) (*Retrieval, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "pipeline.Retrieve")
	defer span.End()
	return p.prepare(ctx, q, p.logger)
}

func (p *Pipeline) prepare(ctx context.Context, q model.Query, log logging.Logger) (*Retrieval, error) {
	intent := p.extractor.ExtractQuery(q)
	addEvent(ctx, "intent_extracted",
		attribute.String("primary", string(intent.Primary)),
		attribute.Int("explicit", len(intent.ExplicitCareers)),
		attribute.Int("conflicts", len(intent.Conflicts)),
	)
	log.Debug("Intent extracted", map[string]interface{}{
		"primary":   string(intent.Primary),
		"negated":   intent.NegatedSubjects,
		"favored":   intent.FavoredSubjects,
		"explicit":  intent.ExplicitCareers,
		"conflicts": len(intent.Conflicts),
	})

	vec, err := p.embed(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	found, err := p.search.Search(ctx, &intent, vec)
	if err != nil {
		return nil, err
	}

	ranked := p.reranker.Rerank(&intent, found.Candidates)
	assembled := p.assembler.Assemble(q.Profile, ranked)
	addEvent(ctx, "context_assembled",
		attribute.Int("candidates", len(found.Candidates)),
		attribute.Int("ranked", len(ranked)),
		attribute.Int("chunks", assembled.ChunkCount),
		attribute.Int("tokens", assembled.TokenCount),
	)

	return &Retrieval{Intent: intent, Search: found, Ranked: ranked, Context: assembled}, nil
}

func outcomeFor(err error) string {
	if model.CodeOf(err) == model.CodeEmbeddingFailed {
		return OutcomeEmbedding
	}
	return OutcomeRetrieval
}

func (p *Pipeline) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "pipeline.embed", trace.WithAttributes(attribute.String("embedder", p.embedder.Name())))
	defer span.End()

	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		span.RecordError(err)
		return nil, model.NewError(model.CodeEmbeddingFailed, fmt.Sprintf("%s embedding failed", p.embedder.Name()), err)
	}
	if len(vec) == 0 {
		return nil, model.NewError(model.CodeEmbeddingFailed, p.embedder.Name()+" returned an empty vector", nil)
	}
	return vec, nil
}

func (p *Pipeline) fail(span trace.Span, start time.Time, outcome string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	p.logger.Warn("Guidance request failed", map[string]interface{}{
		"outcome": outcome,
		"code":    string(model.CodeOf(err)),
		"error":   err.Error(),
	})
	p.observe(start, outcome)
	return err
}

func (p *Pipeline) observe(start time.Time, outcome string) {
	metrics.Requests.WithLabelValues(outcome).Inc()
	metrics.RequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func addEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
