// Package search runs the hybrid retrieval passes for one intent: explicit
// career fetches, intent-category similarity searches and a semantic fallback.
package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/metrics"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/store"
)

var tracer = otel.Tracer("thandi/search")

// Pass names
const (
	PassExplicit = "explicit"
	PassIntent   = "intent"
	PassSemantic = "semantic"
)

// Retriever is the subset of retrieve.Retriever the orchestrator needs
type Retriever interface {
	Search(ctx context.Context, vec []float32, threshold float64, limit int, filter *store.Filter) ([]store.Hit, error)
	FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error)
}

// Result is the merged, unscored candidate set of one search
type Result struct {
	Candidates []model.ScoredChunk `json:"candidates"`
	Plan       []PlannedCareer     `json:"plan,omitempty"`
	PassCounts map[string]int      `json:"pass_counts"`
	PassErrors map[string]error    `json:"-"` // Pass name -> failure; absent passes succeeded or did not run
}

// Orchestrator runs the retrieval passes
type Orchestrator struct {
	retriever Retriever
	tables    *knowledge.Tables
	cfg       model.RetrievalConfig
	logger    logging.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(r Retriever, tables *knowledge.Tables, cfg model.RetrievalConfig, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		retriever: r,
		tables:    tables,
		cfg:       cfg,
		logger:    logging.OrNop(logger).With(map[string]interface{}{"component": "search"}),
	}
}

// Search runs the explicit and intent passes concurrently, then the semantic
// pass when they produced fewer than the trigger count. It fails with
// RETRIEVAL_FAILED only when every pass that ran failed.
func (o *Orchestrator) Search(ctx context.Context, intent *model.Intent, vec []float32) (*Result, error) {
	ctx, span := tracer.Start(ctx, "search.Orchestrator.Search")
	defer span.End()

	res := &Result{
		Plan:       PlanCareers(o.tables, intent, o.cfg.MaxIntentCareers),
		PassCounts: make(map[string]int),
		PassErrors: make(map[string]error),
	}

	var (
		explicit, fromIntent []model.ScoredChunk
		explicitErr          error
		intentErr            error
	)
	ran := 0

	// Both goroutines record their own failure and return nil so neither pass
	// cancels the other
	var g errgroup.Group
	if len(intent.ExplicitCareers) > 0 {
		ran++
		g.Go(func() error {
			explicit, explicitErr = o.explicitPass(ctx, intent.ExplicitCareers)
			return nil
		})
	}
	if len(res.Plan) > 0 {
		ran++
		g.Go(func() error {
			fromIntent, intentErr = o.intentPass(ctx, res.Plan, vec)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	if explicitErr != nil {
		res.PassErrors[PassExplicit] = explicitErr
		failed++
	}
	if intentErr != nil {
		res.PassErrors[PassIntent] = intentErr
		failed++
	}
	res.Candidates = append(res.Candidates, explicit...)
	res.Candidates = append(res.Candidates, fromIntent...)
	res.PassCounts[PassExplicit] = len(explicit)
	res.PassCounts[PassIntent] = len(fromIntent)

	if len(res.Candidates) < o.cfg.SemanticTrigger {
		ran++
		semantic, err := o.semanticPass(ctx, vec)
		if err != nil {
			res.PassErrors[PassSemantic] = err
			failed++
		}
		res.Candidates = append(res.Candidates, semantic...)
		res.PassCounts[PassSemantic] = len(semantic)
	}

	span.SetAttributes(
		attribute.Int("search.candidates", len(res.Candidates)),
		attribute.Int("search.passes_ran", ran),
		attribute.Int("search.passes_failed", failed),
	)

	if ran > 0 && failed == ran {
		err := firstError(res.PassErrors, PassExplicit, PassIntent, PassSemantic)
		span.RecordError(err)
		span.SetStatus(codes.Error, "all retrieval passes failed")
		if model.CodeOf(err) != model.CodeRetrievalFailed {
			err = model.NewError(model.CodeRetrievalFailed, "all retrieval passes failed", err)
		}
		return res, err
	}

	for pass, err := range res.PassErrors {
		o.logger.Warn("Retrieval pass failed", map[string]interface{}{"pass": pass, "error": err.Error()})
	}
	o.logger.Debug("Retrieval complete", map[string]interface{}{
		"explicit":  res.PassCounts[PassExplicit],
		"intent":    res.PassCounts[PassIntent],
		"semantic":  res.PassCounts[PassSemantic],
		"careers":   len(res.Plan),
		"primary":   string(intent.Primary),
		"conflicts": len(intent.Conflicts),
	})
	return res, nil
}

// explicitPass fetches every chunk of each explicitly named career
func (o *Orchestrator) explicitPass(ctx context.Context, careers []string) ([]model.ScoredChunk, error) {
	ctx, span := tracer.Start(ctx, "search.explicit")
	defer span.End()
	start := time.Now()
	defer observePass(PassExplicit, start)

	results := make([][]model.ScoredChunk, len(careers))
	errs := make([]error, len(careers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.fanOut())
	for i, id := range careers {
		g.Go(func() error {
			chunks, err := o.retriever.FetchByAttribute(gctx, model.AttrCareerID, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			for _, c := range chunks {
				results[i] = append(results[i], model.ScoredChunk{
					Chunk:      c,
					Provenance: model.ProvenanceExplicit,
					Similarity: 1,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	out, err := flatten(results, errs)
	metrics.RetrievalCandidates.WithLabelValues(PassExplicit).Observe(float64(len(out)))
	span.SetAttributes(attribute.Int("search.chunks", len(out)))
	if err != nil {
		metrics.RetrievalErrors.WithLabelValues(PassExplicit).Inc()
		span.RecordError(err)
	}
	return out, err
}

// intentPass runs one career-filtered search per planned career
func (o *Orchestrator) intentPass(ctx context.Context, plan []PlannedCareer, vec []float32) ([]model.ScoredChunk, error) {
	ctx, span := tracer.Start(ctx, "search.intent")
	defer span.End()
	start := time.Now()
	defer observePass(PassIntent, start)

	results := make([][]model.ScoredChunk, len(plan))
	errs := make([]error, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.fanOut())
	for i, pc := range plan {
		g.Go(func() error {
			hits, err := o.retriever.Search(gctx, vec, o.cfg.CareerThreshold, o.cfg.PerCareerLimit, &store.Filter{CareerID: pc.ID})
			if err != nil {
				errs[i] = err
				return nil
			}
			for _, h := range hits {
				results[i] = append(results[i], model.ScoredChunk{
					Chunk:          h.Chunk,
					Provenance:     pc.Provenance,
					SourceCategory: pc.Category,
					Similarity:     h.Similarity,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	out, err := flatten(results, errs)
	metrics.RetrievalCandidates.WithLabelValues(PassIntent).Observe(float64(len(out)))
	span.SetAttributes(attribute.Int("search.careers", len(plan)), attribute.Int("search.chunks", len(out)))
	if err != nil {
		metrics.RetrievalErrors.WithLabelValues(PassIntent).Inc()
		span.RecordError(err)
	}
	return out, err
}

// semanticPass is the unfiltered fallback; chunks with no career are dropped
func (o *Orchestrator) semanticPass(ctx context.Context, vec []float32) ([]model.ScoredChunk, error) {
	ctx, span := tracer.Start(ctx, "search.semantic")
	defer span.End()
	start := time.Now()
	defer observePass(PassSemantic, start)

	hits, err := o.retriever.Search(ctx, vec, o.cfg.SemanticThreshold, o.cfg.SemanticLimit, nil)
	if err != nil {
		metrics.RetrievalErrors.WithLabelValues(PassSemantic).Inc()
		span.RecordError(err)
		return nil, err
	}

	var out []model.ScoredChunk
	for _, h := range hits {
		if !h.Chunk.HasCareer() {
			continue
		}
		out = append(out, model.ScoredChunk{
			Chunk:      h.Chunk,
			Provenance: model.ProvenanceSemantic,
			Similarity: h.Similarity,
		})
	}
	metrics.RetrievalCandidates.WithLabelValues(PassSemantic).Observe(float64(len(out)))
	span.SetAttributes(attribute.Int("search.chunks", len(out)))
	return out, nil
}

func (o *Orchestrator) fanOut() int {
	if o.cfg.MaxConcurrentFetch > 0 {
		return o.cfg.MaxConcurrentFetch
	}
	return 4
}

// flatten joins per-item results in input order. The pass fails only when
// every item failed.
func flatten(results [][]model.ScoredChunk, errs []error) ([]model.ScoredChunk, error) {
	var (
		out      []model.ScoredChunk
		firstErr error
		failed   int
	)
	for i := range results {
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		out = append(out, results[i]...)
	}
	if len(results) > 0 && failed == len(results) {
		return nil, firstErr
	}
	return out, nil
}

func firstError(errs map[string]error, order ...string) error {
	for _, k := range order {
		if err, ok := errs[k]; ok {
			return err
		}
	}
	return nil
}

func observePass(pass string, start time.Time) {
	metrics.RetrievalPassDuration.WithLabelValues(pass).Observe(time.Since(start).Seconds())
}
