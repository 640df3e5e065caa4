package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/SeelanGov/thandi/internal/generate"
	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/llm"
	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/store"
	"github.com/SeelanGov/thandi/internal/validate"
)

const fundedAnswer = `These careers suit you because you enjoy Life Sciences and want to study in South Africa.

1. Professional Nurse: cares for patients in clinics and hospitals. Salary: R250 000 - R350 000 at entry level.
2. Physiotherapist: helps people recover from injuries. Salary: R300 000 - R420 000.
3. Pharmacist: prepares and checks medicines. Salary: R350 000 - R450 000.

Funding: NSFAS covers full tuition and allowances for households earning up to R350 000 a year; applications close at the end of January.

Next steps:
- Apply for NSFAS online at nsfas.org.za before the deadline.
- Talk to your Life Orientation teacher about the APS you will need.`

// fixedEmbedder maps every text onto the same unit vector, so every fixture
// chunk has similarity 1 and ordering is decided by re-ranking alone
type fixedEmbedder struct {
	calls atomic.Int32
	err   error
}

func (e *fixedEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0}, ctx.Err()
}

func (e *fixedEmbedder) Dimensions() int { return 2 }
func (e *fixedEmbedder) Name() string    { return "fixed" }

type fakeProvider struct {
	name    string
	answers []string
	mu      sync.Mutex
	prompts []string
}

func (p *fakeProvider) Name() string                     { return p.name }
func (p *fakeProvider) Model() string                    { return p.name + "-1" }
func (p *fakeProvider) IsAvailable(context.Context) bool { return true }

func (p *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := len(p.prompts)
	p.prompts = append(p.prompts, req.Prompt)
	if i >= len(p.answers) {
		i = len(p.answers) - 1
	}
	return &llm.CompletionResponse{Text: p.answers[i], Model: p.name + "-1", TokensUsed: 42}, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

type brokenStore struct{}

func (brokenStore) SimilaritySearch(context.Context, []float32, float64, int, *store.Filter) ([]store.Hit, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) FetchByAttribute(context.Context, string, string) ([]model.Chunk, error) {
	return nil, errors.New("connection refused")
}

// fixtureChunks builds two chunks per catalog career
func fixtureChunks(tables *knowledge.Tables) []model.Chunk {
	var chunks []model.Chunk
	for _, c := range tables.Careers {
		chunks = append(chunks,
			model.Chunk{
				ID:         c.ID + "-overview",
				Text:       fmt.Sprintf("%s overview: what the work involves day to day.", c.Name),
				Source:     "career_guide",
				Category:   "career_profile",
				Attributes: model.ChunkAttributes{CareerID: c.ID, CareerName: c.Name},
				Embedding:  []float32{1, 0},
			},
			model.Chunk{
				ID:         c.ID + "-salary",
				Text:       fmt.Sprintf("%s salaries start around R180 000 - R250 000.", c.Name),
				Source:     "salary_survey",
				Category:   "salary",
				Attributes: model.ChunkAttributes{CareerID: c.ID, CareerName: c.Name, SalaryEntry: "R180 000 - R250 000"},
				Embedding:  []float32{1, 0},
			},
		)
	}
	return chunks
}

type harness struct {
	pipeline  *Pipeline
	embedder  *fixedEmbedder
	primary   *fakeProvider
	secondary *fakeProvider
	tables    *knowledge.Tables
}

func newHarness(t *testing.T, s store.KnowledgeStore, answers ...string) *harness {
	t.Helper()
	tables := knowledge.Default()
	if s == nil {
		s = store.NewMemoryStore(fixtureChunks(tables))
	}
	if len(answers) == 0 {
		answers = []string{fundedAnswer}
	}
	h := &harness{
		embedder:  &fixedEmbedder{},
		primary:   &fakeProvider{name: "primary", answers: answers},
		secondary: &fakeProvider{name: "secondary", answers: []string{fundedAnswer}},
		tables:    tables,
	}

	cfg := model.DefaultConfig()
	cfg.Retrieval.Retries = 0
	cfg.Generation.Backoff = 1

	p, err := New(cfg, Deps{
		Tables:    tables,
		Store:     s,
		Embedder:  h.embedder,
		Primary:   h.primary,
		Secondary: h.secondary,
		Logger:    logging.NewTestLogger(t),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.newID = func() string { return "req-test" }
	h.pipeline = p
	return h
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(nil, Deps{}); err == nil {
		t.Error("Expected error without tables")
	}
	if _, err := New(nil, Deps{Tables: knowledge.Default()}); err == nil {
		t.Error("Expected error without store")
	}
	if _, err := New(nil, Deps{Tables: knowledge.Default(), Store: store.NewMemoryStore(nil)}); err == nil {
		t.Error("Expected error without embedder")
	}
}

func TestScenarioA_SubjectAversion(t *testing.T) {
	h := newHarness(t, nil)

	prep, err := h.pipeline.Retrieve(context.Background(), model.Query{
		Text:    "I hate math but love biology and want remote income",
		Profile: &model.Profile{Grade: 11},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(prep.Ranked) < 5 {
		t.Fatalf("Expected at least 5 ranked chunks, got %d", len(prep.Ranked))
	}

	foundAlternative := false
	for _, c := range prep.Ranked[:5] {
		id := c.Chunk.Attributes.CareerID
		if h.tables.IsExcluded("math", id) {
			t.Errorf("Expected %s (math exclusion list) outside the top 5", id)
		}
		career, _ := h.tables.Career(id)
		if h.tables.IsLinked("biology", id) && h.tables.IsLowPrerequisite([]string{"math"}, []string{"biology"}, id) && career.Remote {
			foundAlternative = true
		}
	}
	if !foundAlternative {
		t.Errorf("Expected a biology-linked low-prerequisite remote career in the top 5, got %v", topCareers(prep.Ranked, 5))
	}
}

func TestScenarioB_PathDiversity(t *testing.T) {
	h := newHarness(t, nil)

	prep, err := h.pipeline.Retrieve(context.Background(), model.Query{Text: "I want fast income but also ten years to specialize"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !prep.Intent.HasConflicts() {
		t.Fatal("Expected a conflict")
	}

	fast, long := false, false
	for _, c := range prep.Ranked[:10] {
		career, _ := h.tables.Career(c.Chunk.Attributes.CareerID)
		if career.FastPath && c.Provenance == model.ProvenanceIntentPrimary {
			fast = true
		}
		if career.LongPath && c.Provenance == model.ProvenanceIntentConflict {
			long = true
		}
	}
	if !fast || !long {
		t.Errorf("Expected fast-path primary and long-path conflict careers in the top 10, got %v", topCareers(prep.Ranked, 10))
	}
}

func TestScenarioB_ConflictSidesDifferFromPrimary(t *testing.T) {
	h := newHarness(t, nil)

	prep, err := h.pipeline.Retrieve(context.Background(), model.Query{
		Text: "I want to make money fast but also spend ten years to specialize",
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	cats := prep.Intent.ConflictCategories()
	if len(cats) != 2 {
		t.Fatalf("Expected two conflict categories, got %v", cats)
	}
	for _, c := range cats {
		if c == prep.Intent.Primary {
			t.Fatalf("Expected primary %s to be neither conflict side %v", prep.Intent.Primary, cats)
		}
	}
	if len(prep.Ranked) < 10 {
		t.Fatalf("Expected at least 10 ranked chunks, got %d", len(prep.Ranked))
	}

	seen := make(map[model.Category]bool)
	for _, c := range prep.Ranked[:10] {
		if c.Provenance == model.ProvenanceIntentConflict {
			seen[c.SourceCategory] = true
		}
	}
	for _, c := range cats {
		if !seen[c] {
			t.Errorf("Expected a %s conflict chunk in the top 10, got %v", c, topCareers(prep.Ranked, 10))
		}
	}
}

func TestScenarioC_SafetyShortCircuit(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.pipeline.Guide(context.Background(), model.Query{Text: "Should I drop out to do a coding course?"})
	if err != nil {
		t.Fatalf("Guide: %v", err)
	}

	var dropout string
	for _, trig := range h.tables.SafetyTriggers {
		if trig.Category == knowledge.SafetyDropout {
			dropout = trig.Response
		}
	}
	if res.Answer != generate.WithDisclaimer(dropout) {
		t.Errorf("Expected dropout safe text plus disclaimer, got %q", res.Answer)
	}
	if h.primary.calls() != 0 || h.secondary.calls() != 0 {
		t.Errorf("Expected zero provider calls, got %d and %d", h.primary.calls(), h.secondary.calls())
	}
	if h.embedder.calls.Load() != 0 {
		t.Errorf("Expected zero embedding calls, got %d", h.embedder.calls.Load())
	}
	if res.Meta.RequestID != "req-test" || !res.Meta.SafetyTriggered {
		t.Errorf("Unexpected meta %+v", res.Meta)
	}
}

func TestScenarioD_FundingValidated(t *testing.T) {
	unfunded := strings.Replace(fundedAnswer,
		"Funding: NSFAS covers full tuition and allowances for households earning up to R350 000 a year; applications close at the end of January.\n", "", 1)
	unfunded = strings.Replace(unfunded, "- Apply for NSFAS online at nsfas.org.za before the deadline.", "- Apply to a nursing college early.", 1)
	h := newHarness(t, nil, unfunded, fundedAnswer)

	res, err := h.pipeline.Guide(context.Background(), model.Query{
		Text: "Which careers can I study for? My family can't afford university fees.",
		Profile: &model.Profile{
			Grade:         12,
			LikedSubjects: []string{"Life Sciences"},
			FinancialNeed: model.FinancialNeedHigh,
		},
	})
	if err != nil {
		t.Fatalf("Guide: %v", err)
	}
	if !res.Success {
		t.Fatal("Expected success")
	}

	var funding *model.CheckResult
	for i := range res.Validation.Checks {
		if res.Validation.Checks[i].Name == validate.CheckFunding {
			funding = &res.Validation.Checks[i]
		}
	}
	if funding == nil || !funding.Passed {
		t.Fatalf("Expected a passed funding check, got %+v", res.Validation.Checks)
	}
	if res.Meta.Attempts != 2 || res.Meta.Retries != 1 {
		t.Errorf("Expected the unfunded answer to be retried once, got %+v", res.Meta)
	}
	if !strings.Contains(h.primary.prompts[0], "FUNDING SOURCES") {
		t.Error("Expected the funding list in the prompt")
	}
	if !strings.Contains(res.Answer, "NSFAS") || !strings.HasSuffix(res.Answer, generate.Disclaimer) {
		t.Error("Expected the funded answer with disclaimer")
	}
}

func TestGuide_InvalidQueryMakesNoCalls(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.pipeline.Guide(context.Background(), model.Query{Text: "  "})

	if !errors.Is(err, model.ErrInvalidQuery) {
		t.Fatalf("Expected INVALID_QUERY, got %v", err)
	}
	if res != nil {
		t.Error("Expected nil result")
	}
	if h.embedder.calls.Load() != 0 || h.primary.calls() != 0 {
		t.Error("Expected no remote calls for invalid input")
	}
}

func TestGuide_EmbeddingFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.embedder.err = errors.New("quota exceeded")

	_, err := h.pipeline.Guide(context.Background(), model.Query{Text: "What careers use biology?"})

	if !errors.Is(err, model.ErrEmbeddingFailed) {
		t.Fatalf("Expected EMBEDDING_FAILED, got %v", err)
	}
	if h.primary.calls() != 0 {
		t.Error("Expected no generation after embedding failure")
	}
}

func TestGuide_RetrievalFailure(t *testing.T) {
	h := newHarness(t, brokenStore{})

	_, err := h.pipeline.Guide(context.Background(), model.Query{Text: "I want to help people in my community"})

	if !errors.Is(err, model.ErrRetrievalFailed) {
		t.Fatalf("Expected RETRIEVAL_FAILED, got %v", err)
	}
}

func TestGuide_EmptyStoreStillAnswers(t *testing.T) {
	h := newHarness(t, store.NewMemoryStore(nil))

	res, err := h.pipeline.Guide(context.Background(), model.Query{
		Text:    "Which careers can I study for? My family can't afford university fees.",
		Profile: &model.Profile{FinancialNeed: model.FinancialNeedHigh},
	})

	if err != nil {
		t.Fatalf("Guide: %v", err)
	}
	if res.Meta.ChunksUsed != 0 {
		t.Errorf("Expected profile-only context, got %d chunks", res.Meta.ChunksUsed)
	}
}

func TestGuide_ExhaustedReturnsFailure(t *testing.T) {
	h := newHarness(t, nil, "Become a nurse.")
	h.secondary.answers = []string{"Become a teacher."}

	res, err := h.pipeline.Guide(context.Background(), model.Query{Text: "I want to help people in my community"})

	if !errors.Is(err, model.ErrProvidersExhausted) {
		t.Fatalf("Expected PROVIDERS_EXHAUSTED, got %v", err)
	}
	if res == nil || res.Success || res.Answer != "" {
		t.Errorf("Expected explicit failure result, got %+v", res)
	}
}

func topCareers(ranked []model.ScoredChunk, n int) []string {
	var out []string
	for i, c := range ranked {
		if i >= n {
			break
		}
		out = append(out, fmt.Sprintf("%s(%s %.2f)", c.Chunk.Attributes.CareerID, c.Provenance, c.Score))
	}
	return out
}
