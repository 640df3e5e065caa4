package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/SeelanGov/thandi/internal/embedding"
	"github.com/SeelanGov/thandi/internal/llm"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/pipeline"
	"github.com/SeelanGov/thandi/internal/search"
)

func resetAskFlags() {
	askGrade, askLiked, askDisliked, askInterests = 0, nil, nil, nil
	askNeed, askConstraints = "", ""
}

func TestAskProfile(t *testing.T) {
	resetAskFlags()
	defer resetAskFlags()

	if p := askProfile(); p != nil {
		t.Errorf("Expected nil profile without flags, got %+v", p)
	}

	askGrade = 11
	askDisliked = []string{"Mathematics"}
	askNeed = "HIGH"
	p := askProfile()
	if p == nil {
		t.Fatal("Expected a profile")
	}
	if p.Grade != 11 || p.FinancialNeed != model.FinancialNeedHigh || p.DislikedSubjects[0] != "Mathematics" {
		t.Errorf("Unexpected profile %+v", p)
	}
}

func TestPrintRetrieval(t *testing.T) {
	r := &pipeline.Retrieval{
		Intent: model.Intent{
			Primary:         model.CategoryRemoteIncome,
			NegatedSubjects: []string{"math"},
			FavoredSubjects: []string{"biology"},
			NeedsFunding:    true,
		},
		Search: &search.Result{PassCounts: map[string]int{search.PassExplicit: 0, search.PassIntent: 14}},
		Ranked: []model.ScoredChunk{{
			Chunk:      model.Chunk{ID: "mw-1", Attributes: model.ChunkAttributes{CareerID: "medical_writer"}},
			Provenance: model.ProvenanceIntentPrimary,
			Score:      0.02,
			Breakdown:  []model.Adjustment{{Name: "low_prerequisite", Value: -0.15}},
		}},
		Context: model.AssembledContext{ChunkCount: 1, TokenCount: 120, TokenBudget: 3000},
	}

	var buf bytes.Buffer
	if err := printRetrieval(&buf, r); err != nil {
		t.Fatalf("printRetrieval: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Intent: remote_income", "avoids:   math", "needs funding", "intent=14", "medical_writer", "low_prerequisite-0.15", "1 chunks, 120/3000 tokens"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

type stubProvider struct {
	available bool
}

func (p *stubProvider) Name() string                     { return "ollama" }
func (p *stubProvider) Model() string                    { return "llama3.1" }
func (p *stubProvider) IsAvailable(context.Context) bool { return p.available }
func (p *stubProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, nil
}

func TestCheckProviders(t *testing.T) {
	rt := &pipeline.Runtime{Primary: &stubProvider{available: true}, Embedder: embedding.NewHashEmbedder(8)}

	var buf bytes.Buffer
	if err := checkProviders(context.Background(), &buf, rt); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if !strings.Contains(buf.String(), "secondary  disabled") {
		t.Errorf("Expected the disabled secondary listed, got:\n%s", buf.String())
	}

	rt.Primary = &stubProvider{}
	if err := checkProviders(context.Background(), &buf, rt); err == nil {
		t.Error("Expected an error when the primary is unreachable")
	}
}
