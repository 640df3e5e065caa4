package assemble

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

func newTestAssembler(budget, maxChunks int) *Assembler {
	return NewAssembler(knowledge.Default(), model.AssemblyConfig{TokenBudget: budget, MaxChunks: maxChunks})
}

func chunk(id, text string) model.ScoredChunk {
	return model.ScoredChunk{
		Chunk: model.Chunk{
			ID:         id,
			Text:       text,
			Source:     "careers.pdf",
			Attributes: model.ChunkAttributes{CareerID: "nurse", CareerName: "Nurse"},
		},
		Provenance: model.ProvenanceIntentPrimary,
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := map[string]int{
		"":      0,
		"a":     1,
		"abcd":  1,
		"abcde": 2,
		"ééééé": 2,
	}
	for in, want := range tests {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestAssemble_EmptyChunksProfileOnly(t *testing.T) {
	a := newTestAssembler(3000, 12)

	ctx := a.Assemble(&model.Profile{Grade: 11, LikedSubjects: []string{"Life Sciences"}}, nil)

	if ctx.ChunkCount != 0 {
		t.Errorf("Expected 0 chunks, got %d", ctx.ChunkCount)
	}
	if len(ctx.Frameworks) != 0 {
		t.Errorf("Expected no frameworks, got %v", ctx.Frameworks)
	}
	if !strings.Contains(ctx.Text, "Grade: 11") || !strings.Contains(ctx.Text, "Enjoys: Life Sciences") {
		t.Errorf("Expected profile section, got %q", ctx.Text)
	}
	if strings.Contains(ctx.Text, knowledgeHeader) {
		t.Error("Expected no knowledge section without chunks")
	}
}

func TestAssemble_NilProfile(t *testing.T) {
	a := newTestAssembler(3000, 12)

	ctx := a.Assemble(nil, []model.ScoredChunk{chunk("c1", "Nurses care for patients.")})

	if !strings.Contains(ctx.Text, "No profile provided.") {
		t.Errorf("Expected placeholder profile, got %q", ctx.Text)
	}
	if ctx.ChunkCount != 1 {
		t.Errorf("Expected 1 chunk, got %d", ctx.ChunkCount)
	}
}

func TestAssemble_HeadersAndNormalisation(t *testing.T) {
	a := newTestAssembler(3000, 12)

	ctx := a.Assemble(nil, []model.ScoredChunk{
		chunk("c1", "<p>Nurses   earn <b>R250 000</b></p><script>x()</script>"),
	})

	if !strings.Contains(ctx.Text, "[1] source=careers.pdf career=Nurse via=intent-primary\nNurses earn R250 000") {
		t.Errorf("Unexpected chunk block: %q", ctx.Text)
	}
	if strings.Contains(ctx.Text, "<p>") || strings.Contains(ctx.Text, "x()") {
		t.Errorf("Expected markup stripped, got %q", ctx.Text)
	}
}

func TestAssemble_RespectsBudget(t *testing.T) {
	a := newTestAssembler(200, 0)

	var ranked []model.ScoredChunk
	for i := 0; i < 20; i++ {
		ranked = append(ranked, chunk(fmt.Sprintf("c%02d", i), strings.Repeat("word ", 40)))
	}

	ctx := a.Assemble(&model.Profile{Grade: 10}, ranked)

	if ctx.TokenCount > 200 {
		t.Errorf("Expected at most 200 tokens, got %d", ctx.TokenCount)
	}
	if ctx.ChunkCount == 0 || ctx.ChunkCount == len(ranked) {
		t.Errorf("Expected a partial chunk set, got %d", ctx.ChunkCount)
	}
	for i, id := range ctx.Included {
		if id != ranked[i].Chunk.ID {
			t.Errorf("Expected rank order, position %d got %s", i, id)
		}
	}
}

func TestAssemble_MaxChunks(t *testing.T) {
	a := newTestAssembler(3000, 2)

	ctx := a.Assemble(nil, []model.ScoredChunk{chunk("a", "one"), chunk("b", "two"), chunk("c", "three")})

	if ctx.ChunkCount != 2 {
		t.Errorf("Expected 2 chunks, got %d", ctx.ChunkCount)
	}
}

func TestAssemble_TruncatesOversizedProfile(t *testing.T) {
	a := newTestAssembler(10, 12)

	ctx := a.Assemble(&model.Profile{Constraints: strings.Repeat("long constraint ", 50)}, []model.ScoredChunk{chunk("c1", "Nursing")})

	if ctx.TokenCount > 10 {
		t.Errorf("Expected profile truncated to 10 tokens, got %d", ctx.TokenCount)
	}
	if ctx.ChunkCount != 0 {
		t.Errorf("Expected no room for chunks, got %d", ctx.ChunkCount)
	}
}

func TestAssemble_DetectsFrameworks(t *testing.T) {
	a := newTestAssembler(3000, 12)

	ctx := a.Assemble(nil, []model.ScoredChunk{
		chunk("c1", "Use a SWOT analysis to compare options."),
		chunk("c2", "Your RIASEC profile points to social careers."),
	})

	want := []string{"Holland Code", "SWOT Analysis"}
	if len(ctx.Frameworks) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ctx.Frameworks)
	}
	for i := range want {
		if ctx.Frameworks[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], ctx.Frameworks[i])
		}
	}
}
