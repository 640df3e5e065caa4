package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeelanGov/thandi/internal/model"
)

func testChunks() []model.Chunk {
	return []model.Chunk{
		{ID: "nurse-1", Text: "Nurses care for patients.", Category: "career_profile",
			Attributes: model.ChunkAttributes{CareerID: "nurse", CareerName: "Nurse", SalaryEntry: "R180 000"},
			Embedding:  []float32{1, 0, 0}},
		{ID: "nurse-2", Text: "Nursing bursaries exist.", Category: "funding",
			Attributes: model.ChunkAttributes{CareerID: "nurse", Priority: true},
			Embedding:  []float32{0.9, 0.1, 0}},
		{ID: "dev-1", Text: "Web developers build sites.", Category: "career_profile",
			Attributes: model.ChunkAttributes{CareerID: "web_developer"},
			Embedding:  []float32{0, 1, 0}},
		{ID: "general-1", Text: "Study tips.", Category: "guidance",
			Embedding: []float32{0.5, 0.5, 0.7}},
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 1}))
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, float32(math.Pi)}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[1,0.5,-2]", vectorLiteral([]float32{1, 0.5, -2}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}

func TestMemoryStore_SimilaritySearch(t *testing.T) {
	s := NewMemoryStore(testChunks())
	ctx := context.Background()

	hits, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 0.5, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "nurse-1", hits[0].Chunk.ID)
	assert.Equal(t, "nurse-2", hits[1].Chunk.ID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}

	hits, err = s.SimilaritySearch(ctx, []float32{1, 0, 0}, 0.0, 10, &Filter{CareerID: "web_developer"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "dev-1", hits[0].Chunk.ID)

	hits, err = s.SimilaritySearch(ctx, []float32{1, 0, 0}, -1, 1, &Filter{Category: "career_profile"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "nurse-1", hits[0].Chunk.ID)
}

func TestMemoryStore_FetchByAttribute(t *testing.T) {
	s := NewMemoryStore(testChunks())
	ctx := context.Background()

	chunks, err := s.FetchByAttribute(ctx, model.AttrCareerID, "nurse")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "nurse-2", chunks[0].ID, "priority entries come first")

	chunks, err = s.FetchByAttribute(ctx, model.AttrCareerID, "pilot")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = s.FetchByAttribute(ctx, "salary", "x")
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore(testChunks())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 0, 10, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, testChunks()))
	// Upsert is idempotent
	require.NoError(t, s.Upsert(ctx, testChunks()))

	hits, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 0.5, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "nurse-1", hits[0].Chunk.ID)
	assert.Equal(t, "Nurse", hits[0].Chunk.Attributes.CareerName)
	assert.Equal(t, "R180 000", hits[0].Chunk.Attributes.SalaryEntry)

	hits, err = s.SimilaritySearch(ctx, []float32{1, 0, 0}, 0.2, 3, &Filter{CareerID: "nurse", Category: "funding"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "nurse-2", hits[0].Chunk.ID)

	chunks, err := s.FetchByAttribute(ctx, model.AttrCareerID, "nurse")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "nurse-2", chunks[0].ID)
	assert.True(t, chunks[0].Attributes.Priority)

	_, err = s.FetchByAttribute(ctx, "embedding", "x")
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)
}

func TestParseChunks(t *testing.T) {
	jsonl := `{"id":"a","text":"one","attributes":{"career_id":"nurse"},"embedding":[1,0]}

{"id":"b","text":"two","attributes":{}}`
	chunks, err := ParseChunks([]byte(jsonl))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "nurse", chunks[0].Attributes.CareerID)
	assert.Equal(t, []float32{1, 0}, chunks[0].Embedding)

	array := `[{"id":"a","text":"one","attributes":{}}]`
	chunks, err = ParseChunks([]byte(array))
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	_, err = ParseChunks([]byte(`[{"id":"a","text":"x","attributes":{}},{"id":"a","text":"y","attributes":{}}]`))
	assert.Error(t, err, "duplicate ids are rejected")

	_, err = ParseChunks([]byte(`{"text":"no id","attributes":{}}`))
	assert.Error(t, err)

	chunks, err = ParseChunks([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestOpen_MemoryWithFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"a","text":"one","attributes":{"career_id":"nurse"},"embedding":[1,0]}`), 0o644))

	s, closeFn, err := Open(context.Background(), model.StoreConfig{Backend: "memory", FixturesPath: path})
	require.NoError(t, err)
	defer closeFn()

	chunks, err := s.FetchByAttribute(context.Background(), model.AttrCareerID, "nurse")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestOpen_Errors(t *testing.T) {
	_, closeFn, err := Open(context.Background(), model.StoreConfig{Backend: "mongo"})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)

	_, _, err = Open(context.Background(), model.StoreConfig{Backend: "postgres"})
	assert.Error(t, err)
}
