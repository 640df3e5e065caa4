package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeelanGov/thandi/internal/model"
)

var pgColumns = []string{"id", "text", "source", "category", "career_id", "career_name",
	"salary_entry", "salary_mid", "salary_senior", "priority"}

func TestPostgresStore_SimilaritySearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db, "")

	rows := sqlmock.NewRows(append(pgColumns, "similarity")).
		AddRow("nurse-1", "Nurses care.", "kb", "career_profile", "nurse", "Nurse", "R180 000", nil, nil, false, 0.91).
		AddRow("nurse-2", "Bursaries.", nil, "funding", "nurse", nil, nil, nil, nil, true, 0.42)
	mock.ExpectQuery(`SELECT id, text, .* FROM "knowledge_chunks"`).
		WithArgs("[1,0]", "", "nurse", 0.2, 3).
		WillReturnRows(rows)

	hits, err := s.SimilaritySearch(context.Background(), []float32{1, 0}, 0.2, 3, &Filter{CareerID: "nurse"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "nurse-1", hits[0].Chunk.ID)
	assert.Equal(t, "Nurse", hits[0].Chunk.Attributes.CareerName)
	assert.InDelta(t, 0.91, hits[0].Similarity, 1e-9)
	assert.True(t, hits[1].Chunk.Attributes.Priority)
	assert.Empty(t, hits[1].Chunk.Source)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FetchByAttribute(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db, "career_kb")

	rows := sqlmock.NewRows(pgColumns).
		AddRow("dev-1", "Web developers build sites.", "kb", "career_profile", "web_developer", "Web Developer", nil, nil, nil, true)
	mock.ExpectQuery(`SELECT .* FROM "career_kb" WHERE career_id = \$1 ORDER BY priority DESC, id`).
		WithArgs("web_developer").
		WillReturnRows(rows)

	chunks, err := s.FetchByAttribute(context.Background(), model.AttrCareerID, "web_developer")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Web Developer", chunks[0].Attributes.CareerName)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	s := NewPostgresStore(db, "")
	_, err = s.SimilaritySearch(context.Background(), []float32{1}, 0.5, 10, nil)
	assert.ErrorContains(t, err, "connection reset")

	_, err = s.FetchByAttribute(context.Background(), "unknown", "x")
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)
}
