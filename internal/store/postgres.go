package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/SeelanGov/thandi/internal/model"
)

// PostgresStore queries a pgvector table. Similarity is 1 - cosine distance,
// computed by the server.
type PostgresStore struct {
	db    *sql.DB
	table string // Quoted identifier
}

// OpenPostgres connects with a lib/pq DSN
func OpenPostgres(dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db, table), nil
}

// NewPostgresStore wraps an existing handle
func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = "knowledge_chunks"
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

// SimilaritySearch runs an ordered cosine-distance query
func (s *PostgresStore) SimilaritySearch(ctx context.Context, vec []float32, minSimilarity float64, limit int, filter *Filter) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	var category, careerID string
	if filter != nil {
		category, careerID = filter.Category, filter.CareerID
	}

	query := fmt.Sprintf(`SELECT %s, 1 - (embedding <=> $1::vector) AS similarity
FROM %s
WHERE ($2 = '' OR category = $2)
  AND ($3 = '' OR career_id = $3)
  AND 1 - (embedding <=> $1::vector) >= $4
ORDER BY embedding <=> $1::vector, id
LIMIT $5`, chunkColumns, s.table)

	rows, err := s.db.QueryContext(ctx, query, vectorLiteral(vec), category, careerID, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var sim float64
		c, err := scanChunk(rows, &sim)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		hits = append(hits, Hit{Chunk: c, Similarity: sim})
	}
	return hits, rows.Err()
}

// FetchByAttribute returns chunks whose attribute column equals value
func (s *PostgresStore) FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error) {
	col, err := attributeColumn(name)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY priority DESC, id", chunkColumns, s.table, col)
	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("fetch by %s: %w", name, err)
	}
	defer rows.Close()

	var out []model.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close releases the database handle
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
