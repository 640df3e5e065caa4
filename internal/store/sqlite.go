package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/SeelanGov/thandi/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS knowledge_chunks (
	id            TEXT PRIMARY KEY,
	text          TEXT NOT NULL,
	source        TEXT,
	category      TEXT,
	career_id     TEXT,
	career_name   TEXT,
	salary_entry  TEXT,
	salary_mid    TEXT,
	salary_senior TEXT,
	priority      BOOLEAN NOT NULL DEFAULT 0,
	embedding     BLOB
);
CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_career ON knowledge_chunks(career_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_category ON knowledge_chunks(category);
`

// SQLiteStore keeps chunks in a local SQLite file and ranks them in process.
// Career and category filters are pushed into SQL; similarity is computed on
// the filtered rows.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite knowledge base at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema when missing
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// Upsert writes chunks, replacing rows with the same id
func (s *SQLiteStore) Upsert(ctx context.Context, chunks []model.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO knowledge_chunks ("+chunkColumns+", embedding) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		args := append(chunkArgs(c), encodeVector(c.Embedding))
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// SimilaritySearch filters in SQL and ranks by cosine similarity
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, vec []float32, minSimilarity float64, limit int, filter *Filter) ([]Hit, error) {
	query := "SELECT " + chunkColumns + ", embedding FROM knowledge_chunks"
	var (
		where []string
		args  []any
	)
	if filter != nil && filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter != nil && filter.CareerID != "" {
		where = append(where, "career_id = ?")
		args = append(args, filter.CareerID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var blob []byte
		c, err := scanChunk(rows, &blob)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		emb, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		sim := Cosine(vec, emb)
		if sim < minSimilarity {
			continue
		}
		hits = append(hits, Hit{Chunk: c, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rankHits(hits, limit), nil
}

// FetchByAttribute returns chunks whose attribute column equals value
func (s *SQLiteStore) FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error) {
	col, err := attributeColumn(name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM knowledge_chunks WHERE "+col+" = ? ORDER BY priority DESC, id", value)
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
