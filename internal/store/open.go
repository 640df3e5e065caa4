package store

import (
	"context"
	"fmt"

	"github.com/SeelanGov/thandi/internal/model"
)

// Open builds the configured backend. The returned close func is never nil.
// Memory and SQLite backends are seeded from FixturesPath when set.
func Open(ctx context.Context, cfg model.StoreConfig) (KnowledgeStore, func() error, error) {
	noop := func() error { return nil }

	var fixtures []model.Chunk
	if cfg.FixturesPath != "" && (cfg.Backend == "memory" || cfg.Backend == "sqlite" || cfg.Backend == "") {
		chunks, err := LoadChunks(cfg.FixturesPath)
		if err != nil {
			return nil, noop, err
		}
		fixtures = chunks
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(fixtures), noop, nil

	case "sqlite":
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		if len(fixtures) > 0 {
			if err := s.Upsert(ctx, fixtures); err != nil {
				s.Close()
				return nil, noop, err
			}
		}
		return s, s.Close, nil

	case "postgres":
		if cfg.Postgres.DSN == "" {
			return nil, noop, fmt.Errorf("store.postgres.dsn is required")
		}
		s, err := OpenPostgres(cfg.Postgres.DSN, cfg.Postgres.Table)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case "elasticsearch":
		s, err := OpenElasticsearch(cfg.Elasticsearch)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
	return nil, noop, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
}
