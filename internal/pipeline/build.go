package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/SeelanGov/thandi/internal/cache"
	"github.com/SeelanGov/thandi/internal/embedding"
	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/llm"
	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/store"
	"github.com/SeelanGov/thandi/internal/worker"
)

// Runtime is a fully wired pipeline plus the resources it holds
type Runtime struct {
	Pipeline  *Pipeline
	Tables    *knowledge.Tables
	Embedder  embedding.Embedder
	Primary   llm.Provider
	Secondary llm.Provider

	closers []func() error
}

// Close releases the store connection and cache clients
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build constructs every dependency named by cfg and wires the pipeline
func Build(ctx context.Context, cfg *model.Config, logger logging.Logger) (*Runtime, error) {
	logger = logging.OrNop(logger)
	rt := &Runtime{}

	tables, err := knowledge.Load(cfg.Knowledge.TablesPath)
	if err != nil {
		return nil, err
	}
	rt.Tables = tables

	s, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.closers = append(rt.closers, closeStore)

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	if cfg.Cache.Enabled {
		emb = embedding.NewCachedEmbedder(emb, rt.embeddingCache(cfg.Cache), 0)
	}
	rt.Embedder = emb

	var limiter *worker.Limiter
	if cfg.LLM.RateLimit.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.LLM.RateLimit.RequestsPerSecond, cfg.LLM.RateLimit.Burst)
	}

	primary, err := llm.NewProvider(cfg.LLM.Primary)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("create primary provider: %w", err)
	}
	secondary, err := llm.NewProvider(cfg.LLM.Secondary)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("create secondary provider: %w", err)
	}
	rt.Primary = worker.NewRateLimitedProvider(primary, limiter)
	rt.Secondary = worker.NewRateLimitedProvider(secondary, limiter)

	p, err := New(cfg, Deps{
		Tables:    tables,
		Store:     s,
		Embedder:  emb,
		Primary:   rt.Primary,
		Secondary: rt.Secondary,
		Logger:    logger,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Pipeline = p

	fields := map[string]interface{}{
		"store":     cfg.Store.Backend,
		"embedding": emb.Name(),
		"primary":   describe(rt.Primary),
		"secondary": describe(rt.Secondary),
		"cache":     cfg.Cache.Enabled,
	}
	logger.Info("Pipeline ready", fields)
	return rt, nil
}

// embeddingCache returns the in-process cache, layered over Redis when an
// address is configured
func (r *Runtime) embeddingCache(cfg model.CacheConfig) cache.Cache {
	memory := cache.NewMemoryCache(cfg.MemoryTTL, 2*cfg.MemoryTTL)
	if cfg.Redis.Address == "" {
		return memory
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	r.closers = append(r.closers, client.Close)
	return cache.NewLayeredCache(memory, cache.NewRedisCache(client, cfg.Redis.TTL))
}

func describe(p llm.Provider) string {
	if p == nil {
		return "disabled"
	}
	return p.Name() + "/" + p.Model()
}
