package model

import "time"

// Config is the complete runtime configuration, loaded once at startup
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding" yaml:"embedding"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval" yaml:"retrieval"`
	Scoring    ScoringConfig    `mapstructure:"scoring" yaml:"scoring"`
	Assembly   AssemblyConfig   `mapstructure:"assembly" yaml:"assembly"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge" yaml:"knowledge"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Worker     WorkerConfig     `mapstructure:"worker" yaml:"worker"`
}

// LLMConfig names the primary and secondary completion providers
type LLMConfig struct {
	Primary   ProviderConfig  `mapstructure:"primary" yaml:"primary"`
	Secondary ProviderConfig  `mapstructure:"secondary" yaml:"secondary"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// ProviderConfig configures one completion provider
type ProviderConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"` // openai, anthropic, gemini, ollama, "" disables
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	HTTPProxy   string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy  string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy     string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// RateLimitConfig bounds request rate per provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"` // 0 disables limiting
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// EmbeddingConfig configures the query embedder
type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider" yaml:"provider"` // openai, gemini, ollama, hash
	Model      string        `mapstructure:"model" yaml:"model"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Dimensions int           `mapstructure:"dimensions" yaml:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// StoreConfig selects and configures the knowledge store backend
type StoreConfig struct {
	Backend       string              `mapstructure:"backend" yaml:"backend"` // memory, sqlite, postgres, elasticsearch
	FixturesPath  string              `mapstructure:"fixtures_path" yaml:"fixtures_path,omitempty"`
	SQLitePath    string              `mapstructure:"sqlite_path" yaml:"sqlite_path,omitempty"`
	Postgres      PostgresConfig      `mapstructure:"postgres" yaml:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch" yaml:"elasticsearch"`
}

// PostgresConfig configures the pgvector-backed store
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Table string `mapstructure:"table" yaml:"table"`
}

// ElasticsearchConfig configures the dense-vector index
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses" yaml:"addresses"`
	Index     string   `mapstructure:"index" yaml:"index"`
	Username  string   `mapstructure:"username" yaml:"username,omitempty"`
	Password  string   `mapstructure:"password" yaml:"password,omitempty"`
}

// RetrievalConfig holds the hybrid-search thresholds and limits
type RetrievalConfig struct {
	CareerThreshold    float64       `mapstructure:"career_threshold" yaml:"career_threshold"`       // Floor for career-filtered searches
	SemanticThreshold  float64       `mapstructure:"semantic_threshold" yaml:"semantic_threshold"`   // Lowered floor for the semantic fallback
	SemanticTrigger    int           `mapstructure:"semantic_trigger" yaml:"semantic_trigger"`       // Run semantic pass below this many results
	SemanticLimit      int           `mapstructure:"semantic_limit" yaml:"semantic_limit"`
	PerCareerLimit     int           `mapstructure:"per_career_limit" yaml:"per_career_limit"`
	MaxIntentCareers   int           `mapstructure:"max_intent_careers" yaml:"max_intent_careers"`
	MaxConcurrentFetch int           `mapstructure:"max_concurrent_fetch" yaml:"max_concurrent_fetch"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries            int           `mapstructure:"retries" yaml:"retries"`
}

// ScoringConfig holds provenance bases and signed adjustments
type ScoringConfig struct {
	ExplicitBase    float64 `mapstructure:"explicit_base" yaml:"explicit_base"`
	PrimaryBase     float64 `mapstructure:"primary_base" yaml:"primary_base"`
	ConflictBase    float64 `mapstructure:"conflict_base" yaml:"conflict_base"`
	SemanticBase    float64 `mapstructure:"semantic_base" yaml:"semantic_base"`
	AversionPenalty float64 `mapstructure:"aversion_penalty" yaml:"aversion_penalty"`
	FavoredBonus    float64 `mapstructure:"favored_bonus" yaml:"favored_bonus"`
	LowPrereqBonus  float64 `mapstructure:"low_prereq_bonus" yaml:"low_prereq_bonus"`
	PhraseBonus     float64 `mapstructure:"phrase_bonus" yaml:"phrase_bonus"`
	PhraseBonusCap  float64 `mapstructure:"phrase_bonus_cap" yaml:"phrase_bonus_cap"`
	TieWindow       float64 `mapstructure:"tie_window" yaml:"tie_window"`
	DiversityWindow int     `mapstructure:"diversity_window" yaml:"diversity_window"`
}

// AssemblyConfig bounds the generation context
type AssemblyConfig struct {
	TokenBudget int `mapstructure:"token_budget" yaml:"token_budget"`
	MaxChunks   int `mapstructure:"max_chunks" yaml:"max_chunks"`
}

// GenerationConfig bounds the generation state machine
type GenerationConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	MinLength  int           `mapstructure:"min_length" yaml:"min_length"`
	MaxLength  int           `mapstructure:"max_length" yaml:"max_length"`
	Backoff    time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

// CacheConfig configures the embedding memoisation layer
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	Redis     RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the shared cache tier, empty Address disables it
type RedisConfig struct {
	Address  string        `mapstructure:"address" yaml:"address,omitempty"`
	Password string        `mapstructure:"password" yaml:"password,omitempty"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// KnowledgeConfig points at optional overrides of the curated tables
type KnowledgeConfig struct {
	TablesPath string `mapstructure:"tables_path" yaml:"tables_path,omitempty"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, console
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Address        string        `mapstructure:"address" yaml:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// WorkerConfig configures batch processing
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Primary: ProviderConfig{
				Provider:    "openai",
				Model:       "gpt-4o-mini",
				Timeout:     30 * time.Second,
				MaxTokens:   1500,
				Temperature: 0.3,
			},
			Secondary: ProviderConfig{
				Provider:    "anthropic",
				Model:       "claude-3-5-haiku-latest",
				Timeout:     30 * time.Second,
				MaxTokens:   1500,
				Temperature: 0.3,
			},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 2,
				Burst:             4,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			Timeout:    10 * time.Second,
		},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: "thandi.db",
			Postgres: PostgresConfig{
				Table: "knowledge_chunks",
			},
			Elasticsearch: ElasticsearchConfig{
				Addresses: []string{"http://localhost:9200"},
				Index:     "knowledge_chunks",
			},
		},
		Retrieval: RetrievalConfig{
			CareerThreshold:    0.5,
			SemanticThreshold:  0.2,
			SemanticTrigger:    8,
			SemanticLimit:      10,
			PerCareerLimit:     3,
			MaxIntentCareers:   8,
			MaxConcurrentFetch: 4,
			Timeout:            10 * time.Second,
			Retries:            1,
		},
		Scoring: ScoringConfig{
			ExplicitBase:    0.10,
			PrimaryBase:     0.30,
			ConflictBase:    0.30,
			SemanticBase:    0.60,
			AversionPenalty: 0.40,
			FavoredBonus:    0.10,
			LowPrereqBonus:  0.15,
			PhraseBonus:     0.03,
			PhraseBonusCap:  0.09,
			TieWindow:       0.05,
			DiversityWindow: 10,
		},
		Assembly: AssemblyConfig{
			TokenBudget: 3000,
			MaxChunks:   12,
		},
		Generation: GenerationConfig{
			MaxRetries: 2,
			MinLength:  300,
			MaxLength:  8000,
			Backoff:    500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:   false,
			MemoryTTL: 10 * time.Minute,
			Redis: RedisConfig{
				TTL: time.Hour,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Address:        ":8080",
			AllowedOrigins: []string{"*"},
			RequestTimeout: 90 * time.Second,
		},
		Worker: WorkerConfig{
			Concurrency: 4,
		},
	}
}
