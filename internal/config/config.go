// Package config loads the runtime configuration from defaults, an optional
// YAML file, a .env file and THANDI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/SeelanGov/thandi/internal/model"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "THANDI"

// Keys omitted from the rendered defaults that still accept env overrides
var secretKeys = []string{
	"llm.primary.api_key",
	"llm.primary.base_url",
	"llm.secondary.api_key",
	"llm.secondary.base_url",
	"embedding.api_key",
	"embedding.base_url",
	"store.fixtures_path",
	"store.postgres.dsn",
	"store.elasticsearch.username",
	"store.elasticsearch.password",
	"cache.redis.address",
	"cache.redis.password",
	"knowledge.tables_path",
}

var (
	validBackends  = []string{"memory", "sqlite", "postgres", "elasticsearch"}
	validProviders = []string{"", "openai", "anthropic", "gemini", "ollama"}
	validEmbedders = []string{"openai", "gemini", "ollama", "hash"}
	validLevels    = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"json", "console"}
)

// DefaultDir returns $HOME/.thandi
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".thandi"), nil
}

// Load builds the configuration. An explicit path must exist; without one,
// $HOME/.thandi/config.yaml and ./config.yaml are tried and may be absent.
// It returns the config file actually read, or "" when none was.
func Load(path string) (*model.Config, string, error) {
	loadEnvFile()

	v := viper.New()
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		return nil, "", err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

// loadEnvFile reads ./.env when present; existing variables win
func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// setDefaults registers every default key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}
	flatten("", tree, v.SetDefault)
	return nil
}

func flatten(prefix string, tree map[string]interface{}, set func(string, interface{})) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, val)
	}
}

// applyProviderEnv fills credentials from the vendors' conventional variables
// when the config leaves them empty
func applyProviderEnv(cfg *model.Config) {
	fill := func(provider string, apiKey, baseURL *string) {
		if *apiKey == "" {
			switch provider {
			case "openai":
				*apiKey = os.Getenv("OPENAI_API_KEY")
			case "anthropic":
				*apiKey = os.Getenv("ANTHROPIC_API_KEY")
			case "gemini":
				*apiKey = os.Getenv("GEMINI_API_KEY")
			}
		}
		if *baseURL == "" && provider == "ollama" {
			*baseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	fill(cfg.LLM.Primary.Provider, &cfg.LLM.Primary.APIKey, &cfg.LLM.Primary.BaseURL)
	fill(cfg.LLM.Secondary.Provider, &cfg.LLM.Secondary.APIKey, &cfg.LLM.Secondary.BaseURL)
	fill(cfg.Embedding.Provider, &cfg.Embedding.APIKey, &cfg.Embedding.BaseURL)
}

// Validate rejects configurations the pipeline cannot run with
func Validate(cfg *model.Config) error {
	if !oneOf(cfg.LLM.Primary.Provider, validProviders) || cfg.LLM.Primary.Provider == "" {
		return fmt.Errorf("llm.primary.provider %q must be one of openai, anthropic, gemini, ollama", cfg.LLM.Primary.Provider)
	}
	if !oneOf(cfg.LLM.Secondary.Provider, validProviders) {
		return fmt.Errorf("llm.secondary.provider %q is not supported", cfg.LLM.Secondary.Provider)
	}
	if !oneOf(cfg.Embedding.Provider, validEmbedders) {
		return fmt.Errorf("embedding.provider %q is not supported", cfg.Embedding.Provider)
	}
	if !oneOf(cfg.Store.Backend, validBackends) {
		return fmt.Errorf("store.backend %q must be one of %s", cfg.Store.Backend, strings.Join(validBackends, ", "))
	}

	r := cfg.Retrieval
	for name, val := range map[string]float64{
		"retrieval.career_threshold":   r.CareerThreshold,
		"retrieval.semantic_threshold": r.SemanticThreshold,
	} {
		if val < -1 || val > 1 {
			return fmt.Errorf("%s must be within [-1, 1], got %v", name, val)
		}
	}
	if r.PerCareerLimit <= 0 || r.SemanticLimit <= 0 || r.MaxConcurrentFetch <= 0 {
		return errors.New("retrieval limits must be positive")
	}
	if r.Retries < 0 {
		return fmt.Errorf("retrieval.retries must not be negative, got %d", r.Retries)
	}

	if cfg.Scoring.TieWindow < 0 || cfg.Scoring.DiversityWindow < 0 {
		return errors.New("scoring windows must not be negative")
	}
	if cfg.Assembly.TokenBudget <= 0 || cfg.Assembly.MaxChunks <= 0 {
		return errors.New("assembly.token_budget and assembly.max_chunks must be positive")
	}

	g := cfg.Generation
	if g.MaxRetries < 0 || g.MaxRetries > 5 {
		return fmt.Errorf("generation.max_retries must be within 0-5, got %d", g.MaxRetries)
	}
	if g.MaxLength > 0 && g.MinLength >= g.MaxLength {
		return fmt.Errorf("generation.min_length %d must be below max_length %d", g.MinLength, g.MaxLength)
	}

	if !oneOf(cfg.Logging.Level, validLevels) {
		return fmt.Errorf("logging.level %q is not supported", cfg.Logging.Level)
	}
	if !oneOf(cfg.Logging.Format, validFormats) {
		return fmt.Errorf("logging.format %q is not supported", cfg.Logging.Format)
	}
	if cfg.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be positive, got %d", cfg.Worker.Concurrency)
	}
	return nil
}

// Redacted returns a copy safe to print, with credentials masked
func Redacted(cfg *model.Config) *model.Config {
	out := *cfg
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&out.LLM.Primary.APIKey)
	mask(&out.LLM.Secondary.APIKey)
	mask(&out.Embedding.APIKey)
	mask(&out.Store.Postgres.DSN)
	mask(&out.Store.Elasticsearch.Password)
	mask(&out.Cache.Redis.Password)
	return &out
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
