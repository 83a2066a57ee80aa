// Copyright 2025 LLabs Tech
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Vector index backends.
const (
	IndexBackendMemory = "memory"
	IndexBackendBadger = "badger"
)

// Language model backends.
const (
	AIBackendOpenAI    = "openai"
	AIBackendAnthropic = "anthropic"
	AIBackendOllama    = "ollama"
)

// CatalogConfig locates the property catalog feed.
type CatalogConfig struct {
	Path   string `yaml:"path"`
	Strict bool   `yaml:"strict"`
}

// IndexConfig selects and configures the vector index backend. SnapshotPath
// applies to the memory backend and Dir to the badger backend; the two are
// independent locations, never shared.
type IndexConfig struct {
	Backend      string `yaml:"backend"`
	Dimension    int    `yaml:"dimension"`
	SnapshotPath string `yaml:"snapshot_path,omitempty"`
	Dir          string `yaml:"dir,omitempty"`
}

// AIConfig selects the language model backend and its connection details.
// Embedding always goes through an OpenAI-compatible endpoint; Backend only
// selects who generates answers. The API key is read from the environment
// variable named by APIKeyEnv, never stored in the file itself.
type AIConfig struct {
	Backend        string `yaml:"backend"`
	EmbeddingHost  string `yaml:"embedding_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatHost       string `yaml:"chat_host"`
	ChatModel      string `yaml:"chat_model"`
	APIKeyEnv      string `yaml:"api_key_env,omitempty"`
}

// QueryConfig tunes the query resolution pipeline. MinScore and Temperature
// are pointers so an explicit zero in the file stays distinguishable from an
// unset field.
type QueryConfig struct {
	TopK         int      `yaml:"top_k"`
	MinScore     *float32 `yaml:"min_score,omitempty"`
	MaxAttempts  int      `yaml:"max_attempts"`
	RetryDelayMS int      `yaml:"retry_delay_ms"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
}

// Defaults for the optional query tuning values.
const (
	defaultMinScore    float32 = 0.25
	defaultTemperature float64 = 0.7
)

// MinScoreValue returns min_score, or its default when unset.
func (q QueryConfig) MinScoreValue() float32 {
	if q.MinScore == nil {
		return defaultMinScore
	}
	return *q.MinScore
}

// TemperatureValue returns temperature, or its default when unset.
func (q QueryConfig) TemperatureValue() float64 {
	if q.Temperature == nil {
		return defaultTemperature
	}
	return *q.Temperature
}

// IngestConfig tunes the catalog ingestion pipeline.
type IngestConfig struct {
	PoolSize  int `yaml:"pool_size"`
	BatchSize int `yaml:"batch_size"`
}

// Config is the root configuration, read once at startup and treated as
// immutable afterwards.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Index   IndexConfig   `yaml:"index"`
	AI      AIConfig      `yaml:"ai"`
	Query   QueryConfig   `yaml:"query"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// Load reads the configuration from a yaml file, loads a .env file when one
// exists, applies environment overrides and defaults, and validates the
// result. A missing config file yields defaults plus overrides.
func Load(path string) (*Config, error) {
	// A missing .env file is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// APIKey resolves the configured API key from the environment. Empty when no
// key variable is configured or set.
func (c *Config) APIKey() string {
	if c.AI.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.AI.APIKeyEnv)
}

// Validate checks cross-field consistency. Backend selection errors are
// fatal at startup.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("%w: catalog.path is required", ErrInvalidConfig)
	}

	switch c.Index.Backend {
	case IndexBackendMemory, IndexBackendBadger:
	default:
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidConfig, c.Index.Backend)
	}
	if c.Index.Backend == IndexBackendBadger && c.Index.Dir == "" {
		return fmt.Errorf("%w: index.dir is required for the badger backend", ErrInvalidConfig)
	}
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("%w: index.dimension must be greater than 0", ErrInvalidConfig)
	}

	switch c.AI.Backend {
	case AIBackendOpenAI, AIBackendAnthropic, AIBackendOllama:
	default:
		return fmt.Errorf("%w: unknown ai backend %q", ErrInvalidConfig, c.AI.Backend)
	}
	if c.AI.Backend == AIBackendAnthropic && c.APIKey() == "" {
		return fmt.Errorf("%w: the anthropic backend requires an api key", ErrInvalidConfig)
	}

	if c.Query.TopK < 1 {
		return fmt.Errorf("%w: query.top_k must be at least 1", ErrInvalidConfig)
	}
	if c.Query.MaxAttempts < 1 {
		return fmt.Errorf("%w: query.max_attempts must be at least 1", ErrInvalidConfig)
	}

	return nil
}

// Environment override variable names.
const (
	envCatalogPath  = "ESTATE_CATALOG_PATH"
	envIndexBackend = "ESTATE_INDEX_BACKEND"
	envIndexDir     = "ESTATE_INDEX_DIR"
	envSnapshotPath = "ESTATE_SNAPSHOT_PATH"
	envAIBackend    = "ESTATE_AI_BACKEND"
	envTopK         = "ESTATE_TOP_K"
)

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envCatalogPath); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv(envIndexBackend); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv(envIndexDir); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv(envSnapshotPath); v != "" {
		cfg.Index.SnapshotPath = v
	}
	if v := os.Getenv(envAIBackend); v != "" {
		cfg.AI.Backend = v
	}
	if v := os.Getenv(envTopK); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Query.TopK = k
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = IndexBackendMemory
	}
	if cfg.Index.Dimension == 0 {
		cfg.Index.Dimension = 384
	}

	if cfg.AI.Backend == "" {
		cfg.AI.Backend = AIBackendOllama
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "all-minilm"
	}
	if cfg.AI.ChatHost == "" {
		if cfg.AI.Backend == AIBackendOpenAI {
			cfg.AI.ChatHost = "https://api.openai.com/v1"
		} else {
			cfg.AI.ChatHost = "http://localhost:11434"
		}
	}
	if cfg.AI.ChatModel == "" {
		if cfg.AI.Backend == AIBackendOpenAI {
			cfg.AI.ChatModel = "gpt-4o-mini"
		} else {
			cfg.AI.ChatModel = "llama3.1:8b"
		}
	}
	if cfg.AI.APIKeyEnv == "" {
		switch cfg.AI.Backend {
		case AIBackendOpenAI:
			cfg.AI.APIKeyEnv = "OPENAI_API_KEY"
		case AIBackendAnthropic:
			cfg.AI.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	}

	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 5
	}
	if cfg.Query.MinScore == nil {
		v := defaultMinScore
		cfg.Query.MinScore = &v
	}
	if cfg.Query.MaxAttempts == 0 {
		cfg.Query.MaxAttempts = 3
	}
	if cfg.Query.RetryDelayMS == 0 {
		cfg.Query.RetryDelayMS = 500
	}
	if cfg.Query.MaxTokens == 0 {
		cfg.Query.MaxTokens = 1024
	}
	if cfg.Query.Temperature == nil {
		v := defaultTemperature
		cfg.Query.Temperature = &v
	}

	if cfg.Ingest.PoolSize == 0 {
		cfg.Ingest.PoolSize = 2
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 16
	}
}
