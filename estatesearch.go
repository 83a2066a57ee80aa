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


package estatesearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/LLabsTech/EstateSearchAI/ai/anthropic"
	"github.com/LLabsTech/EstateSearchAI/ai/ollama"
	"github.com/LLabsTech/EstateSearchAI/ai/openai"
	"github.com/LLabsTech/EstateSearchAI/catalog"
	"github.com/LLabsTech/EstateSearchAI/config"
	"github.com/LLabsTech/EstateSearchAI/ingestion"
	"github.com/LLabsTech/EstateSearchAI/query"
	"github.com/LLabsTech/EstateSearchAI/vectorindex"
	"github.com/LLabsTech/EstateSearchAI/vectorindex/badger"
	"github.com/LLabsTech/EstateSearchAI/vectorindex/memory"
)

// Assistant wires the configured vector index, embedder and generator into
// a ready query pipeline. Construction fails on any backend configuration
// error rather than deferring it to the first query.
type Assistant struct {
	cfg       *config.Config
	index     vectorindex.Index
	embedder  ai.Embedder
	generator ai.Generator
	resolver  *query.Resolver
	pipeline  *ingestion.Pipeline
	logger    *slog.Logger

	// Serializes index rebuilds against each other. Searches stay
	// lock-free; upsert replaces entries keyed by identifier, so queries
	// during a rebuild see a consistent if partially refreshed index.
	reloadMu sync.Mutex
}

// Option configures an Assistant.
type Option func(*assistantOptions)

type assistantOptions struct {
	logger *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *assistantOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewAssistant builds an assistant from the startup configuration.
func NewAssistant(cfg *config.Config, opts ...Option) (*Assistant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration required", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &assistantOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	index, err := newIndex(cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		index.Close()
		return nil, err
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		index.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(index, embedder, cfg.Catalog.Path,
		ingestion.WithPoolSize(cfg.Ingest.PoolSize),
		ingestion.WithBatchSize(cfg.Ingest.BatchSize),
		ingestion.WithStrict(cfg.Catalog.Strict),
		ingestion.WithLogger(logger),
	)
	if err != nil {
		index.Close()
		return nil, err
	}

	resolver, err := query.NewResolver(index, embedder, generator,
		query.WithTopK(cfg.Query.TopK),
		query.WithMinScore(cfg.Query.MinScoreValue()),
		query.WithRetry(cfg.Query.MaxAttempts, time.Duration(cfg.Query.RetryDelayMS)*time.Millisecond),
		query.WithGenerateOptions(&ai.GenerateOptions{
			MaxTokens:   cfg.Query.MaxTokens,
			Temperature: cfg.Query.TemperatureValue(),
		}),
		query.WithLogger(logger),
	)
	if err != nil {
		pipeline.Release()
		index.Close()
		return nil, err
	}

	return &Assistant{
		cfg:       cfg,
		index:     index,
		embedder:  embedder,
		generator: generator,
		resolver:  resolver,
		pipeline:  pipeline,
		logger:    logger,
	}, nil
}

// newIndex builds the configured vector index backend.
func newIndex(cfg *config.Config, logger *slog.Logger) (vectorindex.Index, error) {
	switch cfg.Index.Backend {
	case config.IndexBackendMemory:
		return memory.New(cfg.Index.Dimension, cfg.Index.SnapshotPath,
			memory.WithLogger(logger))
	case config.IndexBackendBadger:
		return badger.Open(cfg.Index.Dir, cfg.Index.Dimension,
			badger.WithLogger(logger))
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q",
			config.ErrInvalidConfig, cfg.Index.Backend)
	}
}

// newEmbedder builds the query and ingestion embedder. Embedding always goes
// through an OpenAI-compatible endpoint regardless of the chat backend.
func newEmbedder(cfg *config.Config) (ai.Embedder, error) {
	return openai.NewEmbedder(ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithAPIKey(cfg.APIKey()),
	))
}

// newGenerator builds the configured answer generator.
func newGenerator(cfg *config.Config) (ai.Generator, error) {
	switch cfg.AI.Backend {
	case config.AIBackendOpenAI:
		return openai.NewGenerator(ai.NewConfig(
			ai.WithChatHost(cfg.AI.ChatHost),
			ai.WithChatModel(cfg.AI.ChatModel),
			ai.WithAPIKey(cfg.APIKey()),
		))
	case config.AIBackendAnthropic:
		return anthropic.NewGenerator(cfg.APIKey(), cfg.AI.ChatModel)
	case config.AIBackendOllama:
		return ollama.NewGenerator(cfg.AI.ChatHost, cfg.AI.ChatModel)
	default:
		return nil, fmt.Errorf("%w: unknown ai backend %q",
			config.ErrInvalidConfig, cfg.AI.Backend)
	}
}

// Ask resolves one natural language property query.
func (a *Assistant) Ask(ctx context.Context, text string) (*query.Answer, error) {
	return a.resolver.Resolve(ctx, text)
}

// Search returns the raw ranked matches for a query without generating an
// answer. Used by transports that render supporting listings themselves.
func (a *Assistant) Search(ctx context.Context, text string, k int) ([]vectorindex.Match, error) {
	vector, err := a.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return a.index.Search(ctx, vectorindex.Normalize(vector), k)
}

// Listings returns the stored display summaries for the given property
// identifiers, in the same order. Unknown identifiers are skipped.
func (a *Assistant) Listings(ctx context.Context, ids []string) []string {
	summaries := make([]string, 0, len(ids))
	for _, id := range ids {
		entry, err := a.index.Get(ctx, id)
		if err != nil {
			a.logger.Warn("error looking up listing", "id", id, "err", err)
			continue
		}
		summary := entry.Meta.Summary
		if summary == "" {
			summary = fmt.Sprintf("Property %s in %s", entry.ID, entry.Meta.Town)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Restore loads previously persisted index state without touching the
// catalog or the embedder. Returns vectorindex.ErrSnapshotUnavailable when
// no persisted state exists yet.
func (a *Assistant) Restore(ctx context.Context) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	if err := a.index.Reload(ctx); err != nil {
		return err
	}
	a.logger.Info("restored persisted index", "entries", a.index.Len())
	return nil
}

// ReloadVectors rebuilds the vector index from the configured catalog.
// Safe to call while queries are being served; concurrent rebuilds are
// serialized.
func (a *Assistant) ReloadVectors(ctx context.Context) (*catalog.Report, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	a.logger.Info("rebuilding vector index from catalog", "path", a.cfg.Catalog.Path)
	return a.pipeline.Rebuild(ctx)
}

// IndexSize returns the number of indexed properties.
func (a *Assistant) IndexSize() int {
	return a.index.Len()
}

// Close releases the ingestion pool and the index backend.
func (a *Assistant) Close() error {
	a.pipeline.Release()
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector index", "err", err)
		return err
	}
	return nil
}
