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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/LLabsTech/EstateSearchAI/catalog"
	"github.com/LLabsTech/EstateSearchAI/core"
	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

const defaultBatchSize = 16

// Pipeline rebuilds the vector index from a property catalog file. Batches
// of properties are embedded concurrently on a worker pool and upserted into
// the index keyed by property identifier, so a rebuild over an unchanged
// catalog leaves the index semantically identical.
type Pipeline struct {
	index       vectorindex.Index
	embedder    ai.Embedder
	catalogPath string
	pool        *ants.Pool
	batchSize   int
	strict      bool
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many properties are embedded per request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithStrict makes malformed catalog entries fail the rebuild instead of
// being skipped with a warning.
func WithStrict(strict bool) Option {
	return func(p *Pipeline) error {
		p.strict = strict
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a rebuild pipeline over the given index and embedder.
func NewPipeline(index vectorindex.Index, embedder ai.Embedder, catalogPath string, opts ...Option) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if catalogPath == "" {
		return nil, ErrCatalogPathRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		index:       index,
		embedder:    embedder,
		catalogPath: catalogPath,
		pool:        pool,
		batchSize:   defaultBatchSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Rebuild loads the catalog, embeds every accepted property and upserts the
// results into the index. The returned report carries accepted and skipped
// counts plus per-entry warnings. Embedding and index errors abort the
// rebuild; already upserted batches remain in the index but are keyed by
// identifier, so rerunning converges to the same state.
func (p *Pipeline) Rebuild(ctx context.Context) (*catalog.Report, error) {
	properties, report, err := catalog.LoadFile(p.catalogPath, catalog.Options{
		Strict: p.strict,
		Logger: p.logger,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("rebuilding vector index",
		"accepted", report.Accepted,
		"skipped", report.Skipped)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < len(properties); start += p.batchSize {
		end := start + p.batchSize
		if end > len(properties) {
			end = len(properties)
		}
		batch := properties[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.embedBatch(ctx, batch); err != nil {
				setErr(err)
			}
		})
		if submitErr != nil {
			wg.Done()
			setErr(submitErr)
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if err := p.index.Persist(ctx); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	p.logger.Info("vector index rebuilt", "entries", p.index.Len())

	return report, nil
}

// embedBatch embeds one batch of properties and upserts it.
func (p *Pipeline) embedBatch(ctx context.Context, batch []core.Property) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].EmbeddingText()
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d, received %d",
			ErrEmbeddingCountMismatch, len(batch), len(vectors))
	}

	entries := make([]vectorindex.Entry, len(batch))
	for i := range batch {
		if len(vectors[i]) != p.index.Dimension() {
			return fmt.Errorf("%w: embedder returned %d dimensions, index has %d",
				vectorindex.ErrDimensionMismatch, len(vectors[i]), p.index.Dimension())
		}
		entries[i] = vectorindex.Entry{
			ID:     batch[i].ID,
			Vector: vectorindex.Normalize(vectors[i]),
			Meta: vectorindex.Metadata{
				Town:    batch[i].Town,
				Price:   batch[i].Price,
				Type:    batch[i].Type,
				Summary: batch[i].DisplayText(),
			},
		}
	}

	return p.index.Upsert(ctx, entries)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
