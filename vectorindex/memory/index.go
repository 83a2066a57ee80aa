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


package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

// Index is a brute-force in-memory vector index. Optionally backed by a
// snapshot file for persistence across restarts.
type Index struct {
	mu           sync.RWMutex
	entries      map[string]vectorindex.Entry
	dimension    int
	snapshotPath string
	closed       bool
	logger       *slog.Logger
}

var _ vectorindex.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used by the index.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger
	}
}

// New creates an in-memory index with a fixed embedding dimensionality.
// snapshotPath may be empty, in which case Persist is a no-op and Reload
// reports vectorindex.ErrSnapshotUnavailable.
func New(dimension int, snapshotPath string, opts ...Option) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", vectorindex.ErrInvalidDimension, dimension)
	}

	idx := &Index{
		entries:      make(map[string]vectorindex.Entry),
		dimension:    dimension,
		snapshotPath: snapshotPath,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = idx.logger.With("component", "memory_index")

	return idx, nil
}

// Dimension returns the fixed embedding dimensionality.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Upsert adds or replaces entries keyed by identifier. The batch is applied
// atomically; a dimension mismatch anywhere in it leaves the index unchanged.
func (idx *Index) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, e := range entries {
		if len(e.Vector) != idx.dimension {
			return fmt.Errorf("%w: entry %q has %d dimensions, index has %d",
				vectorindex.ErrDimensionMismatch, e.ID, len(e.Vector), idx.dimension)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return vectorindex.ErrIndexClosed
	}
	for _, e := range entries {
		idx.entries[e.ID] = e
	}

	return nil
}

// Get returns the entry for an identifier.
func (idx *Index) Get(ctx context.Context, id string) (*vectorindex.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, vectorindex.ErrIndexClosed
	}
	entry, ok := idx.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorindex.ErrEntryNotFound, id)
	}

	return &entry, nil
}

// Search scans all entries and returns the k nearest by dot product.
// Vectors are expected to be unit length, making the score their cosine
// similarity.
func (idx *Index) Search(ctx context.Context, vector []float32, k int) ([]vectorindex.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", vectorindex.ErrInvalidLimit, k)
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			vectorindex.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, vectorindex.ErrIndexClosed
	}

	matches := make([]vectorindex.Match, 0, len(idx.entries))
	for _, e := range idx.entries {
		matches = append(matches, vectorindex.Match{
			ID:    e.ID,
			Score: vectorindex.Dot(vector, e.Vector),
			Meta:  e.Meta,
		})
	}

	return vectorindex.RankMatches(matches, k), nil
}

// Close marks the index closed. Further operations fail with
// vectorindex.ErrIndexClosed.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	return nil
}
