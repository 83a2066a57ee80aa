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


package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

// Key layout inside the database.
const (
	entryPrefix      = "prop:"
	dimensionMetaKey = "meta:dimension"
)

// Index is a durable vector index backed by BadgerDB. Entries survive
// restarts without an explicit snapshot step; Persist only forces an fsync.
type Index struct {
	db        *badger.DB
	dimension int
	inMemory  bool
	logger    *slog.Logger
}

var _ vectorindex.Index = (*Index)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Option configures an Index.
type Option func(*openConfig)

type openConfig struct {
	logger   *slog.Logger
	inMemory bool
}

// WithLogger sets the logger used by the index and the underlying database.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *openConfig) {
		cfg.logger = logger
	}
}

// WithInMemory runs the database fully in memory, for tests.
func WithInMemory() Option {
	return func(cfg *openConfig) {
		cfg.inMemory = true
	}
}

// Open opens or creates a badger-backed index at dir. The dimensionality of
// an existing database is fixed at creation; opening with a different value
// fails with vectorindex.ErrDimensionMismatch.
func Open(dir string, dimension int, opts ...Option) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", vectorindex.ErrInvalidDimension, dimension)
	}

	cfg := &openConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger.With("component", "badger_index")

	var dbOpts badger.Options
	if cfg.inMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		dbOpts = badger.DefaultOptions(dir)
	}
	dbOpts.Logger = &badgerLoggerAdapter{logger: logger}
	dbOpts.Compression = options.None

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &Index{
		db:        db,
		dimension: dimension,
		inMemory:  cfg.inMemory,
		logger:    logger,
	}
	if err := idx.checkDimension(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// checkDimension verifies the stored dimensionality against the configured
// one, writing it on first open.
func (idx *Index) checkDimension() error {
	return idx.db.Update(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(dimensionMetaKey))
		if err == badger.ErrKeyNotFound {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(idx.dimension))
			return tx.Set([]byte(dimensionMetaKey), buf[:])
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored := int(binary.LittleEndian.Uint32(val))
			if stored != idx.dimension {
				return fmt.Errorf("%w: database has %d dimensions, configured %d",
					vectorindex.ErrDimensionMismatch, stored, idx.dimension)
			}
			return nil
		})
	})
}

// Dimension returns the fixed embedding dimensionality.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	count := 0
	err := idx.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		idx.logger.Error("counting entries", "error", err)
		return 0
	}
	return count
}

// Upsert adds or replaces entries keyed by identifier in one transaction.
func (idx *Index) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.db.IsClosed() {
		return vectorindex.ErrIndexClosed
	}

	for _, e := range entries {
		if len(e.Vector) != idx.dimension {
			return fmt.Errorf("%w: entry %q has %d dimensions, index has %d",
				vectorindex.ErrDimensionMismatch, e.ID, len(e.Vector), idx.dimension)
		}
	}

	wb := idx.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range entries {
		data, err := vectorindex.MarshalEntry(&e)
		if err != nil {
			return fmt.Errorf("encoding entry %q: %w", e.ID, err)
		}
		if err := wb.Set(makeEntryKey(e.ID), data); err != nil {
			return fmt.Errorf("writing entry %q: %w", e.ID, err)
		}
	}

	return wb.Flush()
}

// Get returns the entry for an identifier.
func (idx *Index) Get(ctx context.Context, id string) (*vectorindex.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx.db.IsClosed() {
		return nil, vectorindex.ErrIndexClosed
	}

	var entry *vectorindex.Entry
	err := idx.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", vectorindex.ErrEntryNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, _, err = vectorindex.UnmarshalEntry(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Search scans all entries and returns the k nearest by dot product.
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
	if idx.db.IsClosed() {
		return nil, vectorindex.ErrIndexClosed
	}

	var matches []vectorindex.Match
	err := idx.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, _, err := vectorindex.UnmarshalEntry(val)
				if err != nil {
					return err
				}
				matches = append(matches, vectorindex.Match{
					ID:    entry.ID,
					Score: vectorindex.Dot(vector, entry.Vector),
					Meta:  entry.Meta,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if matches == nil {
		matches = []vectorindex.Match{}
	}

	return vectorindex.RankMatches(matches, k), nil
}

// Persist forces an fsync of pending writes. Badger is durable on commit, so
// this only tightens the window around an OS crash.
func (idx *Index) Persist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.db.IsClosed() {
		return vectorindex.ErrIndexClosed
	}
	if idx.inMemory {
		return nil
	}
	return idx.db.Sync()
}

// Reload validates every stored entry against the wire format and the
// configured dimensionality. The database itself is the durable state, so
// nothing is re-read into memory.
func (idx *Index) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.db.IsClosed() {
		return vectorindex.ErrIndexClosed
	}

	count := 0
	err := idx.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, _, err := vectorindex.UnmarshalEntry(val)
				if err != nil {
					return fmt.Errorf("%w: %v", vectorindex.ErrSnapshotCorrupt, err)
				}
				if len(entry.Vector) != idx.dimension {
					return fmt.Errorf("%w: entry %q has %d dimensions",
						vectorindex.ErrSnapshotCorrupt, entry.ID, len(entry.Vector))
				}
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	idx.logger.Info("validated index entries", "entries", count)

	return nil
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func makeEntryKey(id string) []byte {
	return []byte(entryPrefix + id)
}
