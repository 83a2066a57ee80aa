package vectorindex

import (
	"context"

	"github.com/LLabsTech/EstateSearchAI/core"
)

// Metadata is the minimal per-entry copy needed to render a search result
// without a second catalog lookup. Summary is the property's rendered
// display text, used verbatim as grounding context for answer generation.
type Metadata struct {
	Town    string
	Price   float64
	Type    core.PropertyType
	Summary string
}

// Entry is one indexed vector record, related one-to-one to a property
// record through its identifier.
type Entry struct {
	ID     string
	Vector []float32
	Meta   Metadata
}

// Match is one similarity-search hit.
type Match struct {
	ID    string
	Score float32
	Meta  Metadata
}

// Index is the uniform contract over interchangeable vector backends.
// Search calls may run fully in parallel; Upsert, Persist and Reload are
// administrative operations the caller serializes against the serving path.
type Index interface {
	// Dimension returns the fixed embedding dimensionality of the index.
	// Every entry carries a vector of exactly this length; mixing
	// dimensionalities within one index is a fatal configuration error.
	Dimension() int

	// Len returns the number of indexed entries.
	Len() int

	// Upsert adds or replaces entries, keyed by identifier. Re-upserting an
	// identifier replaces its prior entry, never duplicates it.
	Upsert(ctx context.Context, entries []Entry) error

	// Get returns the entry for an identifier, or ErrEntryNotFound.
	Get(ctx context.Context, id string) (*Entry, error)

	// Search returns up to k matches ordered by descending similarity score,
	// ties broken by ascending identifier. k larger than the index size
	// returns all entries; an empty index returns an empty slice; k < 1 is
	// ErrInvalidLimit; a query vector of the wrong length is
	// ErrDimensionMismatch.
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Persist flushes in-memory state to durable storage. Safe to call
	// redundantly; a no-op for backends that are durable on write.
	Persist(ctx context.Context) error

	// Reload discards in-memory state and reconstructs it from durable
	// storage. If reconstruction fails partway the index keeps its prior
	// good state.
	Reload(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
