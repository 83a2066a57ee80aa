package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LLabsTech/EstateSearchAI/ai"
	"github.com/LLabsTech/EstateSearchAI/ai/mock"
	"github.com/LLabsTech/EstateSearchAI/core"
	"github.com/LLabsTech/EstateSearchAI/vectorindex"
	"github.com/LLabsTech/EstateSearchAI/vectorindex/memory"
)

// indexedProperty builds an index entry the same way ingestion does.
func indexedProperty(t *testing.T, p *core.Property) vectorindex.Entry {
	t.Helper()
	return vectorindex.Entry{
		ID:     p.ID,
		Vector: vectorindex.Normalize(mock.TokenVector(p.EmbeddingText(), mock.DefaultDimension)),
		Meta: vectorindex.Metadata{
			Town:    p.Town,
			Price:   p.Price,
			Type:    p.Type,
			Summary: p.DisplayText(),
		},
	}
}

func seededIndex(t *testing.T) *memory.Index {
	t.Helper()

	idx, err := memory.New(mock.DefaultDimension, "")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	villa := &core.Property{
		ID: "1", Town: "Torrevieja", Price: 140000, Type: core.PropertyTypeVilla,
		Beds: 3, Baths: 2,
		Description: "Detached 3 bedroom villa in Torrevieja with private pool",
	}
	apartment := &core.Property{
		ID: "2", Town: "Guardamar", Price: 95000, Type: core.PropertyTypeApartment,
		Beds: 2, Baths: 1,
		Description: "2 bedroom apartment in Guardamar near the beach",
	}

	require.NoError(t, idx.Upsert(context.Background(), []vectorindex.Entry{
		indexedProperty(t, villa),
		indexedProperty(t, apartment),
	}))

	return idx
}

func newTestResolver(t *testing.T, idx vectorindex.Index, generator ai.Generator, opts ...Option) *Resolver {
	t.Helper()

	embedder := mock.NewMockEmbedder()
	base := []Option{
		WithMinScore(0.01),
		WithRetry(3, time.Millisecond),
	}
	r, err := NewResolver(idx, embedder, generator, append(base, opts...)...)
	require.NoError(t, err)
	return r
}

func TestNewResolver(t *testing.T) {
	idx := seededIndex(t)
	embedder := mock.NewMockEmbedder()
	generator := mock.NewMockGenerator()

	t.Run("requires index", func(t *testing.T) {
		_, err := NewResolver(nil, embedder, generator)
		assert.ErrorIs(t, err, ErrIndexRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewResolver(idx, nil, generator)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("requires generator", func(t *testing.T) {
		_, err := NewResolver(idx, embedder, nil)
		assert.ErrorIs(t, err, ErrGeneratorRequired)
	})

	t.Run("rejects invalid top k", func(t *testing.T) {
		_, err := NewResolver(idx, embedder, generator, WithTopK(0))
		assert.ErrorIs(t, err, vectorindex.ErrInvalidLimit)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks matching villa above apartment", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.Response = "Listing 1 is a 3 bedroom villa in Torrevieja."
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "3 bedroom villa in Torrevieja")
		require.NoError(t, err)

		assert.Equal(t, generator.Response, answer.Text)
		require.Equal(t, []string{"1", "2"}, answer.SupportingIDs)

		prompt := generator.LastPrompt()
		assert.Contains(t, prompt, "Torrevieja")
		assert.Contains(t, prompt, "Guardamar")
		assert.Less(t,
			strings.Index(prompt, "Torrevieja"),
			strings.Index(prompt, "Guardamar"))
		assert.Contains(t, prompt, "3 bedroom villa in Torrevieja")
	})

	t.Run("unrelated query yields empty supporting ids", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.Response = "No matching properties were found."
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "orbital telescope maintenance manual")
		require.NoError(t, err)

		assert.NotEmpty(t, answer.Text)
		assert.Empty(t, answer.SupportingIDs)
		assert.Contains(t, generator.LastPrompt(), "No matching property listings were found")
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		r := newTestResolver(t, seededIndex(t), mock.NewMockGenerator())
		_, err := r.Resolve(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("succeeds on final retry attempt", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		calls := 0
		generator.GenerateFunc = func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
			calls++
			if calls < 3 {
				return "", ai.ErrGenerationUnavailable
			}
			return "Recovered answer.", nil
		}
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "villa in Torrevieja")
		require.NoError(t, err)
		assert.Equal(t, "Recovered answer.", answer.Text)
		assert.Equal(t, 3, calls)
	})

	t.Run("degrades after retries are exhausted", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateFunc = func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
			return "", ai.ErrGenerationUnavailable
		}
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "villa in Torrevieja")
		require.NoError(t, err)
		assert.Equal(t, DegradedAnswer, answer.Text)
		assert.Empty(t, answer.SupportingIDs)
		assert.Equal(t, 3, generator.CallCount())
	})

	t.Run("context overflow halves listings and retries once", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		overflowed := false
		generator.GenerateFunc = func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
			if !overflowed {
				overflowed = true
				return "", ai.ErrContextOverflow
			}
			return "Short answer.", nil
		}
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "3 bedroom villa in Torrevieja")
		require.NoError(t, err)
		assert.Equal(t, "Short answer.", answer.Text)
		// Two listings halve to one, so only the villa remains grounded.
		assert.Equal(t, []string{"1"}, answer.SupportingIDs)
		assert.Equal(t, 2, generator.CallCount())
		assert.NotContains(t, generator.LastPrompt(), "Guardamar")
	})

	t.Run("persistent overflow degrades", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateFunc = func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
			return "", ai.ErrContextOverflow
		}
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "villa in Torrevieja")
		require.NoError(t, err)
		assert.Equal(t, DegradedAnswer, answer.Text)
	})

	t.Run("empty generation degrades after retries", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		generator.GenerateFunc = func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
			return "", ai.ErrGenerationEmpty
		}
		r := newTestResolver(t, seededIndex(t), generator)

		answer, err := r.Resolve(ctx, "villa in Torrevieja")
		require.NoError(t, err)
		assert.Equal(t, DegradedAnswer, answer.Text)
	})

	t.Run("respects top k", func(t *testing.T) {
		generator := mock.NewMockGenerator()
		r := newTestResolver(t, seededIndex(t), generator, WithTopK(1))

		answer, err := r.Resolve(ctx, "3 bedroom villa in Torrevieja")
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, answer.SupportingIDs)
	})
}

func TestBuildPrompt(t *testing.T) {
	matches := []vectorindex.Match{
		{ID: "1", Score: 0.91, Meta: vectorindex.Metadata{Town: "Torrevieja", Summary: "Villa Sol (villa)\nLocation: Torrevieja"}},
		{ID: "2", Score: 0.42, Meta: vectorindex.Metadata{Town: "Guardamar"}},
	}

	prompt := buildPrompt("villa with pool", matches)
	assert.Contains(t, prompt, "Listing 1 (91% match):")
	assert.Contains(t, prompt, "Villa Sol (villa)")
	// Entries without a stored summary fall back to a minimal line.
	assert.Contains(t, prompt, "Property 2 in Guardamar")
	assert.Contains(t, prompt, "Question: villa with pool")
}
