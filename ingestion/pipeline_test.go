package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LLabsTech/EstateSearchAI/ai/mock"
	"github.com/LLabsTech/EstateSearchAI/catalog"
	"github.com/LLabsTech/EstateSearchAI/vectorindex"
	"github.com/LLabsTech/EstateSearchAI/vectorindex/memory"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <property>
    <id>1</id>
    <price>140000</price>
    <type>villa</type>
    <town>Torrevieja</town>
    <beds>3</beds>
    <desc><en>Detached villa with private pool in Torrevieja.</en></desc>
  </property>
  <property>
    <id>2</id>
    <price>95000</price>
    <type>apartment</type>
    <town>Guardamar</town>
    <beds>2</beds>
    <desc><en>Beach apartment in Guardamar.</en></desc>
  </property>
  <property>
    <price>50000</price>
    <town>Nowhere</town>
  </property>
</root>`

func writeTestFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.xml")
	require.NoError(t, os.WriteFile(path, []byte(testFeed), 0644))
	return path
}

func newTestIndex(t *testing.T, dimension int) *memory.Index {
	t.Helper()
	idx, err := memory.New(dimension, "")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestNewPipeline(t *testing.T) {
	idx := newTestIndex(t, mock.DefaultDimension)
	embedder := mock.NewMockEmbedder()

	t.Run("requires index", func(t *testing.T) {
		_, err := NewPipeline(nil, embedder, "catalog.xml")
		assert.ErrorIs(t, err, ErrIndexRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewPipeline(idx, nil, "catalog.xml")
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("requires catalog path", func(t *testing.T) {
		_, err := NewPipeline(idx, embedder, "")
		assert.ErrorIs(t, err, ErrCatalogPathRequired)
	})
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes accepted properties", func(t *testing.T) {
		idx := newTestIndex(t, mock.DefaultDimension)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), writeTestFeed(t))
		require.NoError(t, err)
		defer p.Release()

		report, err := p.Rebuild(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Accepted)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("strict mode fails on malformed entry", func(t *testing.T) {
		idx := newTestIndex(t, mock.DefaultDimension)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), writeTestFeed(t), WithStrict(true))
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		require.Error(t, err)
		assert.Equal(t, 0, idx.Len())
	})

	t.Run("rerun over unchanged catalog is idempotent", func(t *testing.T) {
		idx := newTestIndex(t, mock.DefaultDimension)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), writeTestFeed(t))
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		require.NoError(t, err)
		query := mock.TokenVector("villa in Torrevieja", mock.DefaultDimension)
		before, err := idx.Search(ctx, query, 2)
		require.NoError(t, err)

		_, err = p.Rebuild(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Len())
		after, err := idx.Search(ctx, query, 2)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("indexed vectors match query topically", func(t *testing.T) {
		idx := newTestIndex(t, mock.DefaultDimension)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), writeTestFeed(t), WithBatchSize(1))
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		require.NoError(t, err)

		query := mock.TokenVector("3 bedroom villa in Torrevieja", mock.DefaultDimension)
		matches, err := idx.Search(ctx, query, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "1", matches[0].ID)
		assert.Equal(t, "Torrevieja", matches[0].Meta.Town)
		assert.Greater(t, matches[0].Score, matches[1].Score)
	})

	t.Run("embedder failure aborts the rebuild", func(t *testing.T) {
		idx := newTestIndex(t, mock.DefaultDimension)
		embedder := mock.NewMockEmbedder()
		wantErr := errors.New("embedding service down")
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, wantErr
		}

		p, err := NewPipeline(idx, embedder, writeTestFeed(t))
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("dimension mismatch aborts the rebuild", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), writeTestFeed(t))
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)
	})

	t.Run("missing catalog file", func(t *testing.T) {
		idx := newTestIndex(t, mock.DefaultDimension)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), filepath.Join(t.TempDir(), "absent.xml"))
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		require.Error(t, err)
	})

	t.Run("duplicate identifiers are always fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.xml")
		feed := `<root>
		  <property><id>7</id><town>Orihuela</town><price>100000</price></property>
		  <property><id>7</id><town>Orihuela</town><price>120000</price></property>
		</root>`
		require.NoError(t, os.WriteFile(path, []byte(feed), 0644))

		idx := newTestIndex(t, mock.DefaultDimension)
		p, err := NewPipeline(idx, mock.NewMockEmbedder(), path)
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Rebuild(ctx)
		assert.ErrorIs(t, err, catalog.ErrDuplicateID)
	})
}
