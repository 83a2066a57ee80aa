package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults fill unset fields", func(t *testing.T) {
		path := writeConfig(t, "catalog:\n  path: catalog.xml\n")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, IndexBackendMemory, cfg.Index.Backend)
		assert.Equal(t, 384, cfg.Index.Dimension)
		assert.Equal(t, AIBackendOllama, cfg.AI.Backend)
		assert.Equal(t, "all-minilm", cfg.AI.EmbeddingModel)
		assert.Equal(t, 5, cfg.Query.TopK)
		assert.Equal(t, 3, cfg.Query.MaxAttempts)
		assert.Equal(t, float32(0.25), cfg.Query.MinScoreValue())
		assert.Equal(t, 0.7, cfg.Query.TemperatureValue())
		assert.Equal(t, 16, cfg.Ingest.BatchSize)
	})

	t.Run("explicit zero temperature and min score are kept", func(t *testing.T) {
		path := writeConfig(t, `
catalog:
  path: catalog.xml
query:
  temperature: 0
  min_score: 0
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, float32(0), cfg.Query.MinScoreValue())
		assert.Equal(t, 0.0, cfg.Query.TemperatureValue())
	})

	t.Run("file values win over defaults", func(t *testing.T) {
		path := writeConfig(t, `
catalog:
  path: /data/feed.xml
  strict: true
index:
  backend: badger
  dimension: 768
  dir: /data/index
ai:
  backend: openai
  chat_model: gpt-4o-mini
query:
  top_k: 10
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "/data/feed.xml", cfg.Catalog.Path)
		assert.True(t, cfg.Catalog.Strict)
		assert.Equal(t, IndexBackendBadger, cfg.Index.Backend)
		assert.Equal(t, 768, cfg.Index.Dimension)
		assert.Equal(t, "gpt-4o-mini", cfg.AI.ChatModel)
		assert.Equal(t, "OPENAI_API_KEY", cfg.AI.APIKeyEnv)
		assert.Equal(t, 10, cfg.Query.TopK)
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("ESTATE_CATALOG_PATH", "/override/feed.xml")
		t.Setenv("ESTATE_TOP_K", "7")

		path := writeConfig(t, "catalog:\n  path: catalog.xml\nquery:\n  top_k: 3\n")
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "/override/feed.xml", cfg.Catalog.Path)
		assert.Equal(t, 7, cfg.Query.TopK)
	})

	t.Run("missing file falls back to env and defaults", func(t *testing.T) {
		t.Setenv("ESTATE_CATALOG_PATH", "/env/feed.xml")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "/env/feed.xml", cfg.Catalog.Path)
		assert.Equal(t, IndexBackendMemory, cfg.Index.Backend)
	})

	t.Run("unparseable file", func(t *testing.T) {
		path := writeConfig(t, "catalog: [broken")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrMalformedConfig)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Catalog: CatalogConfig{Path: "catalog.xml"}}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("requires catalog path", func(t *testing.T) {
		cfg := valid()
		cfg.Catalog.Path = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects unknown index backend", func(t *testing.T) {
		cfg := valid()
		cfg.Index.Backend = "faiss"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("badger backend requires dir", func(t *testing.T) {
		cfg := valid()
		cfg.Index.Backend = IndexBackendBadger
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

		cfg.Index.Dir = "/data/index"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects invalid dimension", func(t *testing.T) {
		cfg := valid()
		cfg.Index.Dimension = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects unknown ai backend", func(t *testing.T) {
		cfg := valid()
		cfg.AI.Backend = "mistral"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("anthropic requires api key", func(t *testing.T) {
		cfg := valid()
		cfg.AI.Backend = AIBackendAnthropic
		cfg.AI.APIKeyEnv = "ESTATE_TEST_ANTHROPIC_KEY"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

		t.Setenv("ESTATE_TEST_ANTHROPIC_KEY", "key-123")
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects invalid top k", func(t *testing.T) {
		cfg := valid()
		cfg.Query.TopK = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}
