package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/manuscript/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 1, cfg.Ingest.MinBlankLines)
	assert.Equal(t, "prose", cfg.Ingest.Segmenter)
	assert.Equal(t, 0.86, cfg.Cluster.SimilarityThreshold)
	assert.Equal(t, BackendHugot, cfg.NER.Backend)
	assert.True(t, cfg.Coref.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, model.DefaultClusterConfig(), cfg.ClusterConfig())
}

func TestLoad(t *testing.T) {
	t.Run("Missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))

		require.NoError(t, err)
		assert.Equal(t, Defaults(), cfg)
	})

	t.Run("Values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
[ingest]
min_blank_lines = 2
segmenter = "regex"

[cluster]
similarity_threshold = 0.9

[cluster.kind_priority]
location = 0
PERSON = 1

[ner]
backend = "prose"
workers = 8

[coref]
enabled = false

[database]
enabled = true
embed_names = true
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Ingest.MinBlankLines)
		assert.Equal(t, "regex", cfg.Ingest.Segmenter)
		assert.Equal(t, BackendProse, cfg.NER.Backend)
		assert.Equal(t, 8, cfg.NER.Workers)
		assert.Equal(t, "KnightsAnalytics/distilbert-NER", cfg.NER.Model, "Expected unset keys to keep their defaults")
		assert.False(t, cfg.Coref.Enabled)
		assert.True(t, cfg.Database.Enabled)
		assert.True(t, cfg.Database.EmbedNames)

		cc := cfg.ClusterConfig()
		assert.Equal(t, 0.9, cc.SimilarityThreshold)
		assert.Equal(t, 0, cc.Priority(model.KindLocation))
		assert.Equal(t, 1, cc.Priority(model.KindPerson))
		assert.Equal(t, 2, cc.Priority(model.KindOrganization))
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[ingest\nmin_blank_lines = "))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode config")
	})

	t.Run("Threshold out of range", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[cluster]\nsimilarity_threshold = 1.5\n"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "similarity_threshold")
	})

	t.Run("Unknown backend", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[ner]\nbackend = \"spacy\"\n"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown ner backend")
	})

	t.Run("Unknown kind in priority table", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[cluster.kind_priority]\nweapon = 4\n"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "weapon")
	})
}
