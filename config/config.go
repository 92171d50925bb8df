package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
)

// Config holds all user-facing configuration for a catalog run.
// Database credentials are not part of it, they come from the environment.
type Config struct {
	Ingest   IngestConfig   `toml:"ingest"`
	Cluster  ClusterConfig  `toml:"cluster"`
	NER      NERConfig      `toml:"ner"`
	Coref    CorefConfig    `toml:"coref"`
	Database DatabaseConfig `toml:"database"`
}

type IngestConfig struct {
	MinBlankLines int    `toml:"min_blank_lines"`
	Segmenter     string `toml:"segmenter"`
}

type ClusterConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// KindPriority overrides the default catalog order per kind, keys are case-insensitive
	KindPriority map[string]int `toml:"kind_priority"`
}

type NERConfig struct {
	Backend  string `toml:"backend"`
	Model    string `toml:"model"`
	ModelDir string `toml:"model_dir"`
	Workers  int    `toml:"workers"`
}

type CorefConfig struct {
	Enabled bool `toml:"enabled"`
}

type DatabaseConfig struct {
	Enabled    bool   `toml:"enabled"`
	EmbedNames bool   `toml:"embed_names"`
	EmbedModel string `toml:"embed_model"`
}

const (
	BackendProse = "prose"
	BackendHugot = "hugot"
)

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Ingest:  IngestConfig{MinBlankLines: 1, Segmenter: "prose"},
		Cluster: ClusterConfig{SimilarityThreshold: model.DefaultSimilarityThreshold},
		NER: NERConfig{
			Backend:  BackendHugot,
			Model:    "KnightsAnalytics/distilbert-NER",
			ModelDir: helper.ModelDir,
			Workers:  4,
		},
		Coref:    CorefConfig{Enabled: true},
		Database: DatabaseConfig{EmbedModel: "sentence-transformers/all-MiniLM-L6-v2"},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, helper.NewError("decode config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values no component can work with
func (c *Config) Validate() error {
	if c.Cluster.SimilarityThreshold < 0 || c.Cluster.SimilarityThreshold > 1 {
		return helper.NewError("validate config", fmt.Errorf("similarity_threshold must be within [0, 1], got %v", c.Cluster.SimilarityThreshold))
	}
	if c.Ingest.MinBlankLines < 0 {
		return helper.NewError("validate config", fmt.Errorf("min_blank_lines must not be negative, got %d", c.Ingest.MinBlankLines))
	}
	switch strings.ToLower(c.NER.Backend) {
	case BackendProse, BackendHugot:
	default:
		return helper.NewError("validate config", fmt.Errorf("unknown ner backend %q", c.NER.Backend))
	}
	for k := range c.Cluster.KindPriority {
		if !model.Kind(strings.ToUpper(k)).Valid() {
			return helper.NewError("validate config", fmt.Errorf("unknown kind %q in kind_priority", k))
		}
	}
	return nil
}

// ClusterConfig converts the [cluster] section for the clustering engine
func (c *Config) ClusterConfig() model.ClusterConfig {
	cc := model.DefaultClusterConfig()
	cc.SimilarityThreshold = c.Cluster.SimilarityThreshold
	for k, p := range c.Cluster.KindPriority {
		cc.KindPriority[model.Kind(strings.ToUpper(k))] = p
	}
	return cc
}
