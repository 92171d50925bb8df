package manuscript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/manuscript/config"
	"github.com/siherrmann/manuscript/core/cluster"
	"github.com/siherrmann/manuscript/core/ingest"
	"github.com/siherrmann/manuscript/core/pipeline"
	"github.com/siherrmann/manuscript/database"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
	loadSql "github.com/siherrmann/manuscript/sql"
)

// Cataloger ties ingest, mention extraction, clustering and optional persistence together
type Cataloger struct {
	Ingester *ingest.Ingester
	Pipeline *pipeline.Pipeline
	Cluster  model.ClusterConfig
	// Optional, set with ConnectDatabase
	DB    *helper.Database
	Store *database.CatalogDBHandler
	// Optional, used to store name vectors alongside stored entities
	Embedder pipeline.Embedder
	// Logging
	log *slog.Logger
}

// Result is everything a single catalog run produced
type Result struct {
	Chapters []model.Chapter
	Mentions []model.Mention
	Catalog  *model.Catalog
	Stats    cluster.Stats
}

// NewCataloger creates a Cataloger from already built collaborators
func NewCataloger(ingester *ingest.Ingester, p *pipeline.Pipeline, clusterConfig model.ClusterConfig, logger *slog.Logger) *Cataloger {
	if logger == nil {
		logger = helper.DiscardLogger()
	}
	if ingester == nil {
		ingester = ingest.NewIngester(1, nil, logger)
	}

	return &Cataloger{
		Ingester: ingester,
		Pipeline: p,
		Cluster:  clusterConfig,
		log:      logger,
	}
}

// NewCatalogerFromConfig builds the recogniser, coreference and ingest collaborators named by cfg.
// The database is not connected, call ConnectDatabase for that.
func NewCatalogerFromConfig(cfg *config.Config, logger *slog.Logger) (*Cataloger, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = helper.DiscardLogger()
	}
	if cfg.NER.ModelDir != "" {
		helper.ModelDir = cfg.NER.ModelDir
	}

	var recognizer pipeline.Recognizer
	switch strings.ToLower(cfg.NER.Backend) {
	case config.BackendProse:
		recognizer = pipeline.NewProseRecognizer()
	case config.BackendHugot:
		hugotRecognizer, err := pipeline.NewHugotRecognizer(cfg.NER.Model)
		if err != nil {
			return nil, helper.NewError("create hugot recognizer", err)
		}
		recognizer = hugotRecognizer
	default:
		return nil, helper.NewError("create recognizer", fmt.Errorf("unknown ner backend %q", cfg.NER.Backend))
	}

	var coreference pipeline.Coreference = pipeline.NoCoreference{}
	if cfg.Coref.Enabled {
		heuristic, err := pipeline.NewHeuristicCoreference()
		if err != nil {
			recognizer.Close()
			return nil, helper.NewError("create coreference", err)
		}
		coreference = heuristic
	}

	ingester := ingest.NewIngester(cfg.Ingest.MinBlankLines, ingest.NewSegmenter(cfg.Ingest.Segmenter), logger)
	p := pipeline.NewPipeline(recognizer, coreference, cfg.NER.Workers, logger)

	c := NewCataloger(ingester, p, cfg.ClusterConfig(), logger)

	if cfg.Database.EmbedNames {
		embedder, err := pipeline.NewHugotEmbedder(cfg.Database.EmbedModel)
		if err != nil {
			c.Close()
			return nil, helper.NewError("create embedder", err)
		}
		c.Embedder = embedder
	}

	logger.Info("Created cataloger", slog.String("ner", cfg.NER.Backend), slog.Bool("coref", cfg.Coref.Enabled), slog.Float64("threshold", cfg.Cluster.SimilarityThreshold))

	return c, nil
}

// ConnectDatabase opens the database and creates the catalog handlers
func (c *Cataloger) ConnectDatabase(dbConfig *helper.DatabaseConfiguration) error {
	db, err := helper.NewDatabase("manuscript", dbConfig, c.log)
	if err != nil {
		return helper.NewError("connect database", err)
	}

	err = loadSql.Init(db.Instance)
	if err != nil {
		db.Close()
		return helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	store, err := database.NewCatalogDBHandler(db, false)
	if err != nil {
		db.Close()
		return helper.NewError("create catalog handler", err)
	}

	c.DB = db
	c.Store = store
	return nil
}

// Close tears down the pipeline collaborators, the embedder and the database connection
func (c *Cataloger) Close() error {
	var errs []error
	if c.Pipeline != nil {
		errs = append(errs, c.Pipeline.Close())
	}
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}

// BuildCatalog extracts the mention stream of chapters and clusters it.
// Zero chapters give an empty catalog.
func (c *Cataloger) BuildCatalog(ctx context.Context, chapters []model.Chapter) (*Result, error) {
	if c.Pipeline == nil {
		return nil, helper.NewError("build catalog", fmt.Errorf("pipeline not set"))
	}

	mentions, err := c.Pipeline.Extract(ctx, chapters)
	if err != nil {
		return nil, helper.NewError("extract mentions", err)
	}

	catalog, stats := cluster.BuildCatalog(mentions, c.Cluster, c.log)

	return &Result{
		Chapters: chapters,
		Mentions: mentions,
		Catalog:  catalog,
		Stats:    stats,
	}, nil
}

// ProcessFile ingests the manuscript at path and builds its catalog
func (c *Cataloger) ProcessFile(ctx context.Context, path string) (*Result, error) {
	chapters, err := c.Ingester.Ingest(path)
	if err != nil {
		return nil, helper.NewError("ingest", err)
	}

	return c.BuildCatalog(ctx, chapters)
}

// StoreCatalog persists a catalog run. Entity names are embedded when an Embedder is set.
func (c *Cataloger) StoreCatalog(ctx context.Context, path string, result *Result) (*model.Manuscript, error) {
	if c.Store == nil {
		return nil, helper.NewError("store catalog", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	if result == nil || result.Catalog == nil {
		return nil, helper.NewError("store catalog", fmt.Errorf("result has no catalog"))
	}

	var embeddings map[string][]float32
	if c.Embedder != nil {
		embeddings = make(map[string][]float32, len(result.Catalog.Entities))
		for _, e := range result.Catalog.Entities {
			vec, err := c.Embedder.Embed(ctx, e.Canonical)
			if err != nil {
				return nil, helper.NewError(fmt.Sprintf("embed %s", e.ID), err)
			}
			embeddings[e.ID] = vec
		}
	}

	metadata := model.Metadata{
		"similarity_threshold": c.Cluster.SimilarityThreshold,
		"mentions":             result.Stats.Mentions,
		"skipped":              result.Stats.Skipped,
		"unattached":           result.Stats.Unattached,
		"entities":             len(result.Catalog.Entities),
	}
	manuscript := model.NewManuscript(path, len(result.Chapters), metadata)

	err := c.Store.StoreCatalog(ctx, manuscript, result.Catalog, embeddings)
	if err != nil {
		return nil, helper.NewError("store catalog", err)
	}

	c.log.Info("Stored manuscript", slog.String("rid", manuscript.RID.String()), slog.String("title", manuscript.Title))

	return manuscript, nil
}

// LoadCatalog reads a stored catalog back
func (c *Cataloger) LoadCatalog(rid uuid.UUID) (*model.Manuscript, *model.Catalog, error) {
	if c.Store == nil {
		return nil, nil, helper.NewError("load catalog", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	return c.Store.LoadCatalog(rid)
}

// Search finds stored entities whose canonical name or alias contains term
func (c *Cataloger) Search(term string, kind *model.Kind, limit int) ([]*model.StoredEntity, error) {
	if c.Store == nil {
		return nil, helper.NewError("search", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	if strings.TrimSpace(term) == "" {
		return nil, helper.NewError("search", fmt.Errorf("search term is empty"))
	}
	return c.Store.Entities.SelectCatalogEntitiesBySearch(term, kind, limit)
}

// SearchSimilar embeds name and finds stored entities with a similar name vector
func (c *Cataloger) SearchSimilar(ctx context.Context, name string, limit int, threshold float64) ([]*model.StoredEntity, error) {
	if c.Store == nil {
		return nil, helper.NewError("search similar", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	if c.Embedder == nil {
		return nil, helper.NewError("search similar", fmt.Errorf("embedder not set"))
	}

	vec, err := c.Embedder.Embed(ctx, name)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	return c.Store.Entities.SelectCatalogEntitiesBySimilarity(vec, limit, threshold)
}
