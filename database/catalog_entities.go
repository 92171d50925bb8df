package database

import (
	"context"
	dbsql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
	loadSql "github.com/siherrmann/manuscript/sql"
)

// CatalogEntitiesDBHandlerFunctions defines the interface for catalog entity database operations.
type CatalogEntitiesDBHandlerFunctions interface {
	InsertCatalogEntity(ctx context.Context, manuscriptRID uuid.UUID, position int, entity *model.Entity, embedding []float32) (*model.StoredEntity, error)
	SelectCatalogEntities(manuscriptRID uuid.UUID, kind *model.Kind) ([]*model.StoredEntity, error)
	SelectCatalogMentions(manuscriptRID uuid.UUID) (map[int64][]model.Mention, error)
	SelectCatalogEntitiesBySearch(searchTerm string, kind *model.Kind, limit int) ([]*model.StoredEntity, error)
	SelectCatalogEntitiesBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.StoredEntity, error)
}

// queryer is implemented by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *dbsql.Row
	ExecContext(ctx context.Context, query string, args ...any) (dbsql.Result, error)
}

// CatalogEntitiesDBHandler handles catalog entity and mention database operations
type CatalogEntitiesDBHandler struct {
	db *helper.Database
}

// NewCatalogEntitiesDBHandler creates a new catalog entities database handler.
// The manuscripts table must exist, so create a ManuscriptsDBHandler first.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCatalogEntitiesDBHandler(db *helper.Database, force bool) (*CatalogEntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	catalogEntitiesDbHandler := &CatalogEntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadCatalogSql(catalogEntitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load catalog sql", err)
	}

	err = catalogEntitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CatalogEntitiesDBHandler")

	return catalogEntitiesDbHandler, nil
}

// CreateTable creates the 'catalog_entities' and 'catalog_mentions' tables in the database.
// If the tables already exist, it does not create them again.
func (h *CatalogEntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_catalog();`)
	if err != nil {
		log.Panicf("error initializing catalog tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables catalog_entities and catalog_mentions")

	return nil
}

// InsertCatalogEntity inserts one entity with all of its mentions in a single transaction.
// A nil embedding stores no name vector.
func (h *CatalogEntitiesDBHandler) InsertCatalogEntity(ctx context.Context, manuscriptRID uuid.UUID, position int, entity *model.Entity, embedding []float32) (*model.StoredEntity, error) {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	stored, err := insertCatalogEntity(ctx, tx, manuscriptRID, position, entity, embedding)
	if err != nil {
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, helper.NewError("commit", err)
	}

	return stored, nil
}

func insertCatalogEntity(ctx context.Context, q queryer, manuscriptRID uuid.UUID, position int, entity *model.Entity, embedding []float32) (*model.StoredEntity, error) {
	var nameEmbedding interface{}
	if len(embedding) > 0 {
		nameEmbedding = pgvector.NewVector(embedding)
	}

	stored := &model.StoredEntity{
		Entity:        *entity,
		ManuscriptRID: manuscriptRID,
		Position:      position,
	}

	err := q.QueryRowContext(
		ctx,
		`SELECT insert_catalog_entity($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		manuscriptRID,
		entity.ID,
		string(entity.Kind),
		entity.Canonical,
		pq.Array(entity.Aliases),
		entity.FirstChapter,
		entity.LastChapter,
		position,
		nameEmbedding,
	).Scan(&stored.DBID)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("insert entity %s", entity.ID), err)
	}

	for i, m := range entity.Mentions {
		_, err = q.ExecContext(
			ctx,
			`SELECT insert_catalog_mention($1, $2, $3, $4, $5, $6)`,
			stored.DBID,
			i,
			m.Chapter,
			m.SentenceIndex,
			m.Text,
			string(m.Kind),
		)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("insert mention %d of entity %s", i, entity.ID), err)
		}
	}

	return stored, nil
}

// SelectCatalogEntities retrieves the entities of a manuscript in catalog order, without mentions.
// A nil kind selects all kinds.
func (h *CatalogEntitiesDBHandler) SelectCatalogEntities(manuscriptRID uuid.UUID, kind *model.Kind) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_catalog_entities($1, $2)`,
		manuscriptRID,
		kindParam(kind),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanStoredEntities(rows, false)
}

// SelectCatalogMentions retrieves all mentions of a manuscript keyed by entity database ID.
// Mentions keep the order in which they were assigned.
func (h *CatalogEntitiesDBHandler) SelectCatalogMentions(manuscriptRID uuid.UUID) (map[int64][]model.Mention, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_catalog_mentions($1)`,
		manuscriptRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	mentions := make(map[int64][]model.Mention)
	for rows.Next() {
		var entityID int64
		m := model.Mention{}
		err := rows.Scan(
			&entityID,
			&m.Chapter,
			&m.SentenceIndex,
			&m.Text,
			&m.Kind,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		mentions[entityID] = append(mentions[entityID], m)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}

// SelectCatalogEntitiesBySearch finds entities across all manuscripts whose canonical name
// or any alias contains searchTerm, case-insensitively
func (h *CatalogEntitiesDBHandler) SelectCatalogEntitiesBySearch(searchTerm string, kind *model.Kind, limit int) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_catalog_entities($1, $2, $3)`,
		searchTerm,
		kindParam(kind),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanStoredEntities(rows, false)
}

// SelectCatalogEntitiesBySimilarity finds entities whose name embedding has a cosine
// similarity of at least threshold, most similar first
func (h *CatalogEntitiesDBHandler) SelectCatalogEntitiesBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_catalog_entities_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanStoredEntities(rows, true)
}

func kindParam(kind *model.Kind) interface{} {
	if kind == nil {
		return nil
	}
	return string(*kind)
}

func scanStoredEntities(rows *dbsql.Rows, withSimilarity bool) ([]*model.StoredEntity, error) {
	var entities []*model.StoredEntity
	for rows.Next() {
		entity := &model.StoredEntity{}
		dest := []interface{}{
			&entity.DBID,
			&entity.ManuscriptRID,
			&entity.ID,
			&entity.Kind,
			&entity.Canonical,
			pq.Array(&entity.Aliases),
			&entity.FirstChapter,
			&entity.LastChapter,
			&entity.Position,
		}
		var similarity float64
		if withSimilarity {
			dest = append(dest, &similarity)
		}

		err := rows.Scan(dest...)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if withSimilarity {
			entity.Similarity = &similarity
		}
		if entity.Aliases == nil {
			entity.Aliases = []string{}
		}
		entity.Seq, err = model.ParseEntityID(entity.ID)
		if err != nil {
			return nil, helper.NewError("parse entity id", err)
		}

		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}
