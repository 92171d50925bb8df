package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
)

// CatalogDBHandler stores and loads whole catalogs.
// It owns the manuscripts and catalog entities handlers.
type CatalogDBHandler struct {
	db          *helper.Database
	Manuscripts *ManuscriptsDBHandler
	Entities    *CatalogEntitiesDBHandler
}

// NewCatalogDBHandler creates the manuscripts and catalog entities handlers in dependency order
func NewCatalogDBHandler(db *helper.Database, force bool) (*CatalogDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	manuscripts, err := NewManuscriptsDBHandler(db, force)
	if err != nil {
		return nil, err
	}

	entities, err := NewCatalogEntitiesDBHandler(db, force)
	if err != nil {
		return nil, err
	}

	return &CatalogDBHandler{
		db:          db,
		Manuscripts: manuscripts,
		Entities:    entities,
	}, nil
}

// StoreCatalog inserts the manuscript and then every entity of the catalog in one transaction.
// embeddings maps entity IDs to name vectors and may be nil.
// If any entity fails the manuscript row is removed again so no partial catalog remains.
func (h *CatalogDBHandler) StoreCatalog(ctx context.Context, manuscript *model.Manuscript, catalog *model.Catalog, embeddings map[string][]float32) error {
	if manuscript == nil || catalog == nil {
		return helper.NewError("store catalog", fmt.Errorf("manuscript and catalog must not be nil"))
	}

	err := h.Manuscripts.InsertManuscript(manuscript)
	if err != nil {
		return helper.NewError("insert manuscript", err)
	}

	err = h.insertEntities(ctx, manuscript.RID, catalog, embeddings)
	if err != nil {
		if delErr := h.Manuscripts.DeleteManuscript(manuscript.RID); delErr != nil {
			h.db.Logger.Error("Failed to remove partial manuscript", "rid", manuscript.RID, "error", delErr)
		}
		return err
	}

	h.db.Logger.Info("Stored catalog", "rid", manuscript.RID, "title", manuscript.Title, "entities", len(catalog.Entities), "mentions", catalog.MentionCount())

	return nil
}

func (h *CatalogDBHandler) insertEntities(ctx context.Context, rid uuid.UUID, catalog *model.Catalog, embeddings map[string][]float32) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for position, entity := range catalog.Entities {
		_, err := insertCatalogEntity(ctx, tx, rid, position, entity, embeddings[entity.ID])
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// LoadCatalog reads a stored catalog back in its original order
func (h *CatalogDBHandler) LoadCatalog(rid uuid.UUID) (*model.Manuscript, *model.Catalog, error) {
	manuscript, err := h.Manuscripts.SelectManuscript(rid)
	if err != nil {
		return nil, nil, helper.NewError("select manuscript", err)
	}

	stored, err := h.Entities.SelectCatalogEntities(rid, nil)
	if err != nil {
		return nil, nil, helper.NewError("select entities", err)
	}

	mentions, err := h.Entities.SelectCatalogMentions(rid)
	if err != nil {
		return nil, nil, helper.NewError("select mentions", err)
	}

	entities := make([]*model.Entity, len(stored))
	for i, s := range stored {
		entity := s.Entity
		entity.Mentions = mentions[s.DBID]
		if entity.Mentions == nil {
			entity.Mentions = []model.Mention{}
		}
		entities[i] = &entity
	}

	return manuscript, model.NewCatalog(entities), nil
}
