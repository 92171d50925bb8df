package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
	"github.com/siherrmann/manuscript/sql"
)

// ManuscriptsDBHandlerFunctions defines the interface for Manuscripts database operations.
type ManuscriptsDBHandlerFunctions interface {
	InsertManuscript(manuscript *model.Manuscript) error
	SelectManuscript(rid uuid.UUID) (*model.Manuscript, error)
	SelectAllManuscripts(lastCreatedAt *time.Time, limit int) ([]*model.Manuscript, error)
	DeleteManuscript(rid uuid.UUID) error
}

// ManuscriptsDBHandler handles manuscript-related database operations
type ManuscriptsDBHandler struct {
	db *helper.Database
}

// NewManuscriptsDBHandler creates a new manuscripts database handler.
// It initializes the database connection and loads manuscript-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewManuscriptsDBHandler(db *helper.Database, force bool) (*ManuscriptsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	manuscriptsDbHandler := &ManuscriptsDBHandler{
		db: db,
	}

	err := sql.LoadManuscriptsSql(manuscriptsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load manuscripts sql", err)
	}

	err = manuscriptsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ManuscriptsDBHandler")

	return manuscriptsDbHandler, nil
}

// CreateTable creates the 'manuscripts' table in the database.
// If the table already exists, it does not create it again.
func (h *ManuscriptsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_manuscripts();`)
	if err != nil {
		log.Panicf("error initializing manuscripts table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table manuscripts")

	return nil
}

// InsertManuscript inserts a new manuscript and fills in its ID, RID and CreatedAt
func (h *ManuscriptsDBHandler) InsertManuscript(manuscript *model.Manuscript) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_manuscript($1, $2, $3, $4)`,
		manuscript.Title,
		manuscript.Source,
		manuscript.ChapterCount,
		manuscript.Metadata,
	)

	err := row.Scan(
		&manuscript.ID,
		&manuscript.RID,
		&manuscript.Title,
		&manuscript.Source,
		&manuscript.ChapterCount,
		&manuscript.Metadata,
		&manuscript.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectManuscript retrieves a manuscript by RID
func (h *ManuscriptsDBHandler) SelectManuscript(rid uuid.UUID) (*model.Manuscript, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_manuscript($1)`,
		rid,
	)

	manuscript := &model.Manuscript{}
	err := row.Scan(
		&manuscript.ID,
		&manuscript.RID,
		&manuscript.Title,
		&manuscript.Source,
		&manuscript.ChapterCount,
		&manuscript.Metadata,
		&manuscript.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return manuscript, nil
}

// SelectAllManuscripts retrieves manuscripts newest first.
// Pass the CreatedAt of the last manuscript of a page as lastCreatedAt to get the next page.
func (h *ManuscriptsDBHandler) SelectAllManuscripts(lastCreatedAt *time.Time, limit int) ([]*model.Manuscript, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_manuscripts($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var manuscripts []*model.Manuscript
	for rows.Next() {
		manuscript := &model.Manuscript{}
		err := rows.Scan(
			&manuscript.ID,
			&manuscript.RID,
			&manuscript.Title,
			&manuscript.Source,
			&manuscript.ChapterCount,
			&manuscript.Metadata,
			&manuscript.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		manuscripts = append(manuscripts, manuscript)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return manuscripts, nil
}

// DeleteManuscript deletes a manuscript by RID together with its catalog
func (h *ManuscriptsDBHandler) DeleteManuscript(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_manuscript($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
