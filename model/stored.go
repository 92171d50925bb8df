package model

import "github.com/google/uuid"

// StoredEntity is a catalog entity as persisted for one manuscript
type StoredEntity struct {
	Entity
	DBID          int64     `json:"db_id"`
	ManuscriptRID uuid.UUID `json:"manuscript_rid"`
	Position      int       `json:"position"`
	// Similarity is only set for embedding searches
	Similarity *float64 `json:"similarity,omitempty"`
}
