package model

import "encoding/json"

// Catalog is the final report of clustered entities
type Catalog struct {
	Entities []*Entity `json:"entities"`
}

// NewCatalog wraps entities, which must already be in catalog order
func NewCatalog(entities []*Entity) *Catalog {
	if entities == nil {
		entities = []*Entity{}
	}
	return &Catalog{Entities: entities}
}

// MentionCount returns the number of mentions across all entities
func (c *Catalog) MentionCount() int {
	n := 0
	for _, e := range c.Entities {
		n += len(e.Mentions)
	}
	return n
}

// CountByKind returns the number of entities per kind
func (c *Catalog) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range c.Entities {
		counts[e.Kind]++
	}
	return counts
}

// Find returns the entity with the given id, or nil
func (c *Catalog) Find(id string) *Entity {
	for _, e := range c.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Marshal renders the catalog as indented JSON
func (c *Catalog) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
