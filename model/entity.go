package model

import "fmt"

// Entity is a clustered identity (character, location or organization)
type Entity struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Canonical    string    `json:"canonical"`
	Aliases      []string  `json:"aliases"`
	FirstChapter int       `json:"first_chapter"`
	LastChapter  int       `json:"last_chapter"`
	Mentions     []Mention `json:"mentions"`
	// Seq is the creation order, the numeric part of ID
	Seq int `json:"-"`
}

// NewEntity creates the entity founded by mention m
func NewEntity(seq int, kind Kind, m Mention) *Entity {
	return &Entity{
		ID:           EntityID(seq),
		Kind:         kind,
		Canonical:    m.Text,
		Aliases:      []string{},
		FirstChapter: m.Chapter,
		LastChapter:  m.Chapter,
		Mentions:     []Mention{m},
		Seq:          seq,
	}
}

// EntityID formats the stable identifier for the seq-th created entity
func EntityID(seq int) string {
	return fmt.Sprintf("E%d", seq)
}

// ParseEntityID returns the sequence number of an identifier like E12
func ParseEntityID(id string) (int, error) {
	var seq int
	_, err := fmt.Sscanf(id, "E%d", &seq)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q: %w", id, err)
	}
	return seq, nil
}

// AddChapter widens the chapter range to include chapter
func (e *Entity) AddChapter(chapter int) {
	if chapter < e.FirstChapter {
		e.FirstChapter = chapter
	}
	if chapter > e.LastChapter {
		e.LastChapter = chapter
	}
}
