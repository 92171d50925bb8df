package model

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Manuscript is a stored catalog run over one source text
type Manuscript struct {
	ID           int64     `json:"id"`
	RID          uuid.UUID `json:"rid"`
	Title        string    `json:"title"`
	Source       string    `json:"source,omitempty"`
	ChapterCount int       `json:"chapter_count"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewManuscript creates a Manuscript for the file at path.
// The title defaults to the filename without extension.
func NewManuscript(path string, chapterCount int, metadata Metadata) *Manuscript {
	filename := filepath.Base(path)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}
	if metadata == nil {
		metadata = Metadata{}
	}

	return &Manuscript{
		Title:        title,
		Source:       path,
		ChapterCount: chapterCount,
		Metadata:     metadata,
	}
}
