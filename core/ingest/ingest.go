package ingest

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
)

// Ingester turns a raw manuscript into chapters with sentence segmentation
type Ingester struct {
	MinBlankLines int
	Segmenter     Segmenter
	log           *slog.Logger
}

// NewIngester creates an ingester. A nil segmenter means prose.
func NewIngester(minBlankLines int, segmenter Segmenter, logger *slog.Logger) *Ingester {
	if segmenter == nil {
		segmenter = ProseSegmenter{}
	}
	if logger == nil {
		logger = helper.DiscardLogger()
	}
	return &Ingester{
		MinBlankLines: minBlankLines,
		Segmenter:     segmenter,
		log:           logger,
	}
}

// Ingest loads and segments the manuscript at path
func (i *Ingester) Ingest(path string) ([]model.Chapter, error) {
	text, err := LoadText(path)
	if err != nil {
		return nil, err
	}
	chapters := i.IngestText(text)
	i.log.Info("Ingested manuscript", "path", path, "chapters", len(chapters))
	return chapters, nil
}

// IngestText segments already loaded text. Chapter ids are 1-based and contiguous.
func (i *Ingester) IngestText(text string) []model.Chapter {
	blocks := SplitChapters(text, i.MinBlankLines)
	chapters := make([]model.Chapter, 0, len(blocks))
	for n, block := range blocks {
		clean := Sanitize(block)
		chapters = append(chapters, model.Chapter{
			ID:        n + 1,
			Title:     fmt.Sprintf("Chapter %d", n+1),
			Text:      clean,
			Sentences: SplitSentences(clean, i.Segmenter),
		})
		i.log.Debug("Segmented chapter", "chapter", n+1, "sentences", len(chapters[n].Sentences))
	}
	return chapters
}

// Summary describes an ingested manuscript
type Summary struct {
	Chapters   int      `json:"chapters"`
	Characters int      `json:"characters"`
	Sentences  int      `json:"sentences"`
	Titles     []string `json:"titles"`
}

// Stats summarizes chapters, listing at most maxTitles titles
func Stats(chapters []model.Chapter, maxTitles int) Summary {
	summary := Summary{Chapters: len(chapters), Titles: []string{}}
	for _, c := range chapters {
		summary.Characters += utf8.RuneCountInString(c.Text)
		summary.Sentences += len(c.Sentences)
		if len(summary.Titles) < maxTitles {
			summary.Titles = append(summary.Titles, c.Title)
		}
	}
	return summary
}
