package ingest

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
	"github.com/siherrmann/manuscript/model"
)

// Segmenter splits sanitized chapter text into sentence strings
type Segmenter interface {
	Segment(text string) ([]string, error)
}

// ProseSegmenter uses the prose punkt segmenter, which knows common abbreviations
type ProseSegmenter struct{}

// Segment implements Segmenter
func (ProseSegmenter) Segment(text string) (sentences []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prose segmentation panicked: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	for _, s := range doc.Sentences() {
		sentences = append(sentences, s.Text)
	}
	return sentences, nil
}

// RegexSegmenter splits after '.', '!' or '?' followed by whitespace
type RegexSegmenter struct{}

// Segment implements Segmenter
func (RegexSegmenter) Segment(text string) ([]string, error) {
	var sentences []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != '.' && r != '!' && r != '?' {
			i += size
			continue
		}
		end := i + size
		next, _ := utf8.DecodeRuneInString(text[end:])
		if end >= len(text) || !unicode.IsSpace(next) {
			i = end
			continue
		}
		sentences = append(sentences, text[start:end])
		i = strings.IndexFunc(text[end:], func(r rune) bool { return !unicode.IsSpace(r) })
		if i < 0 {
			return sentences, nil
		}
		i += end
		start = i
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences, nil
}

// NewSegmenter returns the segmenter for a config name, prose by default
func NewSegmenter(name string) Segmenter {
	if name == "regex" {
		return RegexSegmenter{}
	}
	return ProseSegmenter{}
}

// SplitSentences segments sanitized text into sentences with byte spans into text.
// Segmenter failures fall back to RegexSegmenter. Sentences are whitespace
// collapsed and anything shorter than two bytes is dropped.
func SplitSentences(text string, segmenter Segmenter) []model.Sentence {
	if segmenter == nil {
		segmenter = ProseSegmenter{}
	}
	parts, err := segmenter.Segment(text)
	if err != nil {
		parts, _ = RegexSegmenter{}.Segment(text)
	}

	sentences := []model.Sentence{}
	cursor := 0
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}

		start, end := cursor, min(len(text), cursor+len(trimmed))
		if idx := strings.Index(text[cursor:], trimmed); idx >= 0 {
			start = cursor + idx
			end = start + len(trimmed)
		}
		cursor = end

		s := collapseWhitespace(trimmed)
		if len(s) < 2 {
			continue
		}
		sentences = append(sentences, model.Sentence{
			Index: len(sentences),
			Text:  s,
			Start: start,
			End:   end,
		})
	}
	return sentences
}
