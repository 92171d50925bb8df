package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/siherrmann/manuscript/model"
)

// Span is one named-entity span found by a Recognizer.
// Start and End are byte offsets into the chapter text.
type Span struct {
	Start         int
	End           int
	Label         string
	Text          string
	SentenceIndex int
	Score         float32
}

// Recognizer finds named-entity spans in a chapter
type Recognizer interface {
	Recognize(ctx context.Context, chapter *model.Chapter) ([]Span, error)
	Close() error
}

// MapLabel maps a recogniser label onto a mention kind.
// BIO prefixes are ignored. Labels without a kind report false.
func MapLabel(label string) (model.Kind, bool) {
	switch strings.ToUpper(trimBIO(label)) {
	case "PERSON", "PER":
		return model.KindPerson, true
	case "GPE", "LOC", "LOCATION":
		return model.KindLocation, true
	case "ORG", "ORGANIZATION":
		return model.KindOrganization, true
	}
	return "", false
}

// trimBIO removes B- and I- prefixes from NER labels
func trimBIO(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}

// locate finds surface in text at or after from, returning its byte span.
// A hint that already slices to surface is trusted.
func locate(text, surface string, hint, from int) (int, int, bool) {
	if hint >= 0 && hint+len(surface) <= len(text) && text[hint:hint+len(surface)] == surface {
		return hint, hint + len(surface), true
	}
	if from < 0 || from > len(text) {
		from = 0
	}
	if idx := strings.Index(text[from:], surface); idx >= 0 {
		return from + idx, from + idx + len(surface), true
	}
	if idx := strings.Index(text, surface); idx >= 0 {
		return idx, idx + len(surface), true
	}
	return 0, 0, false
}

// locateFlexible finds surface in text at or after from while letting every
// space in surface match any whitespace run, so "Sung Jinwoo" finds "Sung\nJinwoo".
func locateFlexible(text, surface string, from int) (int, int, bool) {
	fields := strings.Fields(surface)
	if len(fields) == 0 {
		return 0, 0, false
	}
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	pattern := regexp.MustCompile(strings.Join(fields, `\s+`))

	if from < 0 || from > len(text) {
		from = 0
	}
	if loc := pattern.FindStringIndex(text[from:]); loc != nil {
		return from + loc[0], from + loc[1], true
	}
	if loc := pattern.FindStringIndex(text); loc != nil {
		return loc[0], loc[1], true
	}
	return 0, 0, false
}
