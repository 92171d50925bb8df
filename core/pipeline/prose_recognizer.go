package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/siherrmann/manuscript/model"
)

// ProseRecognizer uses the prose averaged perceptron NER.
// It needs no model download and labels PERSON and GPE.
type ProseRecognizer struct{}

// NewProseRecognizer creates a ProseRecognizer
func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

// Recognize implements Recognizer
func (r *ProseRecognizer) Recognize(ctx context.Context, chapter *model.Chapter) ([]Span, error) {
	if strings.TrimSpace(chapter.Text) == "" {
		return []Span{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(chapter.Text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to run NER: %w", err)
	}

	spans := []Span{}
	cursor := 0
	for _, entity := range doc.Entities() {
		start, end, ok := locate(chapter.Text, entity.Text, -1, cursor)
		if !ok {
			continue
		}
		cursor = end
		spans = append(spans, Span{
			Start:         start,
			End:           end,
			Label:         entity.Label,
			Text:          entity.Text,
			SentenceIndex: chapter.SentenceAt(start),
		})
	}
	return spans, nil
}

// Close implements Recognizer
func (r *ProseRecognizer) Close() error {
	return nil
}
