package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
)

// DefaultNERModel is the token classification model used by HugotRecognizer
const DefaultNERModel = "KnightsAnalytics/distilbert-NER"

const recognizeBatchSize = 32

// HugotRecognizer runs a token classification model through hugot.
// Detects PER, ORG, LOC and MISC spans; MISC is dropped by MapLabel.
type HugotRecognizer struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
}

// NewHugotRecognizer prepares the model (downloading it if needed) and starts a hugot session
func NewHugotRecognizer(modelName string) (*HugotRecognizer, error) {
	if modelName == "" {
		modelName = DefaultNERModel
	}
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return &HugotRecognizer{session: session, pipeline: nerPipeline}, nil
}

// Recognize runs the model sentence by sentence so long chapters stay within the model's input size
func (r *HugotRecognizer) Recognize(ctx context.Context, chapter *model.Chapter) ([]Span, error) {
	var spans []Span
	for start := 0; start < len(chapter.Sentences); start += recognizeBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := chapter.Sentences[start:min(start+recognizeBatchSize, len(chapter.Sentences))]
		inputs := make([]string, len(batch))
		for i, s := range batch {
			inputs[i] = s.Text
		}

		result, err := r.pipeline.RunPipeline(inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		for i, entities := range result.Entities {
			if i >= len(batch) {
				break
			}
			spans = append(spans, sentenceSpans(chapter.Text, batch[i], entities)...)
		}
	}
	return spans, nil
}

// sentenceSpans maps entities found in a whitespace collapsed sentence back
// onto byte offsets into the chapter text. Model offsets are only trusted
// while the raw sentence slice equals the text the model saw.
func sentenceSpans(chapterText string, sentence model.Sentence, entities []pipelines.Entity) []Span {
	raw := sentence.Text
	if sentence.Start >= 0 && sentence.Start <= sentence.End && sentence.End <= len(chapterText) {
		raw = chapterText[sentence.Start:sentence.End]
	}

	spans := []Span{}
	cursor := 0
	for _, entity := range entities {
		word := strings.TrimSpace(entity.Word)
		if word == "" {
			continue
		}
		hint := -1
		if raw == sentence.Text {
			hint = int(entity.Start)
		}
		s, e, ok := locate(raw, word, hint, cursor)
		if !ok {
			s, e, ok = locateFlexible(raw, word, cursor)
		}
		if !ok {
			continue
		}
		cursor = e
		spans = append(spans, Span{
			Start:         sentence.Start + s,
			End:           sentence.Start + e,
			Label:         entity.Entity,
			Text:          strings.Join(strings.Fields(raw[s:e]), " "),
			SentenceIndex: sentence.Index,
			Score:         entity.Score,
		})
	}
	return spans
}

// Close destroys the hugot session
func (r *HugotRecognizer) Close() error {
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}
