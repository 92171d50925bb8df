package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orsinium-labs/stopwords"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
	"golang.org/x/sync/errgroup"
)

// Pipeline turns chapters into the ordered mention stream the cluster engine consumes
type Pipeline struct {
	Recognizer  Recognizer
	Coreference Coreference
	Workers     int
	stopwords   *stopwords.Stopwords
	log         *slog.Logger
}

// NewPipeline creates a pipeline. A nil coreference means NoCoreference.
func NewPipeline(recognizer Recognizer, coreference Coreference, workers int, logger *slog.Logger) *Pipeline {
	if coreference == nil {
		coreference = NoCoreference{}
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = helper.DiscardLogger()
	}
	return &Pipeline{
		Recognizer:  recognizer,
		Coreference: coreference,
		Workers:     workers,
		stopwords:   stopwords.MustGet("en"),
		log:         logger,
	}
}

// Extract recognises chapters concurrently and returns one chapter-major stream:
// per chapter the named mentions in recogniser order, then the pronoun mentions.
func (p *Pipeline) Extract(ctx context.Context, chapters []model.Chapter) ([]model.Mention, error) {
	if p.Recognizer == nil {
		return nil, helper.NewError("extract", fmt.Errorf("%w: no recognizer", model.ErrInputUnavailable))
	}

	perChapter := make([][]model.Mention, len(chapters))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := range chapters {
		chapter := &chapters[i]
		g.Go(func() error {
			mentions, err := p.extractChapter(ctx, chapter)
			if err != nil {
				return err
			}
			perChapter[i] = mentions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var mentions []model.Mention
	for _, m := range perChapter {
		mentions = append(mentions, m...)
	}
	p.log.Info("Extracted mentions", "chapters", len(chapters), "mentions", len(mentions))
	return mentions, nil
}

func (p *Pipeline) extractChapter(ctx context.Context, chapter *model.Chapter) ([]model.Mention, error) {
	spans, err := p.Recognizer.Recognize(ctx, chapter)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("recognize chapter %d", chapter.ID), fmt.Errorf("%w: %w", model.ErrInputUnavailable, err))
	}
	mentions := NamedMentions(chapter, spans, p.stopwords)

	clusters, err := p.Coreference.Resolve(ctx, chapter)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("resolve chapter %d", chapter.ID), fmt.Errorf("%w: %w", model.ErrInputUnavailable, err))
	}
	pronouns := HarvestPronouns(chapter, clusters)

	p.log.Debug("Chapter mentions", "chapter", chapter.ID, "named", len(mentions), "pronouns", len(pronouns))
	return append(mentions, pronouns...), nil
}

// Close tears down both collaborators
func (p *Pipeline) Close() error {
	var errs []error
	if p.Recognizer != nil {
		errs = append(errs, p.Recognizer.Close())
	}
	if p.Coreference != nil {
		errs = append(errs, p.Coreference.Close())
	}
	return errors.Join(errs...)
}
