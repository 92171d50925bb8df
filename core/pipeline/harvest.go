package pipeline

import (
	"strings"

	"github.com/orsinium-labs/stopwords"
	"github.com/siherrmann/manuscript/model"
)

// HarvestPronouns turns the pronoun surfaces of coreference clusters into UNRESOLVED mentions.
// The sentence index comes from the first occurrence of the surface in the chapter text.
func HarvestPronouns(chapter *model.Chapter, clusters [][]string) []model.Mention {
	mentions := []model.Mention{}
	for _, cluster := range clusters {
		for _, surface := range cluster {
			text := strings.TrimSpace(surface)
			if !model.IsPronounText(text) {
				continue
			}
			sentence := 0
			if pos := strings.Index(chapter.Text, surface); pos >= 0 {
				sentence = chapter.SentenceAt(pos)
			}
			mentions = append(mentions, model.Mention{
				Chapter:       chapter.ID,
				SentenceIndex: sentence,
				Text:          text,
				Kind:          model.KindUnresolved,
			})
		}
	}
	return mentions
}

// NamedMentions converts recogniser spans into mentions.
// Spans with unmapped labels or made only of stopwords are dropped.
func NamedMentions(chapter *model.Chapter, spans []Span, stop *stopwords.Stopwords) []model.Mention {
	mentions := []model.Mention{}
	for _, span := range spans {
		kind, ok := MapLabel(span.Label)
		if !ok {
			continue
		}
		text := strings.TrimSpace(span.Text)
		if text == "" || onlyStopwords(text, stop) {
			continue
		}
		mentions = append(mentions, model.Mention{
			Chapter:       chapter.ID,
			SentenceIndex: span.SentenceIndex,
			Text:          text,
			Kind:          kind,
		})
	}
	return mentions
}

func onlyStopwords(text string, stop *stopwords.Stopwords) bool {
	if stop == nil {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if !stop.Contains(strings.Trim(word, ".,;:!?\"'()")) {
			return false
		}
	}
	return true
}
