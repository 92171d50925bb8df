package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"
	"github.com/siherrmann/manuscript/model"
)

// Coreference groups surface strings of a chapter that refer to the same thing
type Coreference interface {
	Resolve(ctx context.Context, chapter *model.Chapter) ([][]string, error)
	Close() error
}

// NoCoreference is the coreference collaborator that never finds clusters
type NoCoreference struct{}

// Resolve implements Coreference
func (NoCoreference) Resolve(context.Context, *model.Chapter) ([][]string, error) {
	return nil, nil
}

// Close implements Coreference
func (NoCoreference) Close() error {
	return nil
}

var nameRunRegex = regexp.MustCompile(`\p{Lu}[\p{L}\p{M}'’-]*(?:[ \t]+\p{Lu}[\p{L}\p{M}'’-]*)*`)

// HeuristicCoreference links each pronoun to the nearest capitalised name run before it
type HeuristicCoreference struct {
	pronouns  *ahocorasick.Automaton
	stopwords *stopwords.Stopwords
}

// NewHeuristicCoreference builds the pronoun automaton
func NewHeuristicCoreference() (*HeuristicCoreference, error) {
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(model.Pronouns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pronoun automaton: %w", err)
	}
	return &HeuristicCoreference{
		pronouns:  automaton,
		stopwords: stopwords.MustGet("en"),
	}, nil
}

type occurrence struct {
	start, end int
	text       string
}

// Resolve returns one cluster per antecedent name: the name followed by the pronouns attached to it
func (c *HeuristicCoreference) Resolve(ctx context.Context, chapter *model.Chapter) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := c.names(chapter.Text)
	pronouns := c.pronounsIn(chapter.Text)

	var clusters [][]string
	index := map[string]int{}
	n := 0
	for _, p := range pronouns {
		for n < len(names) && names[n].end <= p.start {
			n++
		}
		if n == 0 {
			continue
		}
		antecedent := names[n-1].text
		i, ok := index[antecedent]
		if !ok {
			i = len(clusters)
			index[antecedent] = i
			clusters = append(clusters, []string{antecedent})
		}
		clusters[i] = append(clusters[i], p.text)
	}
	return clusters, nil
}

// names finds capitalised word runs, trimming leading stopwords such as sentence-initial "The"
func (c *HeuristicCoreference) names(text string) []occurrence {
	var names []occurrence
	for _, loc := range nameRunRegex.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		for start < end {
			word := text[start:end]
			if i := strings.IndexAny(word, " \t"); i >= 0 {
				word = word[:i]
			}
			if !c.stopwords.Contains(strings.ToLower(word)) && !model.IsPronounText(word) {
				break
			}
			start += len(word)
			for start < end && (text[start] == ' ' || text[start] == '\t') {
				start++
			}
		}
		if start < end {
			names = append(names, occurrence{start: start, end: end, text: text[start:end]})
		}
	}
	return names
}

// pronounsIn finds whole-word pronouns, keeping their original casing
func (c *HeuristicCoreference) pronounsIn(text string) []occurrence {
	haystack := asciiLower(text)
	var found []occurrence
	for _, m := range c.pronouns.FindAllOverlapping(haystack) {
		if !wordBoundary(haystack, m.Start, m.End) {
			continue
		}
		found = append(found, occurrence{start: m.Start, end: m.End, text: text[m.Start:m.End]})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })
	return found
}

// Close implements Coreference
func (c *HeuristicCoreference) Close() error {
	return nil
}

// asciiLower lowercases A-Z only so byte offsets stay valid
func asciiLower(text string) []byte {
	b := []byte(text)
	for i, ch := range b {
		if 'A' <= ch && ch <= 'Z' {
			b[i] = ch + ('a' - 'A')
		}
	}
	return b
}

func wordBoundary(b []byte, start, end int) bool {
	return (start == 0 || !isWordByte(b[start-1])) && (end == len(b) || !isWordByte(b[end]))
}

func isWordByte(ch byte) bool {
	return ch >= 0x80 || ch == '_' || ch == '-' ||
		('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}
