package model

import "strings"

// Mention is one observed surface form of an entity
type Mention struct {
	Chapter       int    `json:"chapter"`
	SentenceIndex int    `json:"sentence_index"`
	Text          string `json:"text"`
	Kind          Kind   `json:"kind"`
}

// Pronouns is the closed set of personal and possessive pronouns harvested from coreference clusters
var Pronouns = []string{"he", "him", "his", "she", "her", "hers", "they", "them", "their", "it", "its", "i", "me", "my", "we", "us", "our"}

var pronounSet = func() map[string]bool {
	set := make(map[string]bool, len(Pronouns))
	for _, p := range Pronouns {
		set[p] = true
	}
	return set
}()

// IsPronounText reports whether s is a pronoun, ignoring case and surrounding whitespace
func IsPronounText(s string) bool {
	return pronounSet[strings.ToLower(strings.TrimSpace(s))]
}

// IsPronoun reports whether the mention came from pronoun harvesting
func (m Mention) IsPronoun() bool {
	return m.Kind == KindUnresolved
}

// Validate checks the fields every collaborator must fill in.
// Blank text is allowed and founds an entity of its own.
func (m Mention) Validate() error {
	if m.Chapter < 1 || !m.Kind.Valid() {
		return ErrMalformedMention
	}
	return nil
}
