package model

// Sentence is one sentence of a chapter.
// Start and End are byte offsets into the chapter's Text.
type Sentence struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Chapter is a contiguous block of the manuscript
type Chapter struct {
	ID        int        `json:"chapter_id"`
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
}

// SentenceAt maps a byte offset in the chapter text to the sentence containing it.
// Offsets outside every sentence span map to 0.
func (c *Chapter) SentenceAt(offset int) int {
	for _, s := range c.Sentences {
		if s.Start <= offset && offset < s.End {
			return s.Index
		}
	}
	return 0
}

// SentenceTexts returns the plain sentence strings in order
func (c *Chapter) SentenceTexts() []string {
	texts := make([]string, len(c.Sentences))
	for i, s := range c.Sentences {
		texts[i] = s.Text
	}
	return texts
}
