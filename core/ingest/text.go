package ingest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
	"golang.org/x/text/unicode/norm"
)

var (
	newlineRegex     = regexp.MustCompile(`\r\n?`)
	controlRegex     = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	blankRunRegex    = regexp.MustCompile(`[ \t]+`)
	newlineRunRegex  = regexp.MustCompile(`\n{3,}`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	paragraphSepRepl = strings.NewReplacer("\u2028", "\n", "\u2029", "\n")
)

// LoadText reads a UTF-8 manuscript. Invalid bytes are dropped,
// line endings are normalized to \n and the text is NFC composed.
func LoadText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", helper.NewError("load text", fmt.Errorf("%w: %v", model.ErrInputUnavailable, err))
	}
	return NormalizeText(string(raw)), nil
}

// NormalizeText applies the LoadText normalization to an in-memory string
func NormalizeText(raw string) string {
	text := strings.ToValidUTF8(raw, "")
	text = newlineRegex.ReplaceAllString(text, "\n")
	text = norm.NFC.String(text)
	return strings.TrimSpace(text)
}

// SplitChapters splits text on runs of at least minBlankLines empty lines.
// Blocks are trimmed and empty blocks dropped.
func SplitChapters(text string, minBlankLines int) []string {
	gap := max(1, minBlankLines) + 1
	splitter := regexp.MustCompile(fmt.Sprintf(`\n{%d,}`, gap))

	blocks := []string{}
	for _, block := range splitter.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// Sanitize removes control characters that confuse sentence segmentation.
// Newlines and tabs survive, blank runs shrink to one space and
// three or more newlines shrink to two.
func Sanitize(text string) string {
	text = controlRegex.ReplaceAllString(text, " ")
	text = paragraphSepRepl.Replace(text)
	text = blankRunRegex.ReplaceAllString(text, " ")
	text = newlineRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
