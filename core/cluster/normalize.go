package cluster

import (
	"strings"
	"unicode"
)

// Normalize folds a surface string into its comparison form.
// Surrounding whitespace is trimmed first. After that every run of runes
// other than letters, digits, underscores, apostrophes and hyphens becomes
// one space, edges included, so "Ai." and "Ai" stay distinct. The result
// is lowercased.
func Normalize(s string) string {
	var b strings.Builder
	s = strings.TrimSpace(s)
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if !keepRune(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteString(string(unicode.ToLower(r)))
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

func keepRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '\'' || r == '-'
}

// TokenCount returns the number of whitespace-delimited tokens in s
func TokenCount(s string) int {
	return len(strings.Fields(s))
}

// containsTokenRun reports whether the tokens of needle appear as a contiguous run in haystack
func containsTokenRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}

// subsumes reports whether one normalized name is a whole-token run of the
// other and strictly shorter, e.g. "jinwoo" and "sung jinwoo". Names with the
// same tokens differ only in punctuation and are left to the ratio.
func subsumes(a, b string) bool {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == len(tb) {
		return false
	}
	return containsTokenRun(ta, tb) || containsTokenRun(tb, ta)
}
