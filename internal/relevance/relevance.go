package relevance

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filter decides whether an item belongs to the niche by matching
// normalized title+teaser text against a fixed keyword list.
type Filter struct {
	keywords []string
}

// NewFilter builds a Filter from the configured keyword phrases.
// Keywords are normalized once; empty entries are dropped.
func NewFilter(keywords []string) *Filter {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if n := Normalize(kw); n != "" {
			normalized = append(normalized, n)
		}
	}
	return &Filter{keywords: normalized}
}

// Matches reports whether the concatenated title and teaser contain at
// least one configured keyword, case- and accent-insensitively.
func (f *Filter) Matches(title, teaser string) bool {
	if len(f.keywords) == 0 {
		return false
	}

	haystack := Normalize(title + " " + teaser)
	for _, kw := range f.keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized keyword list.
func (f *Filter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}

// stripMarks removes combining marks so that accented characters compare
// equal to their base form after NFD decomposition.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases the text and strips diacritics.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Fall back to the lowercased input; matching stays case-insensitive.
		return s
	}
	return out
}
