package sanitizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// FoldAccents strips combining marks, so "Café" and "Cafe" compare equal.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// SanitizeSearchTerm prepares a user-typed filter for case and accent
// insensitive substring matching.
func SanitizeSearchTerm(q string) string {
	p := Pipeline{
		TrimAndNormalize,
		FoldAccents,
		strings.ToLower,
	}
	return p.Apply(q)
}

// SanitizeCode cleans an identifier such as a library or category code.
// Case is preserved since codes are compared exactly.
func SanitizeCode(code string) string {
	p := Pipeline{
		dropControl,
		strings.TrimSpace,
	}
	return p.Apply(code)
}

// MatchesTerm reports whether text contains an already sanitized term.
// An empty term matches everything.
func MatchesTerm(text, term string) bool {
	return term == "" || strings.Contains(strings.ToLower(FoldAccents(text)), term)
}
