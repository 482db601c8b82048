package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var stopwords = map[string]struct{}{
	"AUSTRALIA":    {},
	"AUST":         {},
	"PTY":          {},
	"LTD":          {},
	"PL":           {},
	"LIMITED":      {},
	"CORPORATION":  {},
	"INCORPORATED": {},
	"INC":          {},
	"PTE":          {},
	"LLC":          {},
	"CO":           {},
	"COMPANY":      {},
	"THE":          {},
	"AND":          {},
}

// NormalizeName canonicalizes a company name for comparison. The result is
// uppercased, free of punctuation and legal-form stopwords, single-spaced, and
// NormalizeName(NormalizeName(s)) == NormalizeName(s).
func NormalizeName(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	s := foldCase(input)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '.' || r == '\'' || r == '\u2019':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	out := make([]string, 0, 8)
	for _, token := range strings.Fields(b.String()) {
		if _, stop := stopwords[token]; stop {
			continue
		}
		out = append(out, token)
		// "P/L" arrives as the pair P L. Reducing on the output keeps the
		// result free of the pair even when a stopword sat between them.
		if n := len(out); n >= 2 && out[n-2] == "P" && out[n-1] == "L" {
			out = out[:n-2]
		}
	}
	// Dropping punctuation can bring letters together that compose, so the
	// joined result is folded once more.
	return foldCase(strings.Join(out, " "))
}

// foldCase strips combining marks and uppercases until the text stops
// changing. Some precomposed letters have no uppercase form until their marks
// are removed, and uppercasing can expose new decomposable letters.
func foldCase(s string) string {
	for i := 0; i < 4; i++ {
		next := s
		if folded, _, err := transform.String(foldMarks, next); err == nil {
			next = folded
		}
		next = strings.ToUpper(next)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// Tokens splits an already normalized name.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// LeadingTokens returns up to the first n tokens of a normalized name.
func LeadingTokens(normalized string, n int) []string {
	tokens := Tokens(normalized)
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}

func SameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func NormalizeHeader(input string) string {
	return strings.Join(strings.Fields(strings.TrimPrefix(input, "\ufeff")), " ")
}
