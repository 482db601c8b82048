package pipeline

import (
	"strings"

	"shipmatch/internal/util"
)

var organisationIndicators = map[string]struct{}{
	"PTY":          {},
	"LTD":          {},
	"INC":          {},
	"CO":           {},
	"CORP":         {},
	"LABS":         {},
	"LABORATORIES": {},
	"P/L":          {},
}

const maxPersonalTokens = 2

// LooksPersonal reports whether a raw recipient name reads like an individual
// rather than an organisation: at most two words and no organisational
// indicator word. It inspects the raw name because normalization drops the
// very words it looks for. Blank or punctuation-only names are not personal.
func LooksPersonal(raw string) bool {
	tokens := strings.Fields(strings.ToUpper(raw))
	if len(tokens) == 0 || len(tokens) > maxPersonalTokens {
		return false
	}
	for _, tok := range tokens {
		if _, ok := organisationIndicators[strings.Trim(tok, ".,;:()")]; ok {
			return false
		}
	}
	return util.NormalizeName(raw) != ""
}
