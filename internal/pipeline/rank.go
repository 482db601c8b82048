package pipeline

import (
	"sort"

	"shipmatch/internal"
	"shipmatch/internal/accounts"
	"shipmatch/internal/util"
)

const (
	// SuggestionLimit caps the suggestions kept for every outcome.
	SuggestionLimit = 3
	// FallbackMargin relaxes the threshold for the partial-overlap pass.
	FallbackMargin = 10.0
)

// Decision is the ranker's verdict for one recipient. Account is nil when the
// shipment falls back to Cash.
type Decision struct {
	Account     *internal.AccountRecord
	Score       float64
	Rationale   internal.Rationale
	Suggestions []internal.Suggestion
}

// Rank orders scored candidates and applies the acceptance policy:
//
//  1. exactly one suggestion at or above threshold is accepted outright;
//  2. several are resolved by the first whose two leading tokens equal the
//     recipient's, otherwise the best one is accepted as ambiguous;
//  3. none falls through to a partial-overlap pass at threshold-FallbackMargin;
//  4. otherwise the shipment is Cash.
//
// Equal scores are ordered by plain ratio, then by directory position, so the
// result is deterministic. scored is reordered in place.
func Rank(recipient string, scored []Candidate, threshold float64) Decision {
	sortCandidates(scored)

	top := make([]Candidate, 0, SuggestionLimit)
	for _, c := range scored {
		if len(top) == SuggestionLimit || c.Score <= 0 {
			break
		}
		top = append(top, c)
	}
	suggestions := toSuggestions(top)

	strong := make([]Candidate, 0, len(top))
	for _, c := range top {
		if c.Score >= threshold {
			strong = append(strong, c)
		}
	}

	switch {
	case len(strong) == 1:
		return accept(strong[0], strong[0].Score, internal.RationaleSingleStrong, suggestions)
	case len(strong) > 1:
		lead := util.LeadingTokens(recipient, accounts.LeadingTokenCount)
		for _, c := range strong {
			if util.SameTokens(lead, c.Entry.Leading) {
				return accept(c, c.Score, internal.RationaleTieBreak, suggestions)
			}
		}
		return accept(strong[0], strong[0].Score, internal.RationaleAmbiguous, suggestions)
	}

	if best, score, ok := bestPartial(recipient, scored); ok && score >= threshold-FallbackMargin {
		return accept(best, score, internal.RationalePartial, suggestions)
	}

	return Decision{Score: 0, Rationale: internal.RationaleNoMatch, Suggestions: suggestions}
}

func sortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Score != c[j].Score {
			return c[i].Score > c[j].Score
		}
		if c[i].Ratio != c[j].Ratio {
			return c[i].Ratio > c[j].Ratio
		}
		return c[i].Entry.Position < c[j].Entry.Position
	})
}

// bestPartial expects ranked candidates; the earliest wins a tie.
func bestPartial(recipient string, ranked []Candidate) (Candidate, float64, bool) {
	var best Candidate
	bestScore := 0.0
	for _, c := range ranked {
		if s := util.PartialRatio(recipient, c.Entry.NormalizedName); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore, bestScore > 0
}

func accept(c Candidate, score float64, why internal.Rationale, suggestions []internal.Suggestion) Decision {
	account := c.Entry.Account
	return Decision{Account: &account, Score: score, Rationale: why, Suggestions: suggestions}
}

func toSuggestions(top []Candidate) []internal.Suggestion {
	out := make([]internal.Suggestion, 0, len(top))
	for _, c := range top {
		out = append(out, internal.Suggestion{
			CustomerName:  c.Entry.Account.CustomerName,
			AccountNumber: c.Entry.Account.AccountNumber,
			Score:         c.Score,
		})
	}
	return out
}
