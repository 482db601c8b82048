package pipeline

import (
	"shipmatch/internal/accounts"
	"shipmatch/internal/util"
)

// Candidate is one directory entry scored against the current recipient.
// Ratio is the order-sensitive score and only breaks ties between equal
// token-set scores.
type Candidate struct {
	Entry *accounts.Entry
	Score float64
	Ratio float64
}

// ScoreAll scores every directory entry against a normalized recipient. It
// never stops early: ranking needs the whole list.
func ScoreAll(recipient string, idx *accounts.Index) []Candidate {
	out := make([]Candidate, 0, idx.Len())
	for i := range idx.Entries {
		e := &idx.Entries[i]
		out = append(out, Candidate{
			Entry: e,
			Score: util.TokenSetRatio(recipient, e.NormalizedName),
			Ratio: util.Ratio(recipient, e.NormalizedName),
		})
	}
	return out
}
