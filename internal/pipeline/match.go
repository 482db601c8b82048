package pipeline

import (
	"shipmatch/internal"
	"shipmatch/internal/accounts"
)

// Matcher holds the normalized account directory for one run and matches
// shipments against it at a fixed threshold (0..100).
type Matcher struct {
	threshold  float64
	normalizer *Normalizer
	index      *accounts.Index
}

func NewMatcher(records []internal.AccountRecord, threshold float64) *Matcher {
	n := NewNormalizer()
	return &Matcher{
		threshold:  threshold,
		normalizer: n,
		index:      accounts.BuildIndex(records, n.Normalize),
	}
}

func (m *Matcher) Threshold() float64 { return m.threshold }

func (m *Matcher) Index() *accounts.Index { return m.index }

func (m *Matcher) Match(shipment internal.ShipmentRecord) internal.MatchOutcome {
	outcome := internal.MatchOutcome{
		TrackingNumber:       shipment.TrackingNumber,
		RecipientCompanyName: shipment.RecipientCompanyName,
		AssignedAccount:      internal.AccountCash,
		Suggestions:          []internal.Suggestion{},
	}

	if LooksPersonal(shipment.RecipientCompanyName) {
		outcome.Rationale = internal.RationalePersonalName
		return outcome
	}

	recipient := m.normalizer.Normalize(shipment.RecipientCompanyName)
	decision := Rank(recipient, ScoreAll(recipient, m.index), m.threshold)

	outcome.Rationale = decision.Rationale
	outcome.Suggestions = decision.Suggestions
	if decision.Account != nil {
		outcome.AssignedAccount = decision.Account.AccountNumber
		outcome.MatchScore = decision.Score
	}
	return outcome
}

// MatchAll normalizes the directory once and returns one outcome per
// shipment, in input order. Inputs are not modified.
func MatchAll(shipments []internal.ShipmentRecord, records []internal.AccountRecord, threshold float64) []internal.MatchOutcome {
	m := NewMatcher(records, threshold)
	return m.MatchAll(shipments)
}

func (m *Matcher) MatchAll(shipments []internal.ShipmentRecord) []internal.MatchOutcome {
	out := make([]internal.MatchOutcome, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, m.Match(s))
	}
	return out
}
