package pipeline

import "shipmatch/internal"

type Summary struct {
	Total       int                        `json:"total"`
	Matched     int                        `json:"matched"`
	Cash        int                        `json:"cash"`
	ByRationale map[internal.Rationale]int `json:"byRationale"`
	BySeverity  map[internal.Severity]int  `json:"bySeverity"`
}

func Summarize(outcomes []internal.MatchOutcome, threshold float64) Summary {
	s := Summary{
		Total:       len(outcomes),
		ByRationale: map[internal.Rationale]int{},
		BySeverity:  map[internal.Severity]int{},
	}
	for _, o := range outcomes {
		if o.IsCash() {
			s.Cash++
		} else {
			s.Matched++
		}
		s.ByRationale[o.Rationale]++
		s.BySeverity[SeverityOf(o, threshold)]++
	}
	return s
}
