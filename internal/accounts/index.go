package accounts

import (
	"shipmatch/internal"
	"shipmatch/internal/util"
)

// LeadingTokenCount is how many leading tokens the tie-break compares.
const LeadingTokenCount = 2

// Entry is one directory account with its comparison form computed once.
type Entry struct {
	Position       int
	Account        internal.AccountRecord
	NormalizedName string
	Leading        []string
}

// Index is the read-only, normalized view of the account directory for one
// run. Entries keep the directory's original order.
type Index struct {
	Entries []Entry
	ByName  map[string][]int
}

// BuildIndex normalizes every account name once through normalize, which is
// expected to cache repeated names.
func BuildIndex(records []internal.AccountRecord, normalize func(string) string) *Index {
	idx := &Index{
		Entries: make([]Entry, 0, len(records)),
		ByName:  map[string][]int{},
	}

	for i, rec := range records {
		norm := normalize(rec.CustomerName)
		idx.Entries = append(idx.Entries, Entry{
			Position:       i,
			Account:        rec,
			NormalizedName: norm,
			Leading:        util.LeadingTokens(norm, LeadingTokenCount),
		})
		if norm != "" {
			idx.ByName[norm] = append(idx.ByName[norm], i)
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.Entries)
}

// Duplicates returns normalized names shared by more than one account number.
// They cannot be told apart by name alone and always tie on score.
func (idx *Index) Duplicates() map[string][]string {
	out := map[string][]string{}
	for name, positions := range idx.ByName {
		seen := map[string]struct{}{}
		var numbers []string
		for _, p := range positions {
			n := idx.Entries[p].Account.AccountNumber
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			numbers = append(numbers, n)
		}
		if len(numbers) > 1 {
			out[name] = numbers
		}
	}
	return out
}
