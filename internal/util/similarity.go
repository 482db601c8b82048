package util

import (
	"sort"
	"strings"

	"github.com/adrg/strutil/metrics"
)

// MaxScore is the top of the similarity scale shared by every scorer.
const MaxScore = 100.0

// indel is an insert/delete edit distance: a replacement costs as much as a
// deletion plus an insertion.
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Ratio scores two strings on 0..100 from their indel distance. An empty
// side scores 0.
func Ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return MaxScore
	}
	dist := indel.Distance(a, b)
	return MaxScore * (1 - float64(dist)/float64(la+lb))
}

// TokenSetRatio compares the unique token sets of two normalized names, so
// word order and repeated words do not matter. When one set contains the
// other the score is MaxScore.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return MaxScore
	}

	sect := strings.Join(inter, " ")
	withA := joinNonEmpty(sect, strings.Join(onlyA, " "))
	withB := joinNonEmpty(sect, strings.Join(onlyB, " "))

	best := Ratio(withA, withB)
	if s := Ratio(sect, withA); s > best {
		best = s
	}
	if s := Ratio(sect, withB); s > best {
		best = s
	}
	return best
}

// PartialRatio is the best Ratio between the shorter string and any window of
// the longer one with the same length.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return Ratio(string(short), string(long))
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		score := Ratio(s, string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == MaxScore {
				break
			}
		}
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
