package util

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestRatio(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "equal", a: "ACME", b: "ACME", want: 100},
		{name: "both empty", a: "", b: "", want: 0},
		{name: "one empty", a: "ACME", b: "", want: 0},
		{name: "disjoint", a: "AB", b: "CD", want: 0},
		{name: "one substitution", a: "ABCD", b: "ABCE", want: 75},
		{name: "one insertion", a: "ABC", b: "ABCD", want: 100 * (1 - 1.0/7)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Ratio(tc.a, tc.b); !near(got, tc.want) {
				t.Fatalf("Ratio(%q,%q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestTokenSetRatio(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "reordered", a: "SMITH PHARMACY", b: "PHARMACY SMITH", want: 100},
		{name: "subset", a: "ABC TRADING", b: "ABC TRADING SERVICES", want: 100},
		{name: "duplicates ignored", a: "ACME ACME FOODS", b: "FOODS ACME", want: 100},
		{name: "empty both", a: "", b: "", want: 0},
		{name: "empty one", a: "", b: "ACME", want: 0},
		{name: "disjoint", a: "XY", b: "QZ", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TokenSetRatio(tc.a, tc.b); !near(got, tc.want) {
				t.Fatalf("TokenSetRatio(%q,%q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestTokenSetRatioPartialOverlap(t *testing.T) {
	got := TokenSetRatio("ACME FREIGHT SYDNEY", "ACME FREIGHT MELBOURNE")
	if got <= 50 || got >= 100 {
		t.Fatalf("expected a partial score, got %v", got)
	}
	if sym := TokenSetRatio("ACME FREIGHT MELBOURNE", "ACME FREIGHT SYDNEY"); !near(sym, got) {
		t.Fatalf("not symmetric: %v vs %v", got, sym)
	}
}

func TestPartialRatio(t *testing.T) {
	if got := PartialRatio("PHARM", "SMITH PHARMACY"); !near(got, 100) {
		t.Fatalf("substring should score 100, got %v", got)
	}
	if got := PartialRatio("SMITH PHARMACY", "PHARM"); !near(got, 100) {
		t.Fatalf("argument order should not matter, got %v", got)
	}
	if got := PartialRatio("", "ACME"); got != 0 {
		t.Fatalf("empty should score 0, got %v", got)
	}
	if got := PartialRatio("ACME", "ACNE"); !near(got, Ratio("ACME", "ACNE")) {
		t.Fatalf("equal lengths should fall back to Ratio, got %v", got)
	}
}

func TestScoresBounded(t *testing.T) {
	pairs := [][2]string{{"A", "B"}, {"ACME", "ACME PTY"}, {"WOOLWORTHS", "WOOLIES"}, {"", "X"}}
	for _, p := range pairs {
		for _, score := range []float64{Ratio(p[0], p[1]), TokenSetRatio(p[0], p[1]), PartialRatio(p[0], p[1])} {
			if score < 0 || score > MaxScore {
				t.Fatalf("score %v out of range for %v", score, p)
			}
		}
	}
}
