package preview

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"shipmatch/internal"
	"shipmatch/internal/pipeline"
)

var severityColor = map[internal.Severity]*color.Color{
	internal.SeverityConfident: color.New(color.FgGreen),
	internal.SeverityReview:    color.New(color.FgYellow),
	internal.SeverityNoMatch:   color.New(color.FgRed, color.Bold),
}

// Render writes outcomes as a table, at most limit rows when limit > 0.
// The assigned account is coloured by severity.
func Render(w io.Writer, outcomes []internal.MatchOutcome, threshold float64, limit int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tracking", "Recipient", "Account", "Score", "Top suggestion", "Comment"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	shown := outcomes
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, o := range shown {
		sev := pipeline.SeverityOf(o, threshold)
		table.Append([]string{
			o.TrackingNumber,
			truncate(o.RecipientCompanyName, 40),
			severityColor[sev].Sprint(o.AssignedAccount),
			fmt.Sprintf("%.1f", o.MatchScore),
			truncate(o.TopSuggestion(), 40),
			string(o.Rationale),
		})
	}
	table.Render()

	if len(shown) < len(outcomes) {
		fmt.Fprintf(w, "... %d more rows\n", len(outcomes)-len(shown))
	}
}

// RenderSummary writes the per-rationale counts of a run.
func RenderSummary(w io.Writer, s pipeline.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Comment", "Rows"})
	table.SetAutoFormatHeaders(false)

	seen := map[internal.Rationale]bool{}
	for _, r := range internal.Rationales {
		seen[r] = true
		if n := s.ByRationale[r]; n > 0 {
			table.Append([]string{string(r), fmt.Sprint(n)})
		}
	}
	var extra []string
	for r := range s.ByRationale {
		if !seen[r] {
			extra = append(extra, string(r))
		}
	}
	sort.Strings(extra)
	for _, r := range extra {
		table.Append([]string{r, fmt.Sprint(s.ByRationale[internal.Rationale(r)])})
	}
	table.SetFooter([]string{"matched / cash", fmt.Sprintf("%d / %d", s.Matched, s.Cash)})
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
