package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"shipmatch/internal"
)

var exportHeaders = []string{
	"Tracking Number", "Recipient Company Name", "Assigned Account", "Match Score",
	"Top Suggestion", "Suggestions", "Comment", "Severity",
}

var severityFill = map[internal.Severity]string{
	internal.SeverityConfident: "C6EFCE",
	internal.SeverityReview:    "FFEB9C",
	internal.SeverityNoMatch:   "FFC7CE",
}

// SeverityOf classifies an outcome for reviewers. It does not change the
// assignment.
func SeverityOf(o internal.MatchOutcome, threshold float64) internal.Severity {
	switch {
	case o.IsCash() && o.MatchScore < threshold:
		return internal.SeverityNoMatch
	case o.MatchScore < threshold || o.Rationale == internal.RationaleAmbiguous:
		return internal.SeverityReview
	default:
		return internal.SeverityConfident
	}
}

func exportRow(o internal.MatchOutcome, threshold float64) []any {
	names := make([]string, 0, len(o.Suggestions))
	for _, s := range o.Suggestions {
		names = append(names, fmt.Sprintf("%s (%s, %.1f)", s.CustomerName, s.AccountNumber, s.Score))
	}
	return []any{
		o.TrackingNumber,
		o.RecipientCompanyName,
		o.AssignedAccount,
		roundScore(o.MatchScore),
		o.TopSuggestion(),
		strings.Join(names, " | "),
		string(o.Rationale),
		string(SeverityOf(o, threshold)),
	}
}

// BuildWorkbook lays out outcomes on one sheet, one row per shipment, with
// the row filled by severity.
func BuildWorkbook(outcomes []internal.MatchOutcome, threshold float64) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Matches"); err != nil {
		return nil, err
	}
	sheet = "Matches"

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	styles := map[internal.Severity]int{}
	for sev, color := range severityFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, err
		}
		styles[sev] = id
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	_ = f.SetCellStyle(sheet, "A1", last, headerStyle)

	for i, o := range outcomes {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		for c, v := range exportRow(o, threshold) {
			set(c+1, v)
		}
		first, _ := excelize.CoordinatesToCellName(1, r)
		end, _ := excelize.CoordinatesToCellName(len(exportHeaders), r)
		if err := f.SetCellStyle(sheet, first, end, styles[SeverityOf(o, threshold)]); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "E", "F", 40)
	_ = f.SetColWidth(sheet, "G", "G", 34)
	return f, nil
}

func ExportOutcomesToXLSX(outcomes []internal.MatchOutcome, threshold float64, outputPath string) error {
	f, err := BuildWorkbook(outcomes, threshold)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func WriteOutcomesCSV(w io.Writer, outcomes []internal.MatchOutcome, threshold float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}
	for _, o := range outcomes {
		row := exportRow(o, threshold)
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportOutcomesToCSV(outcomes []internal.MatchOutcome, threshold float64, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := WriteOutcomesCSV(f, outcomes, threshold); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Export picks the writer from the output extension.
func Export(outcomes []internal.MatchOutcome, threshold float64, outputPath string) error {
	switch ext := strings.ToLower(filepath.Ext(outputPath)); ext {
	case ".xlsx":
		return ExportOutcomesToXLSX(outcomes, threshold, outputPath)
	case ".csv":
		return ExportOutcomesToCSV(outcomes, threshold, outputPath)
	default:
		return fmt.Errorf("unsupported output type: %s", ext)
	}
}

func roundScore(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
