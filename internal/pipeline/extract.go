package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"shipmatch/internal/util"
)

var ErrNoTable = errors.New("no table found")

// Table is a header row plus data rows as read from a spreadsheet-like source.
// Rows may be shorter than Headers; missing cells read as "".
type Table struct {
	Source  string
	Headers []string
	Rows    [][]string
}

func (t Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

func (t Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseXLSX(content []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content), excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if t, ok := tableFromRows(rows); ok {
			return t, nil
		}
	}
	return Table{}, ErrNoTable
}

func parseCSV(content []byte) (Table, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sniffDelimiter(content)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, record)
	}
	t, ok := tableFromRows(rows)
	if !ok {
		return Table{}, ErrNoTable
	}
	return t, nil
}

func parseHTMLTable(content []byte) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return Table{}, err
	}

	var out Table
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			rows = append(rows, cells)
		})
		out, found = tableFromRows(rows)
		return !found
	})
	if !found {
		return Table{}, ErrNoTable
	}
	return out, nil
}

// parseEmail takes the first readable spreadsheet attachment of a message,
// falling back to a table in its HTML body. An unreadable attachment is
// reported only when nothing else yields a table.
func parseEmail(content []byte) (Table, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(content))
	if err != nil {
		return Table{}, err
	}

	var firstErr error
	parts := append([]*enmime.Part{}, env.Attachments...)
	parts = append(parts, env.Inlines...)
	for _, part := range parts {
		name := strings.TrimSpace(part.FileName)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx", ".xlsm", ".csv":
			t, err := ReadTableFrom(name, part.Content)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("attachment %s: %w", name, err)
				}
				continue
			}
			t.Source = name
			return t, nil
		}
	}

	if strings.Contains(strings.ToLower(env.HTML), "<table") {
		if t, err := parseHTMLTable([]byte(env.HTML)); err == nil {
			return t, nil
		}
	}
	if firstErr != nil {
		return Table{}, firstErr
	}
	return Table{}, ErrNoTable
}

// tableFromRows uses the first non-blank row as the header and drops blank
// data rows.
func tableFromRows(rows [][]string) (Table, bool) {
	var t Table
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if t.Headers == nil {
			t.Headers = make([]string, 0, len(row))
			for _, h := range row {
				t.Headers = append(t.Headers, util.NormalizeHeader(h))
			}
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, t.Headers != nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func normalizeSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
