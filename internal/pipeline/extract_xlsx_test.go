package pipeline

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{" Tracking Number ", "Recipient Company Name", "Weight"},
		{"1Z999", "Smith Pharmacy Pty Ltd", 2.5},
		{"", "", ""},
		{123456789012, "ABC Trading", 1},
	})
	tbl, err := parseXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("len=%d", len(tbl.Rows))
	}
	if tbl.Column(ColTrackingNumber) != 0 || tbl.Column(ColRecipientCompanyName) != 1 {
		t.Fatalf("headers=%q", tbl.Headers)
	}
	if got := tbl.Cell(tbl.Rows[1], 0); got != "123456789012" {
		t.Fatalf("numeric tracking number read as %q", got)
	}
}

func TestParseXLSXSkipsLeadingBlankRows(t *testing.T) {
	blob := mkXLSX([][]any{
		{nil, nil},
		{"Customer Name", "Account Number"},
		{"Coles", "A400"},
	})
	tbl, err := parseXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	accounts, err := LoadAccounts(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].AccountNumber != "A400" {
		t.Fatalf("accounts=%+v", accounts)
	}
}
