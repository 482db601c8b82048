package pipeline

import (
	"encoding/base64"
	"strings"
	"testing"
)

type emailAttachment struct {
	name string
	body []byte
}

func mkEmail(attachmentName string, attachment []byte) []byte {
	return mkEmailParts("", emailAttachment{attachmentName, attachment})
}

func mkEmailParts(html string, attachments ...emailAttachment) []byte {
	var b strings.Builder
	b.WriteString("From: dispatch@example.com\r\n")
	b.WriteString("To: billing@example.com\r\n")
	b.WriteString("Subject: Shipments\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n\r\n")
	b.WriteString("--XYZ\r\n")
	if html != "" {
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(html + "\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString("See attached.\r\n")
	}
	for _, a := range attachments {
		b.WriteString("--XYZ\r\n")
		b.WriteString("Content-Type: application/octet-stream; name=\"" + a.name + "\"\r\n")
		b.WriteString("Content-Disposition: attachment; filename=\"" + a.name + "\"\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		b.WriteString(base64.StdEncoding.EncodeToString(a.body))
		b.WriteString("\r\n")
	}
	b.WriteString("--XYZ--\r\n")
	return []byte(b.String())
}

func TestParseEmailAttachment(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Tracking Number", "Recipient Company Name"},
		{"1Z1", "Coles Supermarket Pty"},
	})
	tbl, err := ReadTableFrom("inbox.eml", mkEmail("shipments.xlsx", blob))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Source != "shipments.xlsx" {
		t.Fatalf("source=%q", tbl.Source)
	}
	shipments, err := LoadShipments(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(shipments) != 1 || shipments[0].TrackingNumber != "1Z1" {
		t.Fatalf("shipments=%+v", shipments)
	}
}

func TestParseEmailWithoutTable(t *testing.T) {
	_, err := ReadTableFrom("inbox.eml", mkEmail("notes.pdf", []byte("%PDF-1.4")))
	if err != ErrNoTable {
		t.Fatalf("err=%v", err)
	}
}

func TestParseEmailSkipsUnreadableAttachment(t *testing.T) {
	msg := mkEmailParts("",
		emailAttachment{"broken.xlsx", []byte("not a workbook")},
		emailAttachment{"shipments.csv", []byte("Tracking Number,Recipient Company Name\n1Z9,Acme Pty\n")},
	)
	tbl, err := ReadTableFrom("inbox.eml", msg)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Source != "shipments.csv" || len(tbl.Rows) != 1 || tbl.Rows[0][0] != "1Z9" {
		t.Fatalf("table=%+v", tbl)
	}
}

func TestParseEmailFallsBackToHTMLBody(t *testing.T) {
	html := "<table><tr><th>Tracking Number</th><th>Recipient Company Name</th></tr><tr><td>1Z7</td><td>Coles</td></tr></table>"
	tbl, err := ReadTableFrom("inbox.eml", mkEmailParts(html, emailAttachment{"broken.xlsx", []byte("not a workbook")}))
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "1Z7" {
		t.Fatalf("table=%+v", tbl)
	}
}

func TestParseEmailReportsUnreadableAttachment(t *testing.T) {
	_, err := ReadTableFrom("inbox.eml", mkEmail("broken.xlsx", []byte("not a workbook")))
	if err == nil || err == ErrNoTable || !strings.Contains(err.Error(), "attachment broken.xlsx") {
		t.Fatalf("err=%v", err)
	}
}
