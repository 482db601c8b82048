package connectors

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shipmatch/internal"
	"shipmatch/internal/config"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	err      error
}

func (s stubConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	return s.messages, s.err
}

func emailWithCSV(subject, csv string) []byte {
	return []byte("From: ops@example.com\r\nSubject: " + subject + "\r\nMIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"B\"\r\n\r\n" +
		"--B\r\nContent-Type: text/plain\r\n\r\nsee attached\r\n" +
		"--B\r\nContent-Type: text/csv; name=\"list.csv\"\r\nContent-Disposition: attachment; filename=\"list.csv\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n\r\n" + base64.StdEncoding.EncodeToString([]byte(csv)) + "\r\n--B--\r\n")
}

func TestFetchAndStore(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	raw := emailWithCSV("Shipments", "Tracking Number,Recipient Company Name\r\nT1,Acme Pty\r\n")
	conn := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "gmail", MessageID: "a", Raw: raw},
		{Provider: "gmail", MessageID: "a-dup", Raw: raw},
		{Provider: "gmail", MessageID: "b", Raw: []byte("Subject: hi\r\n\r\nno attachments\r\n")},
	}}
	svc := NewFetchService(inbox, conn, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 3 || res.Stored != 1 {
		t.Fatalf("res=%+v", res)
	}

	entries, err := os.ReadDir(inbox)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "gmail_") || filepath.Ext(entries[0].Name()) != ".eml" {
		t.Fatalf("entries=%v", entries)
	}
}

func TestFetchAndStoreConnectorError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewFetchService(t.TempDir(), stubConnector{err: boom}, nil)
	if _, err := svc.FetchAndStore(context.Background(), "INBOX", 10); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(configForTest(), "pop3"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New(configForTest(), "imap"); err == nil {
		t.Fatal("imap without host should fail")
	}
}

func configForTest() config.Config {
	return config.Config{IMAPPort: 993}
}
