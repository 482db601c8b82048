package imap

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"

	"shipmatch/internal/config"
)

func TestToFetched(t *testing.T) {
	when := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("AEDT", 11*3600))
	msg := &imap.Message{
		Uid:          42,
		InternalDate: when,
		Envelope: &imap.Envelope{
			Subject: "Shipments",
			From: []*imap.Address{
				{PersonalName: "Dispatch", MailboxName: "ops", HostName: "example.com"},
				nil,
				{MailboxName: "billing", HostName: "example.com"},
			},
		},
	}
	got := toFetched(msg, []byte("raw"))
	if got.MessageID != "imap-42" || got.Subject != "Shipments" || got.ReceivedAt != "2026-03-01T22:30:00Z" {
		t.Fatalf("got=%+v", got)
	}
	if got.From != "Dispatch <ops@example.com>, billing@example.com" {
		t.Fatalf("from=%q", got.From)
	}
}

func TestNewConnectorRequiresCredentials(t *testing.T) {
	if _, err := NewConnector(configWith("", "u", "p")); err == nil {
		t.Fatal("expected missing host error")
	}
	if _, err := NewConnector(configWith("mail.example.com", "u", "p")); err != nil {
		t.Fatal(err)
	}
}

func configWith(host, user, password string) config.Config {
	return config.Config{IMAPHost: host, IMAPUser: user, IMAPPassword: password, IMAPPort: 993, IMAPSecure: true}
}
