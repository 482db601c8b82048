package connectors

import (
	"context"
	"fmt"
	"strings"

	"shipmatch/internal"
	"shipmatch/internal/config"
	gmailconnector "shipmatch/internal/connectors/gmail"
	imapconnector "shipmatch/internal/connectors/imap"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

func New(cfg config.Config, provider string) (MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
