package connectors

import (
	"context"
	"log/slog"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
	logger    *slog.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(inboxDir string, connector MailConnector, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(inboxDir),
		logger:    logger,
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		path, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{}, err
		}
		if path == "" {
			continue
		}
		stored++
		s.logger.Info("mail stored", "provider", msg.Provider, "message_id", msg.MessageID, "subject", msg.Subject, "path", path)
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
