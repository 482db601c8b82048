package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"shipmatch/internal"
	"shipmatch/internal/pipeline"
)

// MailStoreService drops fetched messages that carry a shipment table into
// the inbox directory, named by content hash.
type MailStoreService struct {
	inboxDir string
}

func NewMailStoreService(inboxDir string) *MailStoreService {
	return &MailStoreService{inboxDir: inboxDir}
}

// Store returns the written path, or "" when the message has no table or is
// already in the inbox.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (string, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if _, err := pipeline.ReadTableFrom(hash+".eml", msg.Raw); err != nil {
		return "", nil
	}

	if err := os.MkdirAll(s.inboxDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.inboxDir, msg.Provider+"_"+hash[:16]+".eml")
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	// Write then rename so the listener never reads a partial file.
	tmp := filepath.Join(s.inboxDir, "."+hash+".tmp")
	if err := os.WriteFile(tmp, msg.Raw, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
