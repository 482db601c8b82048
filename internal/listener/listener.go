package listener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"shipmatch/internal"
	"shipmatch/internal/config"
	"shipmatch/internal/connectors"
	"shipmatch/internal/pipeline"
	"shipmatch/internal/storage"
)

var inboxExtensions = map[string]bool{
	".xlsx": true, ".xlsm": true, ".csv": true, ".html": true, ".htm": true, ".eml": true,
}

// Service watches INBOX_DIR for shipment files and matches each new file
// against the stored account directory once.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
	runs   *pipeline.RunService
	mail   connectors.MailConnector
}

func NewService(db *storage.DB, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, cfg: cfg, logger: logger, runs: pipeline.NewRunService(db, cfg, logger)}
}

// SetMailConnector overrides the connector built from MAIL_PROVIDER.
func (s *Service) SetMailConnector(c connectors.MailConnector) {
	s.mail = c
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Seen      int
	Processed int
	Failed    int
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if res, err := s.RunCycle(ctx); err != nil {
			s.logger.Error("listener cycle error", "err", err)
		} else if res.Stored+res.Processed+res.Failed > 0 {
			s.logger.Info("listener cycle done", "fetched", res.Fetched, "stored", res.Stored, "seen", res.Seen, "processed", res.Processed, "failed", res.Failed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.ListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	if err := s.fetchMail(ctx, &res); err != nil {
		s.logger.Warn("mail intake failed", "provider", s.cfg.MailProvider, "err", err)
	}

	entries, err := os.ReadDir(s.cfg.InboxDir)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, err
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !inboxExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Seen++

		path := filepath.Join(s.cfg.InboxDir, entry.Name())
		blob, err := os.ReadFile(path)
		if err != nil {
			return res, err
		}
		sum := sha256.Sum256(blob)
		hash := hex.EncodeToString(sum[:])

		known, err := s.db.GetInboxFileByHash(hash)
		if err != nil {
			return res, err
		}
		if known != nil {
			continue
		}

		record, err := s.processFile(ctx, path, blob)
		if errors.Is(err, pipeline.ErrNoAccounts) || errors.Is(err, context.Canceled) {
			return res, err
		}
		record.Path = path
		record.Hash = hash
		if err != nil {
			record.Status = storage.InboxFailed
			record.Error = err.Error()
			res.Failed++
			s.logger.Warn("inbox file failed", "file", entry.Name(), "err", err)
		} else {
			record.Status = storage.InboxProcessed
			res.Processed++
		}
		if err := s.db.RecordInboxFile(record); err != nil {
			return res, err
		}
	}
	return res, nil
}

// fetchMail drops new shipment emails into the inbox before it is scanned.
func (s *Service) fetchMail(ctx context.Context, res *CycleResult) error {
	if s.mail == nil {
		if s.cfg.MailProvider == "" {
			return nil
		}
		c, err := connectors.New(s.cfg, s.cfg.MailProvider)
		if err != nil {
			return err
		}
		s.mail = c
	}
	fetched, err := connectors.NewFetchService(s.cfg.InboxDir, s.mail, s.logger).FetchAndStore(ctx, s.cfg.MailLabel, s.cfg.MailFetchMax)
	res.Fetched, res.Stored = fetched.Fetched, fetched.Stored
	return err
}

func (s *Service) processFile(ctx context.Context, path string, blob []byte) (internal.InboxFile, error) {
	table, err := pipeline.ReadTableFrom(path, blob)
	if err != nil {
		return internal.InboxFile{}, err
	}

	req := pipeline.RunRequest{Shipments: table, Threshold: s.cfg.MatchThreshold}
	if s.cfg.ListenerAutoExport {
		req.Output = outputPath(s.cfg.OutputDir, path)
	}
	res, err := s.runs.Run(ctx, req)
	if err != nil {
		return internal.InboxFile{}, err
	}
	return internal.InboxFile{Rows: res.Summary.Total, Output: res.Output}, nil
}

// outputPath keeps the source extension in the name so drops that differ
// only by type do not overwrite each other.
func outputPath(outputDir, inputPath string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	name := sanitizeName(strings.TrimSuffix(base, ext))
	if ext = strings.ToLower(strings.TrimPrefix(ext, ".")); ext != "" {
		name += "_" + ext
	}
	return filepath.Join(outputDir, "listener", fmt.Sprintf("%s.matched.xlsx", name))
}

const maxNameBytes = 120

func sanitizeName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	return out
}
