package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shipmatch/internal"
	"shipmatch/internal/config"
	"shipmatch/internal/storage"
)

var ErrNoAccounts = errors.New("account directory is empty; import accounts first")

type RunService struct {
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
}

// NewRunService accepts a nil db when every run supplies its own account file.
func NewRunService(db *storage.DB, cfg config.Config, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{db: db, cfg: cfg, logger: logger}
}

type RunRequest struct {
	Shipments Table
	// Accounts is used when set; otherwise the stored directory is loaded.
	Accounts  *Table
	Threshold float64
	Output    string
}

type RunResult struct {
	RunID     string                  `json:"run_id"`
	Threshold float64                 `json:"threshold"`
	Summary   Summary                 `json:"summary"`
	Outcomes  []internal.MatchOutcome `json:"outcomes"`
	Output    string                  `json:"output,omitempty"`
}

// RunFiles reads both datasets from disk and runs them.
func (s *RunService) RunFiles(ctx context.Context, shipmentsPath, accountsPath string, threshold float64, output string) (RunResult, error) {
	shipments, err := ReadTable(shipmentsPath)
	if err != nil {
		return RunResult{}, err
	}
	req := RunRequest{Shipments: shipments, Threshold: threshold, Output: output}
	if accountsPath != "" {
		accounts, err := ReadTable(accountsPath)
		if err != nil {
			return RunResult{}, err
		}
		req.Accounts = &accounts
	}
	return s.Run(ctx, req)
}

// Run validates both datasets before matching anything, matches every
// shipment, and exports when an output path is set.
func (s *RunService) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := config.ValidateThreshold(req.Threshold); err != nil {
		return RunResult{}, err
	}
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID)

	if err := RequireColumns(req.Shipments, req.Accounts); err != nil {
		return RunResult{}, err
	}
	shipments, err := LoadShipments(req.Shipments)
	if err != nil {
		return RunResult{}, err
	}
	accounts, source, err := s.accounts(req.Accounts)
	if err != nil {
		return RunResult{}, err
	}
	loadMs := time.Since(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	matcher := NewMatcher(accounts, req.Threshold)
	for name, numbers := range matcher.Index().Duplicates() {
		log.Warn("duplicate customer name in directory", "name", name, "accounts", numbers)
	}

	matchStart := time.Now()
	outcomes := matcher.MatchAll(shipments)
	matchMs := time.Since(matchStart).Milliseconds()
	distinct, hits := matcher.normalizer.Stats()

	res := RunResult{
		RunID:     runID,
		Threshold: req.Threshold,
		Summary:   Summarize(outcomes, req.Threshold),
		Outcomes:  outcomes,
	}

	if req.Output != "" {
		if err := Export(outcomes, req.Threshold, req.Output); err != nil {
			return RunResult{}, fmt.Errorf("export %s: %w", req.Output, err)
		}
		res.Output = req.Output
	}

	log.Info("run finished",
		"shipments", req.Shipments.Source,
		"accounts", source,
		"directory_size", len(accounts),
		"total", res.Summary.Total,
		"matched", res.Summary.Matched,
		"cash", res.Summary.Cash,
		"normalized_names", distinct,
		"normalize_cache_hits", hits,
		"load_ms", loadMs,
		"match_ms", matchMs,
		"total_ms", time.Since(start).Milliseconds(),
		"output", res.Output,
	)

	return res, nil
}

func (s *RunService) accounts(t *Table) ([]internal.AccountRecord, string, error) {
	if t != nil {
		records, err := LoadAccounts(*t)
		return records, t.Source, err
	}
	if s.db == nil {
		return nil, "", ErrNoAccounts
	}
	records, err := s.db.ListAccounts()
	if err != nil {
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrNoAccounts
	}
	source := "stored directory"
	if v, err := s.db.GetMetadata(storage.MetaAccountsSource); err == nil && v != nil {
		source = *v
	}
	return records, source, nil
}

// ImportAccounts replaces the stored directory with the accounts in path.
func (s *RunService) ImportAccounts(path string) (int, error) {
	t, err := ReadTable(path)
	if err != nil {
		return 0, err
	}
	return s.ImportTable(t)
}

func (s *RunService) ImportTable(t Table) (int, error) {
	if s.db == nil {
		return 0, errors.New("no database configured")
	}
	records, err := LoadAccounts(t)
	if err != nil {
		return 0, err
	}
	if err := s.db.ReplaceAccounts(records, t.Source); err != nil {
		return 0, err
	}
	s.logger.Info("accounts imported", "source", t.Source, "count", len(records))
	return len(records), nil
}
