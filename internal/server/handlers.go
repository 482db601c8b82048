package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shipmatch/internal/config"
	"shipmatch/internal/pipeline"
	"shipmatch/internal/storage"
)

func (s *Server) sendError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error":      true,
		"message":    err.Error(),
		"request_id": requestID(c),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	n, err := s.db.AccountCount()
	if err != nil {
		s.sendError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "accounts": n})
}

func (s *Server) handleMatch(c *gin.Context) {
	threshold, err := s.threshold(c)
	if err != nil {
		s.sendError(c, http.StatusBadRequest, err)
		return
	}

	shipments, err := s.uploadedTable(c, "shipments", true)
	if err != nil {
		s.sendError(c, uploadStatus(err), err)
		return
	}
	accounts, err := s.uploadedTable(c, "accounts", false)
	if err != nil {
		s.sendError(c, uploadStatus(err), err)
		return
	}

	res, err := s.runs.Run(c.Request.Context(), pipeline.RunRequest{Shipments: *shipments, Accounts: accounts, Threshold: threshold})
	if err != nil {
		s.sendError(c, statusFor(err), err)
		return
	}

	switch strings.ToLower(c.Query("format")) {
	case "xlsx":
		f, err := pipeline.BuildWorkbook(res.Outcomes, res.Threshold)
		if err != nil {
			s.sendError(c, http.StatusInternalServerError, err)
			return
		}
		defer f.Close()
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="matched-%s.xlsx"`, res.RunID))
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="matched-%s.csv"`, res.RunID))
		c.Status(http.StatusOK)
		if err := pipeline.WriteOutcomesCSV(c.Writer, res.Outcomes, res.Threshold); err != nil {
			_ = c.Error(err)
		}
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) handleImportAccounts(c *gin.Context) {
	t, err := s.uploadedTable(c, "accounts", true)
	if err != nil {
		s.sendError(c, uploadStatus(err), err)
		return
	}
	n, err := s.runs.ImportTable(*t)
	if err != nil {
		s.sendError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n, "source": t.Source})
}

func (s *Server) handleListAccounts(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	accounts, err := s.db.ListAccounts()
	if err != nil {
		s.sendError(c, http.StatusInternalServerError, err)
		return
	}
	source, _ := s.db.GetMetadata(storage.MetaAccountsSource)
	importedAt, _ := s.db.GetMetadata(storage.MetaAccountsImportedAt)

	total := len(accounts)
	if limit >= 0 && limit < total {
		accounts = accounts[:limit]
	}
	items := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, gin.H{"customerName": a.CustomerName, "accountNumber": a.AccountNumber})
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"source":     deref(source),
		"importedAt": deref(importedAt),
		"accounts":   items,
	})
}

func (s *Server) threshold(c *gin.Context) (float64, error) {
	raw := strings.TrimSpace(c.PostForm("threshold"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("threshold"))
	}
	if raw == "" {
		return s.cfg.MatchThreshold, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q", raw)
	}
	return v, config.ValidateThreshold(v)
}

// uploadedTable returns nil for an absent optional field.
func (s *Server) uploadedTable(c *gin.Context, field string, required bool) (*pipeline.Table, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, fmt.Errorf("missing file field: %s", field)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := readUpload(fh)
	if err != nil {
		return nil, err
	}
	t, err := pipeline.ReadTableFrom(fh.Filename, blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &t, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func statusFor(err error) int {
	var colErr *pipeline.ColumnError
	switch {
	case errors.As(err, &colErr):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoAccounts):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
