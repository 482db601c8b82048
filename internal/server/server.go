package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"shipmatch/internal/config"
	"shipmatch/internal/pipeline"
	"shipmatch/internal/storage"
)

type Server struct {
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
	runs   *pipeline.RunService
	router *gin.Engine
}

func New(db *storage.DB, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{db: db, cfg: cfg, logger: logger, runs: pipeline.NewRunService(db, cfg, logger)}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = int64(s.maxUploadMB()) << 20
	r.Use(requestIDMiddleware(), loggerMiddleware(s.logger), gin.Recovery(), gzip.Gzip(gzip.BestSpeed))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api", bodyLimitMiddleware(int64(s.maxUploadMB())<<20))
	api.POST("/match", s.handleMatch)
	api.GET("/accounts", s.handleListAccounts)
	api.POST("/accounts", s.handleImportAccounts)
	return r
}

func (s *Server) maxUploadMB() int {
	if s.cfg.HTTPMaxUploadMB <= 0 {
		return 32
	}
	return s.cfg.HTTPMaxUploadMB
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	readTimeout := time.Duration(s.cfg.HTTPReadTimeoutS) * time.Second
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
