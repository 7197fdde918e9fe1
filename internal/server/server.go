// Package server provides the HTTP API for the guidance dialogue, OCR and
// the job search.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/ai"
	"github.com/roguegoose-dev/goose-guidance/internal/dialogue"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
)

const (
	DefaultPort           = 8080
	DefaultMaxUploadBytes = 20 << 20
	shutdownTimeout       = 30 * time.Second
)

// Replier produces a persona reply for one dialogue turn.
type Replier interface {
	GenerateReply(ctx context.Context, req dialogue.Request) (*dialogue.Reply, error)
}

// Searcher runs an aggregated job search.
type Searcher interface {
	Search(ctx context.Context, q jobs.Query) (*jobs.Result, error)
}

// Config holds the HTTP settings.
type Config struct {
	Port int
	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	CORSOrigin string
	// TrustForwarded makes the first X-Forwarded-For entry the client IP.
	TrustForwarded bool
	MaxUploadBytes int64
	Version        string
}

// Deps are the services behind the handlers. OCR may be nil, in which case
// /api/ocr answers 503.
type Deps struct {
	Dialogue Replier
	OCR      ai.TextExtractor
	Jobs     Searcher
}

// Server is the HTTP API server.
type Server struct {
	cfg       Config
	deps      Deps
	validator *validator.Validate
	logger    *zap.Logger
	handler   http.Handler
}

// New creates a server and registers its routes.
func New(cfg Config, deps Deps, log *zap.Logger) *Server {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if strings.TrimSpace(cfg.CORSOrigin) == "" {
		cfg.CORSOrigin = "*"
	}

	s := &Server{
		cfg:       cfg,
		deps:      deps,
		validator: validator.New(),
		logger:    logger.WithFields(log),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/ocr", s.handleOCR)
	mux.HandleFunc("GET /api/jobs", s.handleJobs)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.withRequestID(s.withLogging(s.withCORS(s.withClientInfo(mux))))
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.Int("port", s.cfg.Port), zap.String("version", s.cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
