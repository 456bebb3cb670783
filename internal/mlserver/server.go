// Package mlserver provides the HTTP API of the sentimentd inference
// service.
package mlserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/httpmetrics"
	"github.com/feelwritelabs/feelwrite/internal/sentiment"
	"github.com/feelwritelabs/feelwrite/internal/store"
)

// Server serves the /analyze endpoint.
type Server struct {
	echo       *echo.Echo
	classifier sentiment.Classifier
	entries    store.EntryStore
	logger     *zap.Logger
	config     *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Registerer receives the server's metrics collectors. Nil leaves
	// them unregistered, which is what tests want.
	Registerer prometheus.Registerer
}

// NewServer creates the inference service HTTP server.
func NewServer(classifier sentiment.Classifier, entries store.EntryStore, logger *zap.Logger, cfg *Config) (*Server, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier cannot be nil")
	}
	if entries == nil {
		return nil, fmt.Errorf("entry store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 5001,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(httpmetrics.Middleware(httpmetrics.New(cfg.Registerer, "sentimentd")))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:       e,
		classifier: classifier,
		entries:    entries,
		logger:     logger,
		config:     cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(httpmetrics.ScrapeHandler(s.config.Registerer)))
	s.echo.POST("/analyze", s.handleAnalyze)
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	EntryID string `json:"entry_id"`
	Text    string `json:"text"`
}

// AnalyzeResponse is the success body for POST /analyze.
type AnalyzeResponse struct {
	Status    string           `json:"status"`
	EntryID   string           `json:"entry_id"`
	Sentiment *sentiment.Score `json:"sentiment"`
}

// ErrorResponse is the error body for all failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Model: sentiment.ModelName})
}

// handleAnalyze scores the text and upserts the sentiment onto the entry.
//
// Validation failures produce a 400 with no side effects; scoring
// failures a 503; storage failures a 500. Success performs exactly one
// document write.
func (s *Server) handleAnalyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.EntryID == "" || req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "entry_id and text are required"})
	}

	entryID, err := store.ParseID(req.EntryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "entry_id is not a valid entry id"})
	}

	ctx := c.Request().Context()

	score, err := s.classifier.Classify(ctx, req.Text)
	if err != nil {
		s.logger.Error("classification failed",
			zap.String("entry_id", req.EntryID),
			zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "sentiment scoring unavailable"})
	}

	if err := s.entries.UpsertSentiment(ctx, entryID, score); err != nil {
		s.logger.Error("sentiment upsert failed",
			zap.String("entry_id", req.EntryID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store sentiment"})
	}

	s.logger.Debug("entry scored",
		zap.String("entry_id", req.EntryID),
		zap.Float64("composite_score", score.Composite))

	return c.JSON(http.StatusOK, AnalyzeResponse{
		Status:    "updated",
		EntryID:   req.EntryID,
		Sentiment: &score,
	})
}

// Handler exposes the HTTP handler for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting inference http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down inference http server")
	return s.echo.Shutdown(ctx)
}
