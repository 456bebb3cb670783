// Package webserver provides the feelwrited web application: signup,
// login, journal entry submission and display.
package webserver

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

	"github.com/feelwritelabs/feelwrite/internal/analyzer"
	"github.com/feelwritelabs/feelwrite/internal/auth"
	"github.com/feelwritelabs/feelwrite/internal/httpmetrics"
	"github.com/feelwritelabs/feelwrite/internal/store"
)

// Analyzer submits entry text to the sentiment service.
type Analyzer interface {
	Analyze(ctx context.Context, entryID, text string) (*analyzer.Result, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Registerer receives the server's metrics collectors. Nil leaves
	// them unregistered, which is what tests want.
	Registerer prometheus.Registerer
}

// Server serves the web application.
type Server struct {
	echo     *echo.Echo
	users    store.UserStore
	entries  store.EntryStore
	analyzer Analyzer
	sessions *auth.Sessions
	logger   *zap.Logger
	config   *Config
}

// NewServer creates the web application server.
func NewServer(users store.UserStore, entries store.EntryStore, an Analyzer, sessions *auth.Sessions, logger *zap.Logger, cfg *Config) (*Server, error) {
	if users == nil || entries == nil {
		return nil, fmt.Errorf("stores cannot be nil")
	}
	if an == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("sessions cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 5000,
		}
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(httpmetrics.Middleware(httpmetrics.New(cfg.Registerer, "feelwrited")))
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
		echo:     e,
		users:    users,
		entries:  entries,
		analyzer: an,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(httpmetrics.ScrapeHandler(s.config.Registerer)))

	s.echo.GET("/register", s.handleRegisterPage)
	s.echo.POST("/register", s.handleRegister)
	s.echo.GET("/login", s.handleLoginPage)
	s.echo.POST("/login", s.handleLogin)
	s.echo.POST("/logout", s.handleLogout)

	authed := s.echo.Group("", auth.RequireUser(s.sessions, s.users))
	authed.GET("/", s.handleHome)
	authed.GET("/journal", s.handleJournalForm)
	authed.POST("/journal", s.handleJournalSubmit)
	authed.GET("/entries/:id", s.handleEntryView)
	authed.GET("/api/entries", s.handleAPIEntries)
	authed.GET("/api/entries/:id", s.handleAPIEntry)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorPage renders the standalone error page with the given status.
func (s *Server) errorPage(c echo.Context, status int, message string) error {
	return c.Render(status, "error.html", page{
		Title:    "Error",
		Username: usernameOf(c),
		Message:  message,
	})
}

// usernameOf returns the logged-in username, or "" outside the
// authenticated group.
func usernameOf(c echo.Context) string {
	if u, ok := auth.CurrentUser(c); ok {
		return u.Username
	}
	return ""
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting web server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	return s.echo.Shutdown(ctx)
}
