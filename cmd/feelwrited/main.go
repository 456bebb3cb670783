// Feelwrited is the FeelWrite journaling web application.
//
// It serves signup, login and the journal pages, stores entries in
// MongoDB and calls the sentimentd service to score each submission.
//
// Configuration is loaded from environment variables and an optional
// config file. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	feelwrited
//
//	# Configure via environment
//	WEB_PORT=8080 ANALYZER_URL=http://sentimentd:5001 feelwrited
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/analyzer"
	"github.com/feelwritelabs/feelwrite/internal/auth"
	"github.com/feelwritelabs/feelwrite/internal/config"
	"github.com/feelwritelabs/feelwrite/internal/logging"
	"github.com/feelwritelabs/feelwrite/internal/store"
	"github.com/feelwritelabs/feelwrite/internal/webserver"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configFile = flag.String("config", "", "path to a yaml config file")

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  feelwrited           Start the web application\n")
			fmt.Fprintf(os.Stderr, "  feelwrited version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("feelwrited by FeelWrite Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the web application and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.LoadWithFile(*configFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting feelwrited",
		zap.Int("port", cfg.Web.Port),
		zap.String("analyzer_url", cfg.Web.AnalyzerURL),
		zap.Duration("shutdown_timeout", cfg.Web.ShutdownTimeout))

	mongo, err := store.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer func() {
		_ = mongo.Close(context.Background())
	}()

	client, err := analyzer.New(analyzer.Config{
		BaseURL: cfg.Web.AnalyzerURL,
		Timeout: cfg.Web.AnalyzerTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create analyzer client: %w", err)
	}

	sessions, err := auth.NewSessions(cfg.Web.SessionSecret.Value(), cfg.Web.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to create session signer: %w", err)
	}

	srv, err := webserver.NewServer(mongo, mongo, client, sessions, logger, &webserver.Config{
		Host:       "0.0.0.0",
		Port:       cfg.Web.Port,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
