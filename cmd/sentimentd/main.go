// Sentimentd is the FeelWrite sentiment inference service.
//
// It loads the pretrained sentiment classifier once at startup and
// serves POST /analyze, scoring journal text and writing the result
// onto the entry document.
//
// Configuration is loaded from environment variables and an optional
// config file. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	sentimentd
//
//	# Configure via environment
//	ML_PORT=6001 SENTIMENT_MODEL_DIR=/srv/models/roberta sentimentd
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

	"github.com/feelwritelabs/feelwrite/internal/config"
	"github.com/feelwritelabs/feelwrite/internal/logging"
	"github.com/feelwritelabs/feelwrite/internal/mlserver"
	"github.com/feelwritelabs/feelwrite/internal/sentiment"
	"github.com/feelwritelabs/feelwrite/internal/store"
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
			fmt.Fprintf(os.Stderr, "  sentimentd           Start the inference service\n")
			fmt.Fprintf(os.Stderr, "  sentimentd version   Show version information\n")
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
	fmt.Printf("sentimentd by FeelWrite Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the inference service and blocks until ctx is cancelled.
//
// A classifier that fails to load is fatal; the process must not serve
// traffic without a loaded model.
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

	logger.Info("Starting sentimentd",
		zap.Int("port", cfg.ML.Port),
		zap.String("model", sentiment.ModelName),
		zap.String("model_dir", cfg.ML.ModelDir),
		zap.Duration("shutdown_timeout", cfg.ML.ShutdownTimeout))

	libraryPath := cfg.ML.LibraryPath
	if libraryPath == "" {
		libraryPath = sentiment.RuntimeLibraryPath()
	}

	classifier, err := sentiment.NewONNXClassifier(sentiment.Config{
		ModelDir:    cfg.ML.ModelDir,
		LibraryPath: libraryPath,
		MaxLength:   cfg.ML.MaxLength,
	}, sentiment.NewMetrics(prometheus.DefaultRegisterer), logger)
	if err != nil {
		return fmt.Errorf("failed to load classifier: %w", err)
	}
	defer func() {
		_ = classifier.Close()
	}()

	mongo, err := store.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer func() {
		_ = mongo.Close(context.Background())
	}()

	srv, err := mlserver.NewServer(classifier, mongo, logger, &mlserver.Config{
		Host:       "0.0.0.0",
		Port:       cfg.ML.Port,
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ML.ShutdownTimeout)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
