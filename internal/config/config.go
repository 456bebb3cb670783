// Package config provides configuration loading for feelwrite.
//
// Configuration is loaded from an optional YAML file, overridden by
// environment variables, with hardcoded defaults underneath. Both daemons
// (feelwrited and sentimentd) share one Config; each reads only the
// sections it needs.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates a configuration value that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete feelwrite configuration.
type Config struct {
	Web     WebConfig     `koanf:"web"`
	ML      MLConfig      `koanf:"ml"`
	Mongo   MongoConfig   `koanf:"mongo"`
	Logging LoggingConfig `koanf:"logging"`
}

// WebConfig holds the web application configuration.
type WebConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// SessionSecret signs session cookies. Required outside development.
	SessionSecret Secret        `koanf:"session_secret"`
	SessionTTL    time.Duration `koanf:"session_ttl"`

	// AnalyzerURL is the base URL of the sentimentd service.
	AnalyzerURL     string        `koanf:"analyzer_url"`
	AnalyzerTimeout time.Duration `koanf:"analyzer_timeout"`
}

// MLConfig holds the inference service configuration.
type MLConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// ModelDir contains model.onnx and tokenizer.json for the classifier.
	ModelDir string `koanf:"model_dir"`

	// MaxLength is the maximum input sequence length in tokens.
	MaxLength int `koanf:"max_length"`

	// LibraryPath overrides ONNX runtime shared library discovery.
	LibraryPath string `koanf:"library_path"`
}

// MongoConfig holds document store connection settings.
type MongoConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
}

// URI returns the mongodb connection string.
func (c MongoConfig) URI() string {
	return fmt.Sprintf("mongodb://%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() *Config {
	return &Config{
		Web: WebConfig{
			Port:            5000,
			ShutdownTimeout: 10 * time.Second,
			SessionTTL:      24 * time.Hour,
			AnalyzerURL:     "http://localhost:5001",
			AnalyzerTimeout: 10 * time.Second,
		},
		ML: MLConfig{
			Port:            5001,
			ShutdownTimeout: 10 * time.Second,
			ModelDir:        "models/twitter-roberta-base-sentiment",
			MaxLength:       512,
		},
		Mongo: MongoConfig{
			Host:     "localhost",
			Port:     27017,
			Database: "feelwrite",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if err := validPort(c.Web.Port); err != nil {
		return fmt.Errorf("%w: web.port: %v", ErrInvalidConfig, err)
	}
	if err := validPort(c.ML.Port); err != nil {
		return fmt.Errorf("%w: ml.port: %v", ErrInvalidConfig, err)
	}
	if err := validPort(c.Mongo.Port); err != nil {
		return fmt.Errorf("%w: mongo.port: %v", ErrInvalidConfig, err)
	}
	if c.Mongo.Host == "" {
		return fmt.Errorf("%w: mongo.host is required", ErrInvalidConfig)
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("%w: mongo.database is required", ErrInvalidConfig)
	}
	if c.Web.AnalyzerURL == "" {
		return fmt.Errorf("%w: web.analyzer_url is required", ErrInvalidConfig)
	}
	if c.Web.AnalyzerTimeout <= 0 {
		return fmt.Errorf("%w: web.analyzer_timeout must be positive", ErrInvalidConfig)
	}
	if c.Web.SessionTTL <= 0 {
		return fmt.Errorf("%w: web.session_ttl must be positive", ErrInvalidConfig)
	}
	if c.ML.MaxLength <= 0 {
		return fmt.Errorf("%w: ml.max_length must be positive", ErrInvalidConfig)
	}
	if c.ML.ModelDir == "" {
		return fmt.Errorf("%w: ml.model_dir is required", ErrInvalidConfig)
	}
	return nil
}

func validPort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range", p)
	}
	return nil
}
