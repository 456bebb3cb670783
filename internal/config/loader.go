package config

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// envMapping maps environment variables onto config keys. Only the
// variables listed here are read; everything else in the environment is
// ignored.
var envMapping = map[string]string{
	"WEB_PORT":             "web.port",
	"WEB_SHUTDOWN_TIMEOUT": "web.shutdown_timeout",
	"SESSION_SECRET":       "web.session_secret",
	"SESSION_TTL":          "web.session_ttl",
	"ANALYZER_URL":         "web.analyzer_url",
	"ANALYZER_TIMEOUT":     "web.analyzer_timeout",

	"ML_PORT":              "ml.port",
	"ML_SHUTDOWN_TIMEOUT":  "ml.shutdown_timeout",
	"SENTIMENT_MODEL_DIR":  "ml.model_dir",
	"SENTIMENT_MAX_LENGTH": "ml.max_length",
	"ONNX_PATH":            "ml.library_path",

	"MONGO_HOST": "mongo.host",
	"MONGO_PORT": "mongo.port",
	"MONGO_DB":   "mongo.database",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
}

// Load loads configuration from environment variables over defaults.
//
// A .env file in the working directory is applied first (best effort),
// matching how the services run under docker compose.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (MONGO_HOST, ANALYZER_URL, ...)
//  2. YAML config file (only when configPath is non-empty)
//  3. Hardcoded defaults
//
// When configPath is non-empty the file must exist and be no larger than
// 1MB; a missing explicit config file is an error rather than a silent
// fallback to defaults.
func LoadWithFile(configPath string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	// Environment variables override file values. The callback maps each
	// known variable to its config key and drops everything else.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envMapping[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("%w: config file %s exceeds %d bytes", ErrInvalidConfig, path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return content, nil
}
