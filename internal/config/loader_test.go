package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MONGO_HOST", "mongo.internal")
	t.Setenv("MONGO_PORT", "27018")
	t.Setenv("MONGO_DB", "feelwrite_test")
	t.Setenv("ANALYZER_URL", "http://sentimentd:5001")
	t.Setenv("ANALYZER_TIMEOUT", "3s")
	t.Setenv("SESSION_SECRET", "env-secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongo.internal", cfg.Mongo.Host)
	assert.Equal(t, 27018, cfg.Mongo.Port)
	assert.Equal(t, "feelwrite_test", cfg.Mongo.Database)
	assert.Equal(t, "http://sentimentd:5001", cfg.Web.AnalyzerURL)
	assert.Equal(t, 3*time.Second, cfg.Web.AnalyzerTimeout)
	assert.Equal(t, "env-secret", cfg.Web.SessionSecret.Value())
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5000, cfg.Web.Port)
	assert.Equal(t, 512, cfg.ML.MaxLength)
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
web:
  port: 8080
  analyzer_url: http://localhost:9000
ml:
  port: 8081
  model_dir: /opt/models/sentiment
mongo:
  host: filehost
logging:
  level: warn
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, 8081, cfg.ML.Port)
	assert.Equal(t, "http://localhost:9000", cfg.Web.AnalyzerURL)
	assert.Equal(t, "/opt/models/sentiment", cfg.ML.ModelDir)
	assert.Equal(t, "filehost", cfg.Mongo.Host)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	// Defaults still fill unspecified keys.
	assert.Equal(t, 27017, cfg.Mongo.Port)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mongo:\n  host: filehost\n"), 0600))

	t.Setenv("MONGO_HOST", "envhost")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "envhost", cfg.Mongo.Host)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadWithFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	big := make([]byte, maxConfigFileSize+1)
	require.NoError(t, os.WriteFile(path, big, 0600))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadInvalidEnvValueFailsValidation(t *testing.T) {
	t.Setenv("MONGO_PORT", "-4")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
