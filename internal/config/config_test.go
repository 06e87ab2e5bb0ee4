package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spam-classifier/internal/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yml")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "svm", cfg.Server.Model)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, pipeline.DefaultOptions(), cfg.Training)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SPAMCLF_DATA", "/srv/spam")
	path := writeConfig(t, `
server:
  model: xgb
database:
  path: "${SPAMCLF_DATA}/prompts.db"
training:
  model:
    xgb:
      n_estimators: 50
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "xgb", cfg.Server.Model)
	assert.Equal(t, "http://localhost:8000", cfg.Client.BaseURL)
	assert.Equal(t, "/srv/spam/prompts.db", cfg.Database.Path)
	assert.Equal(t, "./artifacts", cfg.Artifacts.Dir)

	// Unset training keys keep their defaults.
	assert.Equal(t, 50, cfg.Training.Model.XGB.Estimators)
	assert.Equal(t, 5, cfg.Training.Model.XGB.MaxDepth)
	assert.Equal(t, 0.2, cfg.Training.Split.TestRatio)
	assert.Equal(t, 10000, cfg.Training.Vectorizer.MaxFeatures)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "server:\n  model: forest\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "server:\n  prot: \"9000\"\n"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Log.Format = "xml"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
