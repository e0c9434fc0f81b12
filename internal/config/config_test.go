package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  name: stylerec
  user: app
  password: secret
nats:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, 2048, cfg.Vision.EmbeddingDim)
	assert.Equal(t, 30*time.Second, cfg.Vision.ModelTimeout)
	assert.Equal(t, 10, cfg.Vision.TopN)
	assert.Equal(t, 4, cfg.Vision.WorkerCount)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  api_key: sekret
vision:
  embedding_dim: 512
  top_n: 3
  model_timeout: 5s
  detector_url: http://models:9100/detect
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sekret", cfg.Server.APIKey)
	assert.Equal(t, 512, cfg.Vision.EmbeddingDim)
	assert.Equal(t, 3, cfg.Vision.TopN)
	assert.Equal(t, 5*time.Second, cfg.Vision.ModelTimeout)
	assert.Equal(t, "http://models:9100/detect", cfg.Vision.DetectorURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  host: localhost
`)

	t.Setenv("SR_SERVER_PORT", "9191")
	t.Setenv("SR_DB_HOST", "db.internal")
	t.Setenv("SR_NATS_URL", "nats://queue:4222")
	t.Setenv("SR_WORKER_COUNT", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
	assert.Equal(t, 8, cfg.Vision.WorkerCount)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Name: "stylerec", User: "app", Password: "pw"}
	assert.Equal(t, "postgres://app:pw@db:5433/stylerec?sslmode=disable", d.DSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
