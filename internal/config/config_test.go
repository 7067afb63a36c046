package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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
  name: attend
  user: attend
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, 128, cfg.Recognition.EmbeddingDim)
	require.Equal(t, 0.5, cfg.Recognition.Threshold)
	require.Equal(t, "brute", cfg.Recognition.Matcher)
	require.Equal(t, "daily", cfg.Recognition.WindowMode)
	require.Equal(t, 5*time.Second, cfg.Recognition.RequestTimeout.Std())
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
recognition:
  embedding_dim: 512
  threshold: 0.35
  matcher: hnsw
  window_mode: interval
  window_interval: 45m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 512, cfg.Recognition.EmbeddingDim)
	require.Equal(t, 0.35, cfg.Recognition.Threshold)
	require.Equal(t, "hnsw", cfg.Recognition.Matcher)
	require.Equal(t, "interval", cfg.Recognition.WindowMode)
	require.Equal(t, 45*time.Minute, cfg.Recognition.WindowInterval.Std())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)

	t.Setenv("ATTEND_SERVER_PORT", "7070")
	t.Setenv("ATTEND_DB_HOST", "db.internal")
	t.Setenv("ATTEND_RECOGNITION_THRESHOLD", "0.42")
	t.Setenv("ATTEND_RECOGNITION_MATCHER", "pgvector")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 0.42, cfg.Recognition.Threshold)
	require.Equal(t, "pgvector", cfg.Recognition.Matcher)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Name: "attend", User: "u", Password: "p"}
	require.Equal(t, "postgres://u:p@db:5433/attend?sslmode=disable", d.DSN())
}
