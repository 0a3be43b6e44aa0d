package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/threads")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8004", cfg.Server.Port)
	assert.Equal(t, "/api/threads", cfg.Server.BasePath)
	assert.Equal(t, 20, cfg.Thread.PageSize)
	assert.Equal(t, 30, cfg.Thread.RetentionDays)
	assert.Equal(t, 1000, cfg.Thread.MaxContentLength)
	assert.Equal(t, "0 3 * * *", cfg.Thread.CleanupSchedule)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/threads")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("THREAD_PAGE_SIZE", "50")
	t.Setenv("THREAD_RETENTION_DAYS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 50, cfg.Thread.PageSize)
	assert.Equal(t, 7, cfg.Thread.RetentionDays)
}

func TestLoad_YAMLFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9100"
  env: staging
database:
  url: postgres://file/threads
thread:
  pageSize: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("PORT", "9200")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Env beats file, file beats defaults.
	assert.Equal(t, "9200", cfg.Server.Port)
	assert.Equal(t, "staging", cfg.Server.Env)
	assert.Equal(t, "postgres://file/threads", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Thread.PageSize)
	assert.Equal(t, 30, cfg.Thread.RetentionDays)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/threads")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8004", cfg.Server.Port)
}
