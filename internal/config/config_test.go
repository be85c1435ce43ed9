package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/domain/adjustment"
)

var keys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "PAGE_SIZE",
	"OVERDRAW_POLICY", "AUDIT_COMPRESS_THRESHOLD", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
	"DB_STATEMENT_TIMEOUT", "DB_SNAPSHOT_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Development())
	assert.True(t, cfg.InMemory())
	assert.Equal(t, 1000, cfg.PageSize)
	assert.Equal(t, adjustment.OverdrawAllowUnitMismatch, cfg.OverdrawPolicy)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.StatementTimeout)
	assert.Equal(t, 2*time.Minute, cfg.SnapshotTimeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("DATABASE_URL", "postgres://localhost/estoque")
	t.Setenv("PAGE_SIZE", "250")
	t.Setenv("OVERDRAW_POLICY", "reject")
	t.Setenv("HTTP_WRITE_TIMEOUT", "2m")
	t.Setenv("DB_SNAPSHOT_TIMEOUT", "5m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.Development())
	assert.False(t, cfg.InMemory())
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, adjustment.OverdrawReject, cfg.OverdrawPolicy)
	assert.Equal(t, 2*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotTimeout)
}

func TestFromEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("OVERDRAW_POLICY", "whenever")
	_, err := FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PAGE_SIZE", "-5")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("APP_PORT")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9191\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("APP_PORT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
