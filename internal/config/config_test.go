package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "APP_ENV", "APP_ADDR", "REDIS_ADDR", "NUMBER_RETRY_ATTEMPTS", "APPROVAL_LOCK_TTL", "WORKER_POLL_INTERVAL")
	t.Setenv("DATABASE_URL", "postgres://localhost/stockgate")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 3, cfg.NumberRetryAttempts)
	assert.Equal(t, 10*time.Second, cfg.ApprovalLockTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.WorkerPollInterval)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"DATABASE_URL=postgres://from-file/db\nJWT_SECRET=file-secret\nREDIS_ADDR=127.0.0.1:6379\nAPP_ENV=production\n",
	), 0o600))

	t.Setenv("JWT_SECRET", "env-secret")
	unsetEnv(t, "DATABASE_URL", "REDIS_ADDR", "APP_ENV")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, "postgres://from-file/db", cfg.DatabaseURL)
	assert.True(t, cfg.RedisEnabled())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockgate")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("NUMBER_RETRY_ATTEMPTS", "0")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	unsetEnv(t, "DATABASE_URL")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
