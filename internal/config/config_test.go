package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abfi/platform/internal/modules/rating"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GO_PORT", "LOG_LEVEL", "DEV_MODE", "ABFI_STANDARDS_PATH",
		"RESCORE_SCHEDULE", "RESCORE_WORKERS", "RESCORE_TIMEOUT", "SHUTDOWN_TIMEOUT",
		"COVENANT_MIN_SUPPLY_COVERAGE", "COVENANT_MAX_COST_INCREASE",
		"ARCHIVE_BUCKET", "ARCHIVE_PREFIX", "ARCHIVE_ENDPOINT", "ARCHIVE_REGION",
		"ARCHIVE_ACCESS_KEY_ID", "ARCHIVE_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("ABFI_DATA_DIR", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "0 0 3 * * *", cfg.RescoreSchedule)
	assert.Equal(t, 4, cfg.RescoreWorkers)
	assert.Equal(t, 30*time.Minute, cfg.RescoreTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0.90, cfg.Covenant.MinSupplyCoverage)
	assert.Equal(t, 0.20, cfg.Covenant.MaxCostIncrease)
	assert.False(t, cfg.Archive.Enabled())
	assert.Equal(t, filepath.Join(cfg.DataDir, "abfi.db"), cfg.DatabasePath())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("RESCORE_WORKERS", "8")
	t.Setenv("RESCORE_SCHEDULE", "@hourly")
	t.Setenv("COVENANT_MIN_SUPPLY_COVERAGE", "0.8")
	t.Setenv("ARCHIVE_BUCKET", "abfi-audit")
	t.Setenv("ARCHIVE_ACCESS_KEY_ID", "key")
	t.Setenv("ARCHIVE_SECRET_ACCESS_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 8, cfg.RescoreWorkers)
	assert.Equal(t, "@hourly", cfg.RescoreSchedule)
	assert.Equal(t, 0.8, cfg.Covenant.MinSupplyCoverage)
	assert.True(t, cfg.Archive.Enabled())
	assert.Equal(t, "abfi", cfg.Archive.Prefix)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad schedule", "RESCORE_SCHEDULE", "every tuesday"},
		{"zero workers", "RESCORE_WORKERS", "0"},
		{"negative rescore timeout", "RESCORE_TIMEOUT", "-1m"},
		{"coverage above one", "COVENANT_MIN_SUPPLY_COVERAGE", "1.5"},
		{"port out of range", "GO_PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RescoreScheduleOff(t *testing.T) {
	for _, value := range []string{"off", "Disabled", "none"} {
		t.Run(value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("RESCORE_SCHEDULE", value)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Empty(t, cfg.RescoreSchedule)
		})
	}
}

func TestLoad_ArchiveCredentialsTogether(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARCHIVE_BUCKET", "abfi-audit")
	t.Setenv("ARCHIVE_ACCESS_KEY_ID", "key")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnparseableNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_PORT", "not-a-port")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestConfig_LoadStandards(t *testing.T) {
	cfg := &Config{}
	loaded, err := cfg.LoadStandards()
	require.NoError(t, err)
	assert.Equal(t, rating.BuiltinStandardsDigest, loaded.Digest)

	path := filepath.Join(t.TempDir(), "standards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("certifications:\n  PEFC: 20\n"), 0o600))
	cfg.StandardsPath = path

	loaded, err = cfg.LoadStandards()
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.Standards.Certifications[rating.CertificationPEFC])
	assert.NotEqual(t, rating.BuiltinStandardsDigest, loaded.Digest)

	cfg.StandardsPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.LoadStandards()
	assert.Error(t, err)
}
