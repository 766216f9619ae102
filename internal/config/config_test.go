package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepfunnel/internal/funnel"
	"github.com/abhisek/prepfunnel/internal/problemgen"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PREPFUNNEL_DB", "PREPFUNNEL_LOG_MODE", "PREPFUNNEL_LOG_LEVEL", "PREPFUNNEL_LOG_FILE",
		"PREPFUNNEL_EXPLORE_RATIO", "PREPFUNNEL_MAX_BACKFILL", "PREPFUNNEL_MAX_QUESTIONS",
		"PREPFUNNEL_POOL_TIMEOUT", "PREPFUNNEL_GENERATE_TIMEOUT", "PREPFUNNEL_BANK_CACHE_TTL",
		"PREPFUNNEL_LLM_PROVIDER", "PREPFUNNEL_GEN_TEMPERATURE", "PREPFUNNEL_GEN_MAX_TOKENS",
		"PREPFUNNEL_GEN_MAX_BATCH",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, funnel.DefaultConfig(), cfg.Funnel)
	assert.Equal(t, 5*time.Minute, cfg.BankCacheTTL)
	assert.Empty(t, cfg.DBPath)
	assert.Equal(t, problemgen.DefaultConfig(), cfg.Generator)
}

func TestFromEnv_Generator(t *testing.T) {
	clearEnv(t)
	t.Setenv("PREPFUNNEL_GEN_TEMPERATURE", "0.2")
	t.Setenv("PREPFUNNEL_GEN_MAX_BATCH", "10")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, cfg.Generator.Temperature, 1e-9)
	assert.Equal(t, 10, cfg.Generator.MaxBatch)

	t.Setenv("PREPFUNNEL_GEN_MAX_BATCH", "500")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "MaxBatch")

	t.Setenv("PREPFUNNEL_GEN_MAX_BATCH", "")
	t.Setenv("PREPFUNNEL_GEN_TEMPERATURE", "1.7")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "Temperature")
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PREPFUNNEL_DB", "/tmp/pf.db")
	t.Setenv("PREPFUNNEL_LOG_MODE", "prod")
	t.Setenv("PREPFUNNEL_EXPLORE_RATIO", "0.35")
	t.Setenv("PREPFUNNEL_MAX_BACKFILL", "5")
	t.Setenv("PREPFUNNEL_POOL_TIMEOUT", "2s")
	t.Setenv("PREPFUNNEL_GENERATE_TIMEOUT", "1m")
	t.Setenv("PREPFUNNEL_BANK_CACHE_TTL", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pf.db", cfg.DBPath)
	assert.Equal(t, "prod", cfg.Log.Mode)
	assert.InDelta(t, 0.35, cfg.Funnel.ExploreRatio, 1e-9)
	assert.Equal(t, 5, cfg.Funnel.MaxBackfillAttempts)
	assert.Equal(t, 2*time.Second, cfg.Funnel.PoolTimeout)
	assert.Equal(t, time.Minute, cfg.Funnel.GenerateTimeout)
	assert.Equal(t, 30*time.Second, cfg.BankCacheTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"PREPFUNNEL_EXPLORE_RATIO":  "1.5",
		"PREPFUNNEL_MAX_BACKFILL":   "zero",
		"PREPFUNNEL_POOL_TIMEOUT":   "-1s",
		"PREPFUNNEL_BANK_CACHE_TTL": "soon",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := FromEnv()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PREPFUNNEL_MAX_QUESTIONS")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PREPFUNNEL_MAX_QUESTIONS=12\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PREPFUNNEL_MAX_QUESTIONS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Funnel.MaxQuestions)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
