// Package config assembles application configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/prepfunnel/internal/bank"
	"github.com/abhisek/prepfunnel/internal/funnel"
	"github.com/abhisek/prepfunnel/internal/llm"
	"github.com/abhisek/prepfunnel/internal/logger"
	"github.com/abhisek/prepfunnel/internal/problemgen"
)

// Config is the resolved application configuration.
type Config struct {
	// DBPath is empty when PREPFUNNEL_DB is unset; the store then picks
	// its XDG default.
	DBPath       string
	Log          logger.Options
	Funnel       funnel.Config
	BankCacheTTL time.Duration
	LLM          llm.Config
	Generator    problemgen.Config
}

// Load reads the given .env files (".env" when none are named) without
// overriding variables already set, then builds a Config. A missing .env
// file is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from PREPFUNNEL_ variables.
func FromEnv() (Config, error) {
	cfg := Config{
		DBPath: os.Getenv("PREPFUNNEL_DB"),
		Log: logger.Options{
			Mode:  os.Getenv("PREPFUNNEL_LOG_MODE"),
			Level: os.Getenv("PREPFUNNEL_LOG_LEVEL"),
			File:  os.Getenv("PREPFUNNEL_LOG_FILE"),
		},
		Funnel:       funnel.DefaultConfig(),
		BankCacheTTL: bank.DefaultTTL,
		LLM:          llm.ConfigFromEnv(),
		Generator:    problemgen.DefaultConfig(),
	}

	var err error
	if cfg.Funnel.ExploreRatio, err = envFloat("PREPFUNNEL_EXPLORE_RATIO", cfg.Funnel.ExploreRatio); err != nil {
		return Config{}, err
	}
	if cfg.Funnel.ExploreRatio < 0 || cfg.Funnel.ExploreRatio > 1 {
		return Config{}, fmt.Errorf("PREPFUNNEL_EXPLORE_RATIO must be within [0, 1], got %v", cfg.Funnel.ExploreRatio)
	}
	if cfg.Funnel.MaxBackfillAttempts, err = envInt("PREPFUNNEL_MAX_BACKFILL", cfg.Funnel.MaxBackfillAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Funnel.MaxQuestions, err = envInt("PREPFUNNEL_MAX_QUESTIONS", cfg.Funnel.MaxQuestions); err != nil {
		return Config{}, err
	}
	if cfg.Funnel.PoolTimeout, err = envDuration("PREPFUNNEL_POOL_TIMEOUT", cfg.Funnel.PoolTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Funnel.GenerateTimeout, err = envDuration("PREPFUNNEL_GENERATE_TIMEOUT", cfg.Funnel.GenerateTimeout); err != nil {
		return Config{}, err
	}
	if cfg.BankCacheTTL, err = envDuration("PREPFUNNEL_BANK_CACHE_TTL", cfg.BankCacheTTL); err != nil {
		return Config{}, err
	}

	gen := &cfg.Generator
	if gen.Temperature, err = envFloat("PREPFUNNEL_GEN_TEMPERATURE", gen.Temperature); err != nil {
		return Config{}, err
	}
	if gen.MaxTokens, err = envInt("PREPFUNNEL_GEN_MAX_TOKENS", gen.MaxTokens); err != nil {
		return Config{}, err
	}
	if gen.MaxBatch, err = envInt("PREPFUNNEL_GEN_MAX_BATCH", gen.MaxBatch); err != nil {
		return Config{}, err
	}
	if err := gen.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
