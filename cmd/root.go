package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/config"
	"github.com/abhisek/prepfunnel/internal/llm"
	"github.com/abhisek/prepfunnel/internal/logger"
	"github.com/abhisek/prepfunnel/internal/store"
)

var (
	appCfg config.Config
	log    = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "prepfunnel",
	Short: "Adaptive exam-prep question batches",
	Long: "prepfunnel builds question batches that target a learner's weakest and least-tested\n" +
		"concepts, drawing from curated, cached and generated sources in that order.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		l, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		appCfg, log = cfg, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PREPFUNNEL_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default .env)")
	rootCmd.PersistentFlags().String("log-level", "", "Console log level: debug, info, warn, error")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(respondCmd)
	rootCmd.AddCommand(tutorCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath picks --db, then PREPFUNNEL_DB, then the XDG default.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, nil
	}
	if appCfg.DBPath != "" {
		return appCfg.DBPath, nil
	}
	return store.DefaultDBPath()
}

// openStore opens the database selected by resolveDBPath.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// learnerFlag reads the required --learner flag.
func learnerFlag(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("learner")
	if id == "" {
		return "", fmt.Errorf("--learner is required")
	}
	return id, nil
}

// newProvider builds the configured LLM provider with request logging
// into the store's event log.
func newProvider(ctx context.Context, events store.EventRepo) (llm.Provider, error) {
	if err := appCfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return llm.NewProvider(ctx, appCfg.LLM, events, log)
}
