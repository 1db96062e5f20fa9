package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budgettracker/internal/cli"
	"budgettracker/internal/config"
	applog "budgettracker/internal/log"
)

var (
	flagBackend string
	flagDataDir string
	flagDB      string
	flagEnvFile string

	cfg    *config.Config
	logger *applog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Personal budget tracker",
	Long:          "Record income and expenses, set monthly budgets per category, and review summaries.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := cli.LoadEnvFile(flagEnvFile); err != nil {
			return err
		}
		c, err := cli.LoadAndValidateConfig(applyFlags(cmd))
		if err != nil {
			return err
		}
		cfg = c

		// Only the server logs to stdout; everywhere else stdout carries
		// command output.
		out := os.Stderr
		if cmd.Name() == "serve" {
			out = os.Stdout
		}
		logger = cli.SetupLogger(cfg.LogLevel, out)
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: blob or sqlite (overrides DATA_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Blob backend directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Environment file loaded before reading configuration")
}

// applyFlags overrides configuration with flags the user set explicitly.
func applyFlags(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("backend") {
			c.DataBackend = flagBackend
		}
		if flags.Changed("data-dir") {
			c.DataDir = flagDataDir
		}
		if flags.Changed("db") {
			c.SQLiteDBPath = flagDB
		}
	}
}

// openApp loads the record store. Mutating commands pass withFeed so
// their changes reach the change feed like the server's do.
func openApp(ctx context.Context, withFeed bool) (*cli.App, error) {
	return cli.Bootstrap(ctx, cfg, logger, withFeed)
}
