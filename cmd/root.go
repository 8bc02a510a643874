// Package cmd implements the unikb command line interface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"unikb/internal/config"
	"unikb/internal/log"
)

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "unikb",
	Short: "Knowledge engine for the university administration chatbot",
	Long: `unikb answers student questions about tuition, scholarships,
regulations and study programs from a local document corpus.

With a GEMINI_API_KEY set it retrieves by vector similarity and
generates grounded answers; without one it degrades to keyword search
over the raw documents.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; real deployments set the key in the
		// environment.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() log.Logger {
	return log.New(log.Config{Level: parseLevel(logLevel), JSON: logJSON})
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads and validates configuration for subcommands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
