package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"unikb/internal/app"
	"unikb/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the knowledge engine and serves it over HTTP.

The index is loaded or rebuilt at startup, then the corpus directory is
watched for changes. A failed startup build leaves the server running
degraded: keyword search over the loaded documents, or canned fallback
answers when not even the corpus could be read.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	// Serve degraded answers rather than refusing to start when the
	// initial load fails.
	if err := a.Manager.Reload(ctx, false); err != nil {
		logger.Error("initial corpus load failed, serving degraded answers", "error", err)
	}

	if a.Watcher != nil {
		go a.Watcher.Run(ctx)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	srv := server.New(a.Engine, logger)
	return srv.Run(ctx, addr)
}
