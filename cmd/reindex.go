package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"unikb/internal/app"
	"unikb/internal/engine"
)

var reindexForce bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the corpus",
	Long: `Rebuilds the persisted vector index. Without --force the corpus
fingerprint is checked first and an unchanged corpus reuses the cached
index. Requires GEMINI_API_KEY; there is no index in simple mode.`,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexForce, "force", false, "rebuild even when the corpus is unchanged")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if a.Manager.Mode() != engine.ModeAdvanced {
		return fmt.Errorf("reindex requires GEMINI_API_KEY; simple mode has no index")
	}

	if err := a.Manager.Reload(ctx, reindexForce); err != nil {
		return fmt.Errorf("reindexing: %w", err)
	}

	stats := a.Manager.Stats()
	fmt.Printf("index ready: %d passages in %s\n", stats.Passages, stats.IndexDir)
	return nil
}
