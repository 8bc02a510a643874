package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"unikb/internal/app"
	"unikb/internal/engine"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the knowledge engine a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	if err := a.Manager.Reload(ctx, false); err != nil {
		logger.Warn("corpus load failed, answering from fallback", "error", err)
	}

	question := strings.Join(args, " ")
	answer := a.Engine.Answer(ctx, question)

	fmt.Println(answer.Response)
	if answer.Source != engine.SourceAdvanced {
		logger.Info("answered from degraded path", "source", answer.Source, "status", answer.Status)
	}
	return nil
}
