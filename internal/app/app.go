// Package app wires configuration, the Gemini client, the lifecycle
// manager and the query facade into one application object.
package app

import (
	"log/slog"

	"unikb/internal/config"
	"unikb/internal/engine"
)

// App holds every initialized component. Create with Setup, release
// with Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Engine  *engine.Engine
	Manager *engine.Manager

	// Watcher is nil when corpus watching is disabled.
	Watcher *engine.Watcher

	otelCleanup func()
}

// Close releases all resources in reverse setup order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		if err := a.Watcher.Close(); err != nil {
			a.Logger.Warn("closing corpus watcher", "error", err)
		}
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
