package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"unikb/internal/config"
	"unikb/internal/corpus"
	"unikb/internal/engine"
	"unikb/internal/gemini"
	"unikb/internal/index"
)

// Setup creates and initializes the application. The mode is resolved
// here, once: with generation credentials present the engine runs
// advanced (vector retrieval plus generation), without them it runs
// simple (keyword search only). Anything that fails after that degrades
// rather than aborting; Setup returns an error only for configuration
// and filesystem problems that nothing downstream can work around.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	var (
		embedder  index.Embedder
		generator engine.Generator
	)
	if config.HasGenerationCredentials() {
		client, err := gemini.New(ctx, cfg, logger)
		if err != nil {
			// Losing the model service is exactly what the degraded
			// path exists for.
			logger.Warn("gemini unavailable, running in simple mode", "error", err)
		} else {
			embedder = client
			generator = client
		}
	} else {
		logger.Info("no generation credentials, running in simple mode")
	}

	loader := corpus.NewLoader(cfg.CorpusDir, logger)
	chunker, err := corpus.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	a.Manager = engine.NewManager(loader, chunker, embedder, cfg.IndexDir, logger)

	var composer *engine.Composer
	if generator != nil {
		composer = engine.NewComposer(generator, logger)
	}
	a.Engine = engine.New(a.Manager, composer, cfg.TopK, logger)

	if cfg.WatchCorpus {
		watcher, err := engine.NewWatcher(cfg.CorpusDir, a.Manager, logger)
		if err != nil {
			logger.Warn("corpus watcher unavailable", "error", err)
		} else {
			a.Watcher = watcher
		}
	}

	return a, nil
}

// provideOtelShutdown exports traces over OTLP HTTP when an endpoint is
// configured. Export failures disable tracing, never the application.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if cfg.OTLPEndpoint == "" {
		return func() {}
	}

	// The SDK's resource detection reads OTEL_SERVICE_NAME. Set before
	// any goroutines start; os.Setenv is not concurrent-safe.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("tracing enabled", "endpoint", cfg.OTLPEndpoint, "service", cfg.ServiceName)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}
