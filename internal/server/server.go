// Package server exposes the knowledge engine over HTTP.
//
// Endpoints:
//
//	GET  /health      → liveness probe
//	POST /rag/query   → answer a question
//	GET  /rag/status  → engine lifecycle and corpus stats
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"unikb/internal/engine"
)

const (
	// DefaultAddr binds to loopback only; the chat frontend is the sole
	// intended client.
	DefaultAddr = "127.0.0.1:5001"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against slow-header connections.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because generation can take a while.
	WriteTimeout = 60 * time.Second

	// IdleTimeout bounds keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP front of the knowledge engine.
type Server struct {
	mux    *http.ServeMux
	engine *engine.Engine
	logger *slog.Logger
}

// New creates a server with all routes registered.
func New(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{mux: mux, engine: eng, logger: logger}

	qh := newQueryHandler(eng, logger)
	qh.registerRoutes(mux)
	mux.HandleFunc("GET /health", s.health)

	return s
}

// healthResponse mirrors the contract the chat frontend polls: the
// process is alive, and whether full retrieval is up.
type healthResponse struct {
	Status         string `json:"status"`
	RAGInitialized bool   `json:"rag_initialized"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		RAGInitialized: s.engine.Manager().Ready(),
	})
}

// Handler returns the routing handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
