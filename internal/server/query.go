package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"unikb/internal/engine"
)

// queryHandler serves the question-answering and status endpoints.
type queryHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func newQueryHandler(eng *engine.Engine, logger *slog.Logger) *queryHandler {
	return &queryHandler{engine: eng, logger: logger}
}

func (h *queryHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rag/query", h.query)
	mux.HandleFunc("GET /rag/status", h.status)
}

// queryRequest is the request body for POST /rag/query.
type queryRequest struct {
	Query string `json:"query"`
}

// query answers a question. The engine never errors; even a degraded
// outcome carries a usable Vietnamese response. A fallback answer is
// sent as 503 so callers can tell the engine is not fully up, while the
// body is still a complete answer they can show the user.
func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query must not be empty")
		return
	}

	answer := h.engine.Answer(r.Context(), req.Query)

	status := http.StatusOK
	if answer.Source == engine.SourceFallback {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, answer)
}

// status reports lifecycle state, mode and corpus counts.
func (h *queryHandler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Manager().Stats())
}
