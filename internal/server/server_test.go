package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unikb/internal/corpus"
	"unikb/internal/engine"
	"unikb/internal/log"
	"unikb/internal/testutil"
)

// newTestEngine builds a simple-mode engine over a small corpus. With
// ready=false the corpus is never loaded, so the engine serves fallback.
func newTestEngine(t *testing.T, ready bool) *engine.Engine {
	t.Helper()

	root := testutil.WriteCorpus(t, map[string]string{
		"hoc_phi/tuition.txt": "Học phí được thu theo tín chỉ.",
	})
	loader := corpus.NewLoader(root, log.NewNop())
	chunker, err := corpus.NewChunker(500, 50)
	require.NoError(t, err)

	m := engine.NewManager(loader, chunker, nil, t.TempDir(), log.NewNop())
	if ready {
		require.NoError(t, m.Reload(context.Background(), false))
	}
	return engine.New(m, nil, 3, log.NewNop())
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := New(newTestEngine(t, true), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status         string `json:"status"`
		RAGInitialized bool   `json:"rag_initialized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.RAGInitialized)
}

func TestHealthNotReady(t *testing.T) {
	srv := New(newTestEngine(t, false), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		RAGInitialized bool `json:"rag_initialized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.False(t, health.RAGInitialized)
}

func TestQuerySuccess(t *testing.T) {
	srv := New(newTestEngine(t, true), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/rag/query", `{"query":"học phí đóng thế nào?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var answer engine.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, engine.SourceSimple, answer.Source)
	assert.Equal(t, engine.StatusSuccess, answer.Status)
	assert.Contains(t, answer.Response, "Học phí được thu theo tín chỉ.")
}

func TestQueryMissingQuery(t *testing.T) {
	srv := New(newTestEngine(t, true), log.NewNop())

	for _, body := range []string{`{}`, `{"query":""}`, `{"query":"   "}`} {
		rec := doRequest(t, srv.Handler(), http.MethodPost, "/rag/query", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "missing_query", errResp.Error)
	}
}

func TestQueryInvalidJSON(t *testing.T) {
	srv := New(newTestEngine(t, true), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/rag/query", `{broken`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryFallbackWhenNotReady(t *testing.T) {
	srv := New(newTestEngine(t, false), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/rag/query", `{"query":"học phí bao nhiêu?"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// The body is still a complete answer the frontend can display.
	var answer engine.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, engine.SourceFallback, answer.Source)
	assert.Equal(t, engine.StatusPartialSuccess, answer.Status)
	assert.NotEmpty(t, answer.Response)
}

func TestQueryMethodNotAllowed(t *testing.T) {
	srv := New(newTestEngine(t, true), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/rag/query", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatus(t *testing.T) {
	srv := New(newTestEngine(t, true), log.NewNop())
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/rag/status", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var stats engine.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, engine.StateReady, stats.State)
	assert.Equal(t, engine.ModeSimple, stats.Mode)
	assert.Equal(t, 1, stats.Documents)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := chain(panicking, recoveryMiddleware(log.NewNop()))

	rec := doRequest(t, handler, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
