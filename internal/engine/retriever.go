package engine

import (
	"context"
	"fmt"

	"unikb/internal/index"
)

// Retrieve embeds the query with the same embedder that built the index
// and returns up to k passages by cosine similarity. An empty index
// yields an empty result, not an error. Only valid in advanced mode.
func (m *Manager) Retrieve(ctx context.Context, query string, k int) ([]index.Result, error) {
	if m.mode != ModeAdvanced {
		return nil, fmt.Errorf("retrieval requires advanced mode")
	}

	m.mu.RLock()
	idx := m.idx
	state := m.state
	m.mu.RUnlock()

	if state != StateReady || idx == nil {
		return nil, ErrNotReady
	}
	if idx.Len() == 0 {
		return nil, nil
	}

	vecs, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}

	return idx.Search(vecs[0], k), nil
}
