// Package index implements the in-memory vector index: passage
// embeddings with brute-force cosine similarity search, persisted to a
// local directory so an unchanged corpus never pays the embedding cost
// twice.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"unikb/internal/corpus"
)

// Embedder turns text into fixed-length vectors. Defined here, by the
// consumer: the engine wires in the Gemini implementation, tests wire in
// a deterministic stub.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrCorruptIndex indicates a persisted index that cannot be trusted.
// Callers treat it like a cache miss and rebuild.
var ErrCorruptIndex = errors.New("corrupt persisted index")

// embedBatchSize bounds how many passages are sent to the embedding
// service per call.
const embedBatchSize = 32

// Result is one search hit: a passage and its cosine similarity to the
// query, in [-1, 1] (in practice [0, 1] for text embeddings).
type Result struct {
	Passage corpus.Passage
	Score   float32
}

// Index holds normalized passage embeddings and supports top-K nearest
// neighbor search. Immutable once built; safe for concurrent reads.
type Index struct {
	dim      int
	vectors  [][]float32
	passages []corpus.Passage
}

// Build embeds every passage (batched) and constructs the index.
//
// An embedding failure is fatal to the build: a partial index would
// silently lose corpus coverage, which is worse than having no index.
func Build(ctx context.Context, passages []corpus.Passage, embedder Embedder, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ix := &Index{
		vectors:  make([][]float32, 0, len(passages)),
		passages: make([]corpus.Passage, 0, len(passages)),
	}

	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding passages %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d passages", len(vectors), len(batch))
		}

		for i, vec := range vectors {
			if len(vec) == 0 {
				return nil, fmt.Errorf("empty embedding for passage %s", batch[i].ID)
			}
			if ix.dim == 0 {
				ix.dim = len(vec)
			}
			if len(vec) != ix.dim {
				return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), ix.dim)
			}
			ix.vectors = append(ix.vectors, normalize(vec))
			ix.passages = append(ix.passages, batch[i])
		}
	}

	logger.Debug("vector index built", "passages", len(ix.passages), "dimension", ix.dim)
	return ix, nil
}

// Search returns up to k passages ranked by descending similarity to the
// query vector. Fewer than k are returned when the index is small; an
// empty index yields an empty slice. Never errors on a built index.
func (ix *Index) Search(queryVec []float32, k int) []Result {
	if k <= 0 || len(ix.vectors) == 0 || len(queryVec) != ix.dim {
		return nil
	}

	query := normalize(queryVec)

	// Vectors are normalized at insert, so cosine similarity is a dot
	// product.
	scored := make([]Result, len(ix.vectors))
	for i, vec := range ix.vectors {
		scored[i] = Result{Passage: ix.passages[i], Score: dot(vec, query)}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// Len returns the number of indexed passages.
func (ix *Index) Len() int {
	return len(ix.passages)
}

// Dimension returns the embedding dimension, 0 for an empty index.
func (ix *Index) Dimension() int {
	return ix.dim
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
