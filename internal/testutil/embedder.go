// Package testutil provides deterministic test doubles for the
// embedding and generation dependencies.
package testutil

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync/atomic"
)

// StubEmbedder produces deterministic vectors from text content, so the
// same passage always lands at the same point and similar setups are
// reproducible across runs. It counts calls so tests can assert cache
// reuse paths never embed.
type StubEmbedder struct {
	// Dim is the vector dimension; defaults to 8 when zero.
	Dim int
	// Err, when set, is returned by every call.
	Err error

	calls atomic.Int64
}

// ErrEmbedderDown is a ready-made failure for tests.
var ErrEmbedderDown = errors.New("embedder unavailable")

// Embed returns one deterministic vector per input text.
func (s *StubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}

	dim := s.Dim
	if dim == 0 {
		dim = 8
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = deterministicVector(text, dim)
	}
	return vecs, nil
}

// Calls returns how many times Embed was invoked.
func (s *StubEmbedder) Calls() int {
	return int(s.calls.Load())
}

// deterministicVector is a hashed bag-of-words: each word bumps the
// bucket its hash selects. Texts sharing words get correlated vectors,
// which gives cosine ranking something meaningful to rank.
func deterministicVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(dim)]++
	}
	// Whitespace-only input still needs a non-zero vector.
	allZero := true
	for _, v := range vec {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		vec[0] = 1
	}
	return vec
}
