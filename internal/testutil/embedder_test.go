package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubEmbedderDeterministic(t *testing.T) {
	e := &StubEmbedder{Dim: 16}

	a, err := e.Embed(context.Background(), []string{"học phí tín chỉ"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"học phí tín chỉ"})
	require.NoError(t, err)

	assert.Equal(t, a, b, "same text must embed identically")
	assert.Len(t, a[0], 16)
	assert.Equal(t, 2, e.Calls())
}

func TestStubEmbedderSharedWordsCorrelate(t *testing.T) {
	e := &StubEmbedder{Dim: 32}

	vecs, err := e.Embed(context.Background(), []string{
		"học phí tín chỉ",
		"học phí học kỳ",
		"thư viện mở cửa",
	})
	require.NoError(t, err)

	related := dot(vecs[0], vecs[1])
	unrelated := dot(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
