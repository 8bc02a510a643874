package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unikb/internal/corpus"
	"unikb/internal/log"
	"unikb/internal/testutil"
)

func newTestManager(t *testing.T, corpusRoot, indexDir string, embedder *testutil.StubEmbedder) *Manager {
	t.Helper()
	loader := corpus.NewLoader(corpusRoot, log.NewNop())
	chunker, err := corpus.NewChunker(500, 50)
	require.NoError(t, err)
	if embedder == nil {
		return NewManager(loader, chunker, nil, indexDir, log.NewNop())
	}
	return NewManager(loader, chunker, embedder, indexDir, log.NewNop())
}

func TestManagerReloadBuildsAndPersists(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{
		"hoc_phi/tuition.txt": "Học phí được thu theo tín chỉ.",
		"hoc_bong/grants.txt": "Học bổng khuyến khích học tập.",
	})
	indexDir := t.TempDir()
	embedder := &testutil.StubEmbedder{Dim: 16}

	m := newTestManager(t, root, indexDir, embedder)
	assert.Equal(t, StateUninitialized, m.State())
	assert.Equal(t, ModeAdvanced, m.Mode())

	require.NoError(t, m.Reload(context.Background(), false))
	assert.True(t, m.Ready())

	stats := m.Stats()
	assert.Equal(t, StateReady, stats.State)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Passages)

	// Both artifacts are persisted.
	_, err := os.Stat(filepath.Join(indexDir, "index.gob"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(indexDir, fingerprintFileName))
	assert.NoError(t, err)
}

func TestManagerReusesCacheWithoutEmbedding(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{
		"a.txt": "Nội dung tài liệu thứ nhất.",
	})
	indexDir := t.TempDir()

	first := newTestManager(t, root, indexDir, &testutil.StubEmbedder{Dim: 16})
	require.NoError(t, first.Reload(context.Background(), false))

	// A fresh process over the unchanged corpus must reuse the cache.
	embedder := &testutil.StubEmbedder{Dim: 16}
	second := newTestManager(t, root, indexDir, embedder)
	require.NoError(t, second.Reload(context.Background(), false))

	assert.True(t, second.Ready())
	assert.Equal(t, 0, embedder.Calls(), "cache reuse must not embed anything")

	stats := second.Stats()
	assert.Equal(t, 1, stats.Passages)
	assert.Equal(t, 1, stats.Documents, "warm start still loads the raw documents")
}

func TestManagerRebuildsOnDrift(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{
		"a.txt": "Nội dung ban đầu.",
	})
	indexDir := t.TempDir()

	first := newTestManager(t, root, indexDir, &testutil.StubEmbedder{Dim: 16})
	require.NoError(t, first.Reload(context.Background(), false))

	// One changed byte anywhere invalidates the whole cache.
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("Nội dung đã sửa."), 0o600))

	embedder := &testutil.StubEmbedder{Dim: 16}
	second := newTestManager(t, root, indexDir, embedder)
	require.NoError(t, second.Reload(context.Background(), false))

	assert.True(t, second.Ready())
	assert.Greater(t, embedder.Calls(), 0, "drift must trigger a rebuild")

	// The rebuilt index serves the new content; the stale passage is gone.
	results, err := second.Retrieve(context.Background(), "nội dung", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Nội dung đã sửa.", results[0].Passage.Text)
	for _, r := range results {
		assert.NotContains(t, r.Passage.Text, "ban đầu")
	}
}

func TestManagerForceRebuild(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{"a.txt": "Không đổi."})
	indexDir := t.TempDir()

	embedder := &testutil.StubEmbedder{Dim: 16}
	m := newTestManager(t, root, indexDir, embedder)
	require.NoError(t, m.Reload(context.Background(), false))
	callsAfterBuild := embedder.Calls()

	require.NoError(t, m.Reload(context.Background(), true))
	assert.Greater(t, embedder.Calls(), callsAfterBuild, "force must skip the fingerprint gate")
}

func TestManagerRebuildsOnCorruptIndex(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{"a.txt": "Tài liệu."})
	indexDir := t.TempDir()

	first := newTestManager(t, root, indexDir, &testutil.StubEmbedder{Dim: 16})
	require.NoError(t, first.Reload(context.Background(), false))

	// Clobber the persisted index while the fingerprint still matches.
	require.NoError(t, os.WriteFile(filepath.Join(indexDir, "index.gob"), []byte("garbage"), 0o600))

	embedder := &testutil.StubEmbedder{Dim: 16}
	second := newTestManager(t, root, indexDir, embedder)
	require.NoError(t, second.Reload(context.Background(), false))

	assert.True(t, second.Ready())
	assert.Greater(t, embedder.Calls(), 0, "corrupt cache is a cache miss")
}

func TestManagerEmbedderFailureLeavesNotReady(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{"a.txt": "Tài liệu."})
	m := newTestManager(t, root, t.TempDir(), &testutil.StubEmbedder{Err: testutil.ErrEmbedderDown})

	err := m.Reload(context.Background(), false)
	require.Error(t, err)
	assert.False(t, m.Ready())

	// The loaded documents survive the failed build for keyword search.
	assert.Len(t, m.Documents(), 1)
}

func TestManagerMissingCorpusRoot(t *testing.T) {
	m := newTestManager(t, filepath.Join(t.TempDir(), "absent"), t.TempDir(), &testutil.StubEmbedder{Dim: 8})
	assert.Error(t, m.Reload(context.Background(), false))
	assert.False(t, m.Ready())
}

func TestManagerEmptyCorpusIsReady(t *testing.T) {
	embedder := &testutil.StubEmbedder{Dim: 8}
	m := newTestManager(t, t.TempDir(), t.TempDir(), embedder)

	require.NoError(t, m.Reload(context.Background(), false))
	assert.True(t, m.Ready())
	assert.Equal(t, 0, m.Stats().Passages)

	results, err := m.Retrieve(context.Background(), "học phí", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestManagerSimpleMode(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{"a.txt": "Tài liệu."})
	m := newTestManager(t, root, t.TempDir(), nil)

	assert.Equal(t, ModeSimple, m.Mode())
	require.NoError(t, m.Reload(context.Background(), false))
	assert.True(t, m.Ready())

	stats := m.Stats()
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 0, stats.Passages)
	assert.Empty(t, stats.IndexDir)

	_, err := m.Retrieve(context.Background(), "học phí", 3)
	assert.Error(t, err)
}

func TestManagerRetrieve(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{
		"hoc_phi/tuition.txt": "học phí tín chỉ học kỳ",
		"thu_vien/library.txt": "thư viện mở cửa hàng ngày",
	})
	embedder := &testutil.StubEmbedder{Dim: 64}
	m := newTestManager(t, root, t.TempDir(), embedder)
	require.NoError(t, m.Reload(context.Background(), false))

	results, err := m.Retrieve(context.Background(), "học phí tín chỉ", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hoc_phi/tuition.txt", results[0].Passage.Source.SourcePath)
}

func TestManagerRetrieveBeforeReload(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]string{"a.txt": "x y z"})
	m := newTestManager(t, root, t.TempDir(), &testutil.StubEmbedder{Dim: 8})

	_, err := m.Retrieve(context.Background(), "query", 3)
	assert.ErrorIs(t, err, ErrNotReady)
}
