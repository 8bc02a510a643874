package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unikb/internal/config"
	"unikb/internal/engine"
	"unikb/internal/log"
	"unikb/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		CorpusDir: testutil.WriteCorpus(t, map[string]string{
			"hoc_phi/tuition.txt": "Học phí được thu theo tín chỉ.",
		}),
		ChunkSize:       config.DefaultChunkSize,
		ChunkOverlap:    config.DefaultChunkOverlap,
		TopK:            config.DefaultTopK,
		EmbedderModel:   config.DefaultEmbedderModel,
		ModelName:       config.DefaultGenerationModel,
		Temperature:     0.1,
		MaxOutputTokens: 512,
		IndexDir:        t.TempDir(),
	}
}

func TestSetupWithoutCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := testConfig(t)
	a, err := Setup(context.Background(), cfg, log.NewNop())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, a.Close())
	}()

	assert.Equal(t, engine.ModeSimple, a.Manager.Mode())
	assert.Nil(t, a.Watcher, "watching is off by default in tests")

	// The whole query path works end to end in simple mode.
	require.NoError(t, a.Manager.Reload(context.Background(), false))
	answer := a.Engine.Answer(context.Background(), "học phí đóng thế nào?")
	assert.Equal(t, engine.SourceSimple, answer.Source)
	assert.Contains(t, answer.Response, "Học phí được thu theo tín chỉ.")
}

func TestSetupWithWatcher(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := testConfig(t)
	cfg.WatchCorpus = true

	a, err := Setup(context.Background(), cfg, log.NewNop())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, a.Close())
	}()

	assert.NotNil(t, a.Watcher)
}

func TestSetupInvalidChunking(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := testConfig(t)
	cfg.ChunkOverlap = cfg.ChunkSize

	_, err := Setup(context.Background(), cfg, log.NewNop())
	assert.Error(t, err)
}
