package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// validConfig returns a configuration that passes validation; tests
// mutate single fields from here.
func validConfig() *Config {
	return &Config{
		CorpusDir:       "knowledge_base",
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		TopK:            DefaultTopK,
		EmbedderModel:   DefaultEmbedderModel,
		ModelName:       DefaultGenerationModel,
		Temperature:     0.1,
		MaxOutputTokens: 512,
		IndexDir:        "/tmp/unikb-index",
	}
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty corpus dir", func(c *Config) { c.CorpusDir = "" }, ErrInvalidCorpusDir},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, ErrInvalidChunking},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, ErrInvalidChunking},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, ErrInvalidChunking},
		{"top_k zero", func(c *Config) { c.TopK = 0 }, ErrInvalidTopK},
		{"top_k too large", func(c *Config) { c.TopK = 21 }, ErrInvalidTopK},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"empty model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"temperature too high", func(c *Config) { c.Temperature = 2.1 }, ErrInvalidTemperature},
		{"zero max tokens", func(c *Config) { c.MaxOutputTokens = 0 }, ErrInvalidMaxTokens},
		{"max tokens too large", func(c *Config) { c.MaxOutputTokens = 65537 }, ErrInvalidMaxTokens},
		{"empty index dir", func(c *Config) { c.IndexDir = "" }, ErrInvalidIndexDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestHasGenerationCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	assert.False(t, HasGenerationCredentials())

	t.Setenv("GEMINI_API_KEY", "test-key")
	assert.True(t, HasGenerationCredentials())
}
