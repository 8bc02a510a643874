// Package gemini adapts Google Gemini (through Genkit) to the two
// capabilities the engine consumes: text generation and text embedding.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"unikb/internal/config"
)

// Client wraps a Genkit instance configured with the GoogleAI plugin.
// It implements both the engine's Generator and the index's Embedder.
type Client struct {
	g               *genkit.Genkit
	modelName       string
	temperature     float32
	maxOutputTokens int
	embedder        ai.Embedder
	logger          *slog.Logger
}

// New initializes Genkit with the GoogleAI plugin and looks up the
// configured embedder. Requires GEMINI_API_KEY in the environment; the
// caller checks config.HasGenerationCredentials first and falls back to
// simple mode instead of calling New without a key.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai plugin")
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	logger.Info("gemini client initialized",
		"model", cfg.ModelName, "embedder", cfg.EmbedderModel)

	return &Client{
		g:               g,
		modelName:       cfg.ModelName,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		embedder:        embedder,
		logger:          logger,
	}, nil
}

// Generate sends a prompt to the generation model and returns its text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.fullModelName()),
		ai.WithPrompt("%s", prompt),
		ai.WithConfig(map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxOutputTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned an empty response")
	}
	return text, nil
}

// Embed returns one vector per input text, in order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := c.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding for text %d", i)
		}
		vectors[i] = emb.Embedding
	}
	return vectors, nil
}

// fullModelName returns the plugin-qualified model name for Genkit,
// e.g. "googleai/gemini-1.5-flash".
func (c *Client) fullModelName() string {
	if strings.Contains(c.modelName, "/") {
		return c.modelName
	}
	return "googleai/" + c.modelName
}
