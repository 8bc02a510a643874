package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"unikb/internal/index"
)

const (
	// maxContextPassages and maxPassageRunes bound the prompt context:
	// at most three passages, each truncated to 600 runes.
	maxContextPassages = 3
	maxPassageRunes    = 600

	// maxErrorDetailRunes caps the raw error text surfaced to users.
	maxErrorDetailRunes = 100
)

// Composer turns retrieved passages into a generated answer. It owns
// prompt assembly, model invocation pacing, and the classification of
// generation failures into user-facing messages.
type Composer struct {
	gen     Generator
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewComposer creates a composer around a generator. Calls are paced to
// stay under free-tier request quotas.
func NewComposer(gen Generator, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		gen:     gen,
		limiter: rate.NewLimiter(rate.Every(4*time.Second), 2),
		logger:  logger,
	}
}

// Compose builds a prompt from the passages and generates an answer.
// With no passages it answers "not found" directly and never calls the
// model. Generation failures degrade to a partial-success answer rather
// than an error: quota exhaustion gets a dedicated message, everything
// else a generic one carrying a truncated error detail.
func (c *Composer) Compose(ctx context.Context, query string, passages []index.Result) Answer {
	if len(passages) == 0 {
		return Answer{Response: msgNoInformation, Source: SourceAdvanced, Status: StatusSuccess}
	}

	prompt := c.buildPrompt(query, passages)

	if err := c.limiter.Wait(ctx); err != nil {
		return c.failureAnswer(err)
	}

	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("generation failed", "error", err)
		return c.failureAnswer(err)
	}

	return Answer{Response: strings.TrimSpace(text), Source: SourceAdvanced, Status: StatusSuccess}
}

func (c *Composer) buildPrompt(query string, passages []index.Result) string {
	n := len(passages)
	if n > maxContextPassages {
		n = maxContextPassages
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[Tài liệu %d]: %s\n\n", i+1, truncateRunes(passages[i].Passage.Text, maxPassageRunes))
	}

	return fmt.Sprintf(promptTemplate, strings.TrimSpace(b.String()), query)
}

func (c *Composer) failureAnswer(err error) Answer {
	if isQuotaError(err) {
		return Answer{Response: msgQuotaExceeded, Source: SourceAdvanced, Status: StatusPartialSuccess}
	}
	detail := truncateRunes(err.Error(), maxErrorDetailRunes)
	return Answer{
		Response: msgGenericFailurePrefix + detail,
		Source:   SourceAdvanced,
		Status:   StatusPartialSuccess,
	}
}

// isQuotaError classifies rate-limit and quota exhaustion responses by
// the markers the upstream API puts in its error text.
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") || strings.Contains(s, "quota")
}

// truncateRunes cuts s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
