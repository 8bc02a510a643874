package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"unikb/internal/corpus"
)

const (
	// simpleTopDocuments and simpleContextLimit bound keyword-search
	// answers: at most three documents, 2000 characters of context.
	simpleTopDocuments = 3
	simpleContextLimit = 2000

	// categoryBoost rewards documents filed under the category the
	// query is asking about.
	categoryBoost = 5
)

// categoryHints maps corpus categories to the query phrase that marks a
// question as being about that category.
var categoryHints = map[string]string{
	"hoc_phi":    "học phí",
	"hoc_bong":   "học bổng",
	"quy_che":    "quy định",
	"tuyen_sinh": "tuyển sinh",
}

// Engine is the query facade: the single entry point that routes a
// question through whichever answer path the current mode and state
// allow, degrading instead of failing. It never returns an error to the
// caller; every outcome is an Answer.
type Engine struct {
	manager  *Manager
	composer *Composer
	topK     int
	logger   *slog.Logger
}

// New creates the query facade. The composer may be nil in simple mode.
func New(manager *Manager, composer *Composer, topK int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{manager: manager, composer: composer, topK: topK, logger: logger}
}

// Manager exposes the lifecycle manager for status reporting.
func (e *Engine) Manager() *Manager {
	return e.manager
}

// Answer resolves a query. Advanced mode retrieves and generates; simple
// mode keyword-searches raw documents. When the engine is not ready it
// still keyword-searches whatever documents were loaded; the canned
// fallback is the last rung, reserved for an empty or unloadable corpus.
// The answer's source field records which path ran.
func (e *Engine) Answer(ctx context.Context, query string) Answer {
	if !e.manager.Ready() {
		if len(e.manager.Documents()) > 0 {
			return e.answerSimple(query)
		}
		return fallbackAnswer(query)
	}

	if e.manager.Mode() == ModeAdvanced {
		return e.answerAdvanced(ctx, query)
	}
	return e.answerSimple(query)
}

func (e *Engine) answerAdvanced(ctx context.Context, query string) Answer {
	results, err := e.manager.Retrieve(ctx, query, e.topK)
	if err != nil {
		e.logger.Warn("retrieval failed", "error", err)
		return Answer{
			Response: msgGenericFailurePrefix + truncateRunes(err.Error(), maxErrorDetailRunes),
			Source:   SourceAdvanced,
			Status:   StatusPartialSuccess,
		}
	}
	return e.composer.Compose(ctx, query, results)
}

type scoredDoc struct {
	doc   corpus.Document
	score int
}

// answerSimple ranks raw documents by keyword occurrence and answers
// from a template; no external service is involved.
func (e *Engine) answerSimple(query string) Answer {
	scored := scoreDocuments(e.manager.Documents(), query)
	if len(scored) == 0 {
		return fallbackAnswer(query)
	}

	var b strings.Builder
	written := 0
	for i, sd := range scored {
		if i >= simpleTopDocuments || written >= simpleContextLimit {
			break
		}
		content := truncateRunes(sd.doc.Content, simpleContextLimit-written)
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
		written += len([]rune(content))
	}

	return Answer{
		Response: fmt.Sprintf(simpleAnswerTemplate, strings.TrimSpace(b.String())),
		Source:   SourceSimple,
		Status:   StatusSuccess,
	}
}

// scoreDocuments counts occurrences of each query word longer than two
// runes, boosts documents whose category matches the question's topic,
// and returns positive-scoring documents ordered best first. Ties keep
// corpus order, which is deterministic.
func scoreDocuments(docs []corpus.Document, query string) []scoredDoc {
	q := strings.ToLower(query)

	var words []string
	for _, w := range strings.Fields(q) {
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}

	var scored []scoredDoc
	for _, doc := range docs {
		content := strings.ToLower(doc.Content)
		score := 0
		for _, w := range words {
			score += strings.Count(content, w)
		}
		if hint, ok := categoryHints[doc.Category]; ok && strings.Contains(q, hint) {
			score += categoryBoost
		}
		if score > 0 {
			scored = append(scored, scoredDoc{doc: doc, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

// fallbackAnswer routes an offline query to canned guidance by topic
// keywords. It always partially succeeds rather than erroring, so the
// caller still gets usable text when the corpus is unavailable.
func fallbackAnswer(query string) Answer {
	q := strings.ToLower(query)

	response := fallbackDefault
	switch {
	case containsAny(q, "học phí", "chi phí", "phí", "tiền học"):
		response = fallbackTuition
	case containsAny(q, "học bổng", "hỗ trợ", "miễn giảm", "trợ cấp"):
		response = fallbackScholarship
	case containsAny(q, "quy định", "quy chế", "điểm số", "tốt nghiệp"):
		response = fallbackRegulations
	case containsAny(q, "chương trình", "đào tạo", "môn học", "tín chỉ"):
		response = fallbackPrograms
	}

	return Answer{Response: response, Source: SourceFallback, Status: StatusPartialSuccess}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
