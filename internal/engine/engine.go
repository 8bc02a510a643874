// Package engine implements the RAG knowledge engine: the index
// lifecycle manager, the retriever, the answer composer, and the query
// facade that ties them together with graceful degradation.
//
// Degradation order for a query:
//
//	advanced  — vector retrieval + grounded generation (Gemini)
//	simple    — keyword-scored plain-text search, templated answer
//	fallback  — canned topic responses, no corpus access at all
//
// The facade always returns an Answer; no error of any stage escapes to
// the caller.
package engine

import "context"

// Source tags which path produced an answer.
type Source string

const (
	// SourceAdvanced is the full retrieval + generation path.
	SourceAdvanced Source = "advanced"

	// SourceSimple is the keyword-search path (no external services).
	SourceSimple Source = "simple"

	// SourceFallback is the canned-response path (engine unavailable).
	SourceFallback Source = "fallback"
)

// Status reports how well a query was served.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusError          Status = "error"
)

// Answer is the engine's only output type.
type Answer struct {
	Response string `json:"response"`
	Source   Source `json:"source"`
	Status   Status `json:"status"`
}

// Generator is the text-generation service consumed by the composer:
// prompt in, text out. The Gemini client implements it; tests inject
// stubs that simulate quota and transport failures.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
