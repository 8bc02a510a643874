// Package corpus handles the document side of the knowledge engine:
// discovering and extracting source files, splitting them into passages,
// and fingerprinting the corpus to detect drift between runs.
package corpus

import (
	"path/filepath"
	"strings"
)

// MediaType identifies how a source file's text was extracted.
type MediaType string

const (
	// MediaPlainText is a UTF-8 text file (.txt, .md).
	MediaPlainText MediaType = "plain_text"

	// MediaPDF is a PDF file, extracted one document per page.
	MediaPDF MediaType = "pdf"

	// MediaHTML is an HTML file, extracted through readability.
	MediaHTML MediaType = "html"
)

// Document is a normalized source record. Documents are rebuilt wholesale
// on every load pass and never mutated; only their derived passages are
// persisted (inside the vector index).
type Document struct {
	// SourcePath is the path relative to the corpus root. Unique per
	// document except for PDFs, where each page shares the path and
	// differs by Page.
	SourcePath string

	// Content is the extracted text.
	Content string

	// Category is the first path segment under the corpus root
	// (e.g. "hoc_phi", "tuyen_sinh"), or "general" for root-level files.
	Category string

	// Media records the extraction type.
	Media MediaType

	// Page is the 1-based page number for PDF documents, 0 otherwise.
	Page int
}

// Provenance ties a passage back to its source document.
type Provenance struct {
	SourcePath string    `json:"source_path"`
	Category   string    `json:"category"`
	Media      MediaType `json:"media_type"`
	Page       int       `json:"page,omitempty"`
}

// Passage is the unit of retrieval: a bounded slice of one document's
// content. Text is never empty.
type Passage struct {
	ID     string     `json:"id"`
	Text   string     `json:"text"`
	Source Provenance `json:"source"`
}

// eligibleExtensions are the file types the loader and fingerprinter
// agree on. Both must see the same file set, otherwise the fingerprint
// would claim "unchanged" for files the loader ignores (or vice versa).
var eligibleExtensions = map[string]MediaType{
	".txt":  MediaPlainText,
	".md":   MediaPlainText,
	".pdf":  MediaPDF,
	".html": MediaHTML,
	".htm":  MediaHTML,
}

// mediaTypeFor returns the media type for a file name, or "" if the file
// is not eligible.
func mediaTypeFor(name string) MediaType {
	return eligibleExtensions[strings.ToLower(filepath.Ext(name))]
}

// categoryFor derives the topic category from a relative path: the first
// path segment, or "general" for files directly under the root.
func categoryFor(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return "general"
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	return parts[0]
}
