package corpus

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Chunker splits documents into overlapping passages by sliding a
// fixed-size window over the content. Sizes are measured in runes so
// multi-byte text (the corpus is Vietnamese) is never cut mid-character.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Overlap must be smaller than size,
// otherwise the window never advances.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d (size %d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split produces the ordered passages of one document.
//
// Content shorter than the window yields exactly one passage holding the
// whole content. Empty or whitespace-only content yields zero passages;
// that is not an error. No emitted passage is ever empty.
func (c *Chunker) Split(doc Document) []Passage {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	prov := Provenance{
		SourcePath: doc.SourcePath,
		Category:   doc.Category,
		Media:      doc.Media,
		Page:       doc.Page,
	}

	runes := []rune(doc.Content)
	if len(runes) <= c.size {
		return []Passage{{
			ID:     uuid.NewString(),
			Text:   doc.Content,
			Source: prov,
		}}
	}

	stride := c.size - c.overlap
	passages := make([]Passage, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		passages = append(passages, Passage{
			ID:     uuid.NewString(),
			Text:   string(runes[start:end]),
			Source: prov,
		})
		if end == len(runes) {
			break
		}
	}
	return passages
}

// SplitAll chunks a whole corpus, preserving document order.
func (c *Chunker) SplitAll(docs []Document) []Passage {
	var passages []Passage
	for _, doc := range docs {
		passages = append(passages, c.Split(doc)...)
	}
	return passages
}
