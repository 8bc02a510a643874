package corpus

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

// Loader reads heterogeneous source files from a corpus root and
// normalizes them into Documents with provenance metadata.
//
// Extraction failures (corrupt PDF, bad encoding) are logged and the file
// is skipped; a load pass never fails because of one bad file. An empty
// root yields an empty corpus, which is a valid queryable state.
type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader creates a loader for the given corpus root directory.
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, logger: logger}
}

// Root returns the corpus root directory.
func (l *Loader) Root() string {
	return l.root
}

// Load discovers all eligible files under the root and extracts them.
// PDF files produce one Document per page; everything else produces one
// Document per file.
func (l *Loader) Load() ([]Document, error) {
	files, err := listEligibleFiles(l.root)
	if err != nil {
		return nil, fmt.Errorf("discovering corpus files: %w", err)
	}

	docs := make([]Document, 0, len(files))
	for _, relPath := range files {
		extracted, err := l.extract(relPath)
		if err != nil {
			l.logger.Warn("skipping unreadable file", "path", relPath, "error", err)
			continue
		}
		docs = append(docs, extracted...)
	}

	l.logger.Info("corpus loaded", "files", len(files), "documents", len(docs))
	return docs, nil
}

// extract produces the Documents for a single file.
func (l *Loader) extract(relPath string) ([]Document, error) {
	absPath := filepath.Join(l.root, relPath)
	category := categoryFor(relPath)

	switch mediaTypeFor(relPath) {
	case MediaPlainText:
		content, err := os.ReadFile(absPath)
		if err != nil {
			return nil, err
		}
		return []Document{{
			SourcePath: relPath,
			Content:    string(content),
			Category:   category,
			Media:      MediaPlainText,
		}}, nil

	case MediaPDF:
		return extractPDF(absPath, relPath, category)

	case MediaHTML:
		return extractHTML(absPath, relPath, category)

	default:
		return nil, fmt.Errorf("unsupported file type: %s", relPath)
	}
}

// extractPDF extracts one Document per page. Pages that yield no text
// (scanned images, empty pages) are dropped silently.
func extractPDF(absPath, relPath, category string) ([]Document, error) {
	f, reader, err := pdf.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var docs []Document
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One broken page does not discard the rest of the file.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, Document{
			SourcePath: relPath,
			Content:    text,
			Category:   category,
			Media:      MediaPDF,
			Page:       pageNum,
		})
	}
	return docs, nil
}

// extractHTML extracts the readable article text from an HTML file.
func extractHTML(absPath, relPath, category string) ([]Document, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	article, err := readability.FromReader(f, &url.URL{Scheme: "file", Path: absPath})
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	return []Document{{
		SourcePath: relPath,
		Content:    article.TextContent,
		Category:   category,
		Media:      MediaHTML,
	}}, nil
}

// listEligibleFiles walks root and returns the relative paths of all
// eligible files, sorted for deterministic ordering.
func listEligibleFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.git, .cache) are never part of the corpus.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if mediaTypeFor(d.Name()) == "" {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
