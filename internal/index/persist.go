package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"unikb/internal/corpus"
)

// indexFileName is the serialized index inside the persistence directory.
// The corpus fingerprint lives in a sibling file owned by the lifecycle
// manager; this package only round-trips the index itself.
const indexFileName = "index.gob"

// persistedIndex is the gob payload. Kept separate from Index so the
// in-memory representation can change without breaking old files in
// undetectable ways (a decode failure maps to ErrCorruptIndex either way).
type persistedIndex struct {
	Dim      int
	Vectors  [][]float32
	Passages []corpus.Passage
}

// Save writes the index into dir, creating it if needed. The write goes
// through a temp file and rename so a crash mid-write leaves either the
// old index or none, never a torn one.
func (ix *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	path := filepath.Join(dir, indexFileName)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}

	payload := persistedIndex{Dim: ix.dim, Vectors: ix.vectors, Passages: ix.passages}
	if err := gob.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing index file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing index file: %w", err)
	}
	return nil
}

// Load restores an index from dir. A missing or undecodable file, or one
// with inconsistent contents, fails with ErrCorruptIndex (wrapped); the
// caller decides whether to rebuild.
func Load(dir string) (*Index, error) {
	path := filepath.Join(dir, indexFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var payload persistedIndex
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	if len(payload.Vectors) != len(payload.Passages) {
		return nil, fmt.Errorf("%w: %d vectors for %d passages", ErrCorruptIndex, len(payload.Vectors), len(payload.Passages))
	}
	for i, vec := range payload.Vectors {
		if len(vec) != payload.Dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrCorruptIndex, i, len(vec), payload.Dim)
		}
	}
	for _, p := range payload.Passages {
		if p.Text == "" {
			return nil, fmt.Errorf("%w: empty passage %s", ErrCorruptIndex, p.ID)
		}
	}

	return &Index{dim: payload.Dim, vectors: payload.Vectors, passages: payload.Passages}, nil
}

// Remove deletes a persisted index file from dir, ignoring a missing
// file. Used to discard stale state before a rebuild.
func Remove(dir string) error {
	err := os.Remove(filepath.Join(dir, indexFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing index file: %w", err)
	}
	return nil
}
