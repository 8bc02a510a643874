package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteCorpus materializes files under a fresh temp directory and
// returns its path. Keys are relative paths, values file contents.
func WriteCorpus(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("creating corpus dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("writing corpus file %s: %v", rel, err)
		}
	}
	return root
}
