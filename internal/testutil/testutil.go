// Package testutil provides shared test helpers for building corpora on disk.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/skillgate/internal/storage"
)

// Files maps slash-separated relative paths to file content.
type Files map[string]string

// TestCorpus writes files under a temporary directory and returns the root.
func TestCorpus(t *testing.T, files Files) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// WriteFiles writes (or overwrites) files under root, creating parents.
func WriteFiles(t *testing.T, root string, files Files) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestStore creates a corpus and an FS provider over it that selects every
// Markdown file.
func TestStore(t *testing.T, files Files) (string, *storage.FS) {
	t.Helper()
	root := TestCorpus(t, files)
	store, err := storage.NewFS(root, []string{"**/*.md"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
