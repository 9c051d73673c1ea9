package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintrag/internal/domain"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func relPaths(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	files, err := w.Walk(root)
	require.NoError(t, err)
	var out []string
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestWalker_DefaultIncludesTopLevelPDFs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.pdf", "a.pdf", "notes.txt", "archive/old.pdf")

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, relPaths(t, NewWalker(nil, nil), root))
}

func TestWalker_RecursiveWithExcludes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.pdf", "2024/q1.pdf", "drafts/wip.pdf")

	w := NewWalker([]string{"**/*.pdf"}, []string{"drafts/**"})
	assert.Equal(t, []string{"2024/q1.pdf", "a.pdf"}, relPaths(t, w, root))
}

func TestWalker_MissingRoot(t *testing.T) {
	_, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWalker_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.pdf")
	_, err := NewWalker(nil, nil).Walk(filepath.Join(root, "a.pdf"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
