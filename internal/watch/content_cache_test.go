package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
)

func TestContentCache_LoadInitialCountsFilesAndBytes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("line1\nline2\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("solo"), 0o644))

	c := NewContentCache()
	require.NoError(t, c.LoadInitial(context.Background(), []string{a, b}, 4))

	stats := c.Stats()
	require.Equal(t, 2, stats.Files)
	require.Equal(t, len("line1\nline2\n")+len("solo"), stats.Bytes)

	content, ok := c.Get(graph.Normalize(a))
	require.True(t, ok)
	require.Equal(t, "line1\nline2\n", content)
}

func TestContentCache_SetReplacesAndAdjustsStats(t *testing.T) {
	c := NewContentCache()
	c.Set("f.go", "a\nb\n")
	first := c.Stats()
	require.Equal(t, 1, first.Files)

	c.Set("f.go", "x")
	second := c.Stats()
	require.Equal(t, 1, second.Files)
	require.Equal(t, len("x"), second.Bytes)

	content, ok := c.Get("f.go")
	require.True(t, ok)
	require.Equal(t, "x", content)
}

func TestContentCache_EvictRemovesAndReturnsLastContent(t *testing.T) {
	c := NewContentCache()
	c.Set("f.go", "hello")

	old, ok := c.Evict("f.go")
	require.True(t, ok)
	require.Equal(t, "hello", old)

	_, ok = c.Get("f.go")
	require.False(t, ok)
	require.Equal(t, 0, c.Stats().Files)
}

func TestContentCache_EvictMissingIsFalse(t *testing.T) {
	c := NewContentCache()
	_, ok := c.Evict("missing.go")
	require.False(t, ok)
}

func TestContentCache_LoadInitialSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewContentCache()
	require.NoError(t, c.LoadInitial(context.Background(), []string{filepath.Join(dir, "nope.go")}, 2))
	require.Equal(t, 0, c.Stats().Files)
}
