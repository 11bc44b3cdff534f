//go:build cgo

package graph

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T) *KuzuMirror {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "mirror.kuzu")
	m, err := NewKuzuFileMirror(dbPath)
	require.NoError(t, err, "NewKuzuFileMirror should not fail")
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.InitSchema())
	return m
}

func TestKuzuMirror_InitSchema(t *testing.T) {
	m := newTestMirror(t)

	// Second call should be idempotent (IF NOT EXISTS).
	require.NoError(t, m.InitSchema())
}

func TestKuzuMirror_MirrorChain(t *testing.T) {
	m := newTestMirror(t)

	g := NewGraph("/repo", []string{"/repo"}, []Language{LangGo})
	AddFileNode(g, "/repo/a.go")
	AddFileNode(g, "/repo/b.go")
	AddFileNode(g, "/repo/c.go")
	SetForwardEdges(g, "/repo/a.go", []FileID{"/repo/b.go"})
	SetForwardEdges(g, "/repo/b.go", []FileID{"/repo/c.go"})

	require.NoError(t, m.Mirror(g))

	rows, err := m.conn.Query("MATCH (f:File) RETURN f.path")
	require.NoError(t, err)
	defer rows.Close()

	var paths []string
	for rows.HasNext() {
		tuple, err := rows.Next()
		require.NoError(t, err)
		vals, err := tuple.GetAsSlice()
		require.NoError(t, err)
		paths = append(paths, vals[0].(string))
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"/repo/a.go", "/repo/b.go", "/repo/c.go"}, paths)

	edgeRows, err := m.conn.Query("MATCH (:File)-[r:IMPORTS]->(:File) RETURN count(r)")
	require.NoError(t, err)
	defer edgeRows.Close()
	require.True(t, edgeRows.HasNext())
	tuple, err := edgeRows.Next()
	require.NoError(t, err)
	vals, err := tuple.GetAsSlice()
	require.NoError(t, err)
	assert.EqualValues(t, 2, vals[0])
}

func TestKuzuMirror_Close(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mirror.kuzu")
	m, err := NewKuzuFileMirror(dbPath)
	require.NoError(t, err)

	require.NoError(t, m.Close())
}
