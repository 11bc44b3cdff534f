package memo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
)

func TestCache_GetMissThenSetThenHit(t *testing.T) {
	c := New(10)

	_, ok := c.Get("a.go")
	require.False(t, ok)

	c.Set("a.go", Entry{ImpactSet: []graph.FileID{"b.go", "c.go"}, DirectCount: 2})

	entry, ok := c.Get("a.go")
	require.True(t, ok)
	require.Equal(t, 2, entry.DirectCount)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, 1, stats.Size)
}

func TestCache_InvalidateRemovesAffectedKeysOnly(t *testing.T) {
	c := New(10)
	c.Set("a.go", Entry{ImpactSet: []graph.FileID{"b.go", "c.go"}})
	c.Set("x.go", Entry{ImpactSet: []graph.FileID{"y.go"}})

	removed := c.Invalidate([]graph.FileID{"b.go"})
	require.Equal(t, 1, removed)

	_, ok := c.Get("a.go")
	require.False(t, ok)
	_, ok = c.Get("x.go")
	require.True(t, ok)
}

func TestCache_InvalidateByKeyItself(t *testing.T) {
	c := New(10)
	c.Set("a.go", Entry{ImpactSet: nil})

	removed := c.Invalidate([]graph.FileID{"a.go"})
	require.Equal(t, 1, removed)
	_, ok := c.Get("a.go")
	require.False(t, ok)
}

func TestCache_SetOverwriteDropsOldReverseContributions(t *testing.T) {
	c := New(10)
	c.Set("a.go", Entry{ImpactSet: []graph.FileID{"b.go"}})
	c.Set("a.go", Entry{ImpactSet: []graph.FileID{"c.go"}})

	// b.go is no longer part of a.go's impact set, so invalidating it
	// must not remove a.go anymore.
	removed := c.Invalidate([]graph.FileID{"b.go"})
	require.Equal(t, 0, removed)

	removed = c.Invalidate([]graph.FileID{"c.go"})
	require.Equal(t, 1, removed)
}

func TestCache_EvictionCleansReverseIndex(t *testing.T) {
	c := New(1)
	c.Set("a.go", Entry{ImpactSet: []graph.FileID{"shared.go"}})
	c.Set("b.go", Entry{ImpactSet: []graph.FileID{"shared.go"}}) // evicts a.go

	_, ok := c.Get("a.go")
	require.False(t, ok, "a.go should have been evicted at capacity 1")

	removed := c.Invalidate([]graph.FileID{"shared.go"})
	require.Equal(t, 1, removed, "only b.go should remain indexed under shared.go")
}

func TestCache_InvalidateAllPreservesCounters(t *testing.T) {
	c := New(10)
	c.Set("a.go", Entry{})
	c.Get("a.go")
	c.Get("missing.go")

	c.InvalidateAll()

	stats := c.Stats()
	require.Equal(t, 0, stats.Size)
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)

	_, ok := c.Get("a.go")
	require.False(t, ok)
}

func TestCache_DefaultMaxSizeOnNonPositive(t *testing.T) {
	c := New(0)
	require.NotNil(t, c.lru)
}
