package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/lang"
	"github.com/dusk-indust/depgraph/internal/update"
)

type fakeUpdater struct {
	applied []update.ChangeEvent
}

func (f *fakeUpdater) Apply(event update.ChangeEvent) *update.IncrementalUpdateResult {
	f.applied = append(f.applied, event)
	return &update.IncrementalUpdateResult{}
}

func newTestWatcher(t *testing.T, root string) (*Watcher, *ContentCache, *fakeUpdater) {
	t.Helper()
	cache := NewContentCache()
	fu := &fakeUpdater{}
	w, err := New(root, lang.NewRegistry(), cache, fu, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w, cache, fu
}

func TestClassify_NewFileIsAdded(t *testing.T) {
	dir := t.TempDir()
	w, _, _ := newTestWatcher(t, dir)

	p := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(p, []byte("package a\n"), 0o644))

	event, ok := w.classify(graph.Normalize(p))
	require.True(t, ok)
	require.Equal(t, update.Added, event.Type)
	require.Equal(t, "package a\n", event.NewContent)
	require.Equal(t, "a.go", event.RelativePath)
}

func TestClassify_NestedFilePopulatesRelativePath(t *testing.T) {
	dir := t.TempDir()
	w, _, _ := newTestWatcher(t, dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	p := filepath.Join(dir, "sub", "b.go")
	require.NoError(t, os.WriteFile(p, []byte("package b\n"), 0o644))

	event, ok := w.classify(graph.Normalize(p))
	require.True(t, ok)
	require.Equal(t, "sub/b.go", event.RelativePath)
}

func TestClassify_ModifiedContentProducesDiff(t *testing.T) {
	dir := t.TempDir()
	w, cache, _ := newTestWatcher(t, dir)

	p := filepath.Join(dir, "a.go")
	f := graph.Normalize(p)
	cache.Set(f, "package a\n")
	require.NoError(t, os.WriteFile(p, []byte("package b\n"), 0o644))

	event, ok := w.classify(f)
	require.True(t, ok)
	require.Equal(t, update.Modified, event.Type)
	require.NotEmpty(t, event.Diff)
}

func TestClassify_UnchangedContentIsDropped(t *testing.T) {
	dir := t.TempDir()
	w, cache, _ := newTestWatcher(t, dir)

	p := filepath.Join(dir, "a.go")
	f := graph.Normalize(p)
	require.NoError(t, os.WriteFile(p, []byte("same\n"), 0o644))
	cache.Set(f, "same\n")

	_, ok := w.classify(f)
	require.False(t, ok)
}

func TestClassify_MissingFileWithCacheEntryIsDeleted(t *testing.T) {
	dir := t.TempDir()
	w, cache, _ := newTestWatcher(t, dir)

	f := graph.Normalize(filepath.Join(dir, "gone.go"))
	cache.Set(f, "package gone\n")

	event, ok := w.classify(f)
	require.True(t, ok)
	require.Equal(t, update.Deleted, event.Type)
	require.Equal(t, "package gone\n", event.OldContent)
	require.Equal(t, "gone.go", event.RelativePath)

	_, stillCached := cache.Get(f)
	require.False(t, stillCached)
}

func TestClassify_MissingFileNeverCachedIsIgnored(t *testing.T) {
	dir := t.TempDir()
	w, _, _ := newTestWatcher(t, dir)

	_, ok := w.classify(graph.Normalize(filepath.Join(dir, "never.go")))
	require.False(t, ok)
}

func TestFire_AppliesToUpdaterBeforeEmitting(t *testing.T) {
	dir := t.TempDir()
	w, _, fu := newTestWatcher(t, dir)

	p := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(p, []byte("package a\n"), 0o644))

	var order []string
	w.Subscribe(func(update.ChangeEvent) {
		if len(fu.applied) == 1 {
			order = append(order, "observer after apply")
		} else {
			order = append(order, "observer before apply")
		}
	})

	w.fire(p)

	require.Len(t, fu.applied, 1)
	require.Equal(t, []string{"observer after apply"}, order)
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	dir := t.TempDir()
	w, _, _ := newTestWatcher(t, dir)

	calls := 0
	unsubscribe := w.Subscribe(func(update.ChangeEvent) { calls++ })
	unsubscribe()

	p := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(p, []byte("package a\n"), 0o644))
	w.fire(p)

	require.Equal(t, 0, calls)
}
