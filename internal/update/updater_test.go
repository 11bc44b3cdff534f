package update

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/lang"
	"github.com/dusk-indust/depgraph/internal/memo"
)

func newTestUpdater(t *testing.T, root string, knownRel []string) (*Updater, *graph.Store) {
	t.Helper()
	g := graph.NewGraph(root, []string{root}, []graph.Language{graph.LangTypeScript})
	for _, rel := range knownRel {
		graph.AddFileNode(g, graph.Normalize(root+"/"+rel))
	}
	store := graph.NewStore(g)
	resolver := graph.NewResolver(root, knownRel)
	registry := lang.NewRegistry()
	cache := memo.New(10)
	scc := graph.ComputeSCC(g)
	return NewUpdater(store, registry, resolver, cache, scc), store
}

func TestUpdater_ModifiedAddsAndRemovesEdges(t *testing.T) {
	root := "/repo"
	u, store := newTestUpdater(t, root, []string{"a.ts", "b.ts", "c.ts"})

	store.Mutate(func(g *graph.Graph) {
		graph.SetForwardEdges(g, graph.FileID("/repo/a.ts"), []graph.FileID{"/repo/b.ts"})
	})

	result := u.Apply(ChangeEvent{
		FilePath:   "/repo/a.ts",
		Type:       Modified,
		NewContent: "import './c'\n",
	})

	require.True(t, result.EdgesChanged)
	require.Equal(t, []graph.FileID{"/repo/c.ts"}, result.AddedEdges)
	require.Equal(t, []graph.FileID{"/repo/b.ts"}, result.RemovedEdges)

	store.View(func(g *graph.Graph) {
		require.Equal(t, []graph.FileID{"/repo/c.ts"}, g.Forward["/repo/a.ts"])
	})
}

func TestUpdater_AddedInsertsNewFile(t *testing.T) {
	root := "/repo"
	u, store := newTestUpdater(t, root, []string{"b.ts"})

	result := u.Apply(ChangeEvent{
		FilePath:   "/repo/a.ts",
		Type:       Added,
		NewContent: "import './b'\n",
	})

	require.True(t, result.EdgesChanged)
	require.True(t, store.Has("/repo/a.ts"))
	store.View(func(g *graph.Graph) {
		require.Equal(t, []graph.FileID{"/repo/b.ts"}, g.Forward["/repo/a.ts"])
		require.Contains(t, g.Reverse["/repo/b.ts"], graph.FileID("/repo/a.ts"))
	})
}

func TestUpdater_RemovedCollectsClosureAndUnlinks(t *testing.T) {
	root := "/repo"
	u, store := newTestUpdater(t, root, []string{"a.ts", "b.ts"})
	store.Mutate(func(g *graph.Graph) {
		graph.SetForwardEdges(g, graph.FileID("/repo/a.ts"), []graph.FileID{"/repo/b.ts"})
	})

	result := u.Apply(ChangeEvent{FilePath: "/repo/b.ts", Type: Deleted})

	require.False(t, store.Has("/repo/b.ts"))
	require.ElementsMatch(t, []graph.FileID{"/repo/b.ts", "/repo/a.ts"}, result.AffectedFiles)
	store.View(func(g *graph.Graph) {
		require.NotContains(t, g.Forward["/repo/a.ts"], graph.FileID("/repo/b.ts"))
	})
}

func TestUpdater_RemovedIsIdempotent(t *testing.T) {
	root := "/repo"
	u, store := newTestUpdater(t, root, []string{"a.ts"})

	first := u.Apply(ChangeEvent{FilePath: "/repo/a.ts", Type: Deleted})
	require.True(t, first.EdgesChanged == false || !store.Has("/repo/a.ts"))

	second := u.Apply(ChangeEvent{FilePath: "/repo/a.ts", Type: Deleted})
	require.False(t, second.EdgesChanged)
	require.Empty(t, second.RemovedEdges)
}

func TestUpdater_NoPluginForExtensionIsSwallowed(t *testing.T) {
	root := "/repo"
	u, _ := newTestUpdater(t, root, []string{})

	result := u.Apply(ChangeEvent{FilePath: "/repo/readme.txt", Type: Modified, NewContent: "hello"})
	require.False(t, result.EdgesChanged)
	require.Empty(t, result.AddedEdges)
}

func TestUpdater_NotifiesSubscribersOnEdgeChange(t *testing.T) {
	root := "/repo"
	u, _ := newTestUpdater(t, root, []string{"a.ts", "b.ts"})

	var got *GraphUpdatedNotification
	unsubscribe := u.Subscribe(func(n GraphUpdatedNotification) {
		got = &n
	})
	defer unsubscribe()

	u.Apply(ChangeEvent{FilePath: "/repo/a.ts", Type: Modified, NewContent: "import './b'\n"})

	require.NotNil(t, got)
	require.Equal(t, graph.FileID("/repo/a.ts"), got.File)
	require.NotNil(t, got.SCC)
}

func TestUpdater_UnsubscribeStopsNotifications(t *testing.T) {
	root := "/repo"
	u, _ := newTestUpdater(t, root, []string{"a.ts", "b.ts"})

	calls := 0
	unsubscribe := u.Subscribe(func(n GraphUpdatedNotification) { calls++ })
	unsubscribe()

	u.Apply(ChangeEvent{FilePath: "/repo/a.ts", Type: Modified, NewContent: "import './b'\n"})
	require.Equal(t, 0, calls)
}
