package export

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
)

func TestGenerateMermaid_BoxesCyclicComponent(t *testing.T) {
	g := graph.NewGraph("/repo", []string{"/repo"}, []graph.Language{graph.LangGo})
	graph.AddFileNode(g, "/repo/x.go")
	graph.AddFileNode(g, "/repo/y.go")
	graph.AddFileNode(g, "/repo/z.go")
	graph.SetForwardEdges(g, "/repo/x.go", []graph.FileID{"/repo/y.go"})
	graph.SetForwardEdges(g, "/repo/y.go", []graph.FileID{"/repo/x.go"})
	graph.SetForwardEdges(g, "/repo/z.go", []graph.FileID{"/repo/x.go"})
	store := graph.NewStore(g)
	scc := graph.ComputeSCC(g)

	out := GenerateMermaid(store, scc)
	require.Contains(t, out, "graph TD")
	require.Contains(t, out, "subgraph cycle")
	require.Contains(t, out, "x.go")
	require.Contains(t, out, "y.go")
	require.Contains(t, out, "-->")
}

func TestGenerateMermaid_NilSCCStillRendersPlainNodes(t *testing.T) {
	g := graph.NewGraph("/repo", []string{"/repo"}, []graph.Language{graph.LangGo})
	graph.AddFileNode(g, "/repo/a.go")
	graph.AddFileNode(g, "/repo/b.go")
	graph.SetForwardEdges(g, "/repo/a.go", []graph.FileID{"/repo/b.go"})
	store := graph.NewStore(g)

	out := GenerateMermaid(store, nil)
	require.NotContains(t, out, "subgraph")
	require.Contains(t, out, "a.go")
	require.Contains(t, out, "-->")
}

func TestRelLabel_TrimsRootAndKeepsLastTwoSegments(t *testing.T) {
	require.Equal(t, "pkg/a.go", relLabel("/repo", "/repo/src/pkg/a.go"))
	require.Equal(t, "a.go", relLabel("/repo", "/repo/a.go"))
}
