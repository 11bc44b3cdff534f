package impact

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/memo"
)

func buildStore(edges map[string][]string) (*graph.Store, *graph.SCCResult) {
	g := graph.NewGraph("/repo", []string{"/repo"}, []graph.Language{graph.LangGo})
	for f := range edges {
		graph.AddFileNode(g, f)
	}
	for f, deps := range edges {
		for _, d := range deps {
			graph.AddFileNode(g, d)
		}
		graph.SetForwardEdges(g, f, toFileIDs(deps))
	}
	return graph.NewStore(g), graph.ComputeSCC(g)
}

func toFileIDs(ss []string) []graph.FileID {
	out := make([]graph.FileID, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func TestAnalyseImpact_DirectAndTransitive(t *testing.T) {
	// a -> b -> c (a imports b, b imports c); changing c impacts b directly
	// and a transitively.
	store, scc := buildStore(map[string][]string{
		"a.go": {"b.go"},
		"b.go": {"c.go"},
		"c.go": {},
	})
	cache := memo.New(10)

	result, err := AnalyseImpact(store, scc, cache, "c.go")
	require.NoError(t, err)
	require.Equal(t, []graph.FileID{"b.go"}, result.DirectDependents)
	require.Equal(t, []graph.FileID{"a.go"}, result.TransitiveDependents)
	require.Equal(t, 2, result.TotalImpacted)
	require.Equal(t, RiskLow, result.RiskLevel)
	require.False(t, result.FromCache)
}

func TestAnalyseImpact_UnknownFile(t *testing.T) {
	store, scc := buildStore(map[string][]string{"a.go": {}})
	cache := memo.New(10)

	_, err := AnalyseImpact(store, scc, cache, "missing.go")
	require.Error(t, err)
	var notInGraph *FileNotInGraphError
	require.ErrorAs(t, err, &notInGraph)
}

func TestAnalyseImpact_SecondCallHitsCache(t *testing.T) {
	store, scc := buildStore(map[string][]string{
		"a.go": {"b.go"},
		"b.go": {},
	})
	cache := memo.New(10)

	first, err := AnalyseImpact(store, scc, cache, "b.go")
	require.NoError(t, err)
	require.False(t, first.FromCache)

	second, err := AnalyseImpact(store, scc, cache, "b.go")
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, first.DirectDependents, second.DirectDependents)
	require.Equal(t, first.TotalImpacted, second.TotalImpacted)
}

func TestAnalyseImpact_CyclicClusterMarkedLevelZero(t *testing.T) {
	// a <-> b cycle, c imports a.
	store, scc := buildStore(map[string][]string{
		"a.go": {"b.go"},
		"b.go": {"a.go"},
		"c.go": {"a.go"},
	})
	cache := memo.New(10)

	result, err := AnalyseImpact(store, scc, cache, "a.go")
	require.NoError(t, err)
	require.Contains(t, result.DirectDependents, graph.FileID("b.go"))
	require.Contains(t, result.DirectDependents, graph.FileID("c.go"))
	require.Equal(t, []graph.FileID{"b.go"}, result.CircularCluster)
	require.Equal(t, 0, result.CascadeLevels["b.go"])
	require.Equal(t, 1, result.CyclicSCCCount)
}

func TestAnalyseImpact_NoDependentsIsRiskNone(t *testing.T) {
	store, scc := buildStore(map[string][]string{"a.go": {}})
	cache := memo.New(10)

	result, err := AnalyseImpact(store, scc, cache, "a.go")
	require.NoError(t, err)
	require.Equal(t, RiskNone, result.RiskLevel)
	require.Equal(t, 0, result.TotalImpacted)
}

func TestAnalyseImpact_FallsBackToPlainBFSWithoutSCC(t *testing.T) {
	store, _ := buildStore(map[string][]string{
		"a.go": {"b.go"},
		"b.go": {"c.go"},
		"c.go": {},
	})
	cache := memo.New(10)

	result, err := AnalyseImpact(store, nil, cache, "c.go")
	require.NoError(t, err)
	require.Equal(t, []graph.FileID{"b.go"}, result.DirectDependents)
	require.Equal(t, []graph.FileID{"a.go"}, result.TransitiveDependents)
}

func TestGetHubFiles_RanksByInDegreeDescendingThenPath(t *testing.T) {
	store, _ := buildStore(map[string][]string{
		"u.go": {"h.go"},
		"v.go": {"h.go"},
		"w.go": {"h.go"},
		"h.go": {},
	})

	hubs := GetHubFiles(store, 1)
	require.Len(t, hubs, 1)
	require.Equal(t, graph.FileID("h.go"), hubs[0].File)
	require.Equal(t, 3, hubs[0].DependentCount)
	require.Equal(t, RiskLow, hubs[0].RiskLevel)
}

func TestGetHubFiles_TiesBreakByPathAscending(t *testing.T) {
	store, _ := buildStore(map[string][]string{
		"x.go": {"b.go"},
		"y.go": {"a.go"},
	})

	hubs := GetHubFiles(store, 0)
	require.Len(t, hubs, 2)
	require.Equal(t, graph.FileID("a.go"), hubs[0].File)
	require.Equal(t, graph.FileID("b.go"), hubs[1].File)
}
