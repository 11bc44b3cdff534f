package coupling

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/impact"
	"github.com/dusk-indust/depgraph/internal/memo"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeAndCommit(t *testing.T, dir, msg string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "-c", "user.email=test@example.com", "-c", "user.name=Test", "commit", "-m", msg)
}

func newRepoWithCoChanges(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")

	writeAndCommit(t, dir, "initial", map[string]string{"a.go": "v1", "b.go": "v1"})
	writeAndCommit(t, dir, "second", map[string]string{"a.go": "v2", "b.go": "v2"})
	writeAndCommit(t, dir, "third", map[string]string{"a.go": "v3", "b.go": "v3"})
	writeAndCommit(t, dir, "solo", map[string]string{"c.go": "v1"})
	return dir
}

func TestMiner_TopCouplingsFindsCoChangedPair(t *testing.T) {
	dir := newRepoWithCoChanges(t)
	m := NewMiner(dir, DefaultConfig())

	hints, err := m.TopCouplings(dir, graph.FileID("a.go"), nil, 5)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	require.Equal(t, graph.FileID(graph.Normalize(filepath.Join(dir, "b.go"))), hints[0].OtherFile)
	require.Equal(t, 3, hints[0].CoChangeCount)
	require.InDelta(t, 1.0, hints[0].Confidence, 0.0001)
}

func TestMiner_ExcludeAdjacentFiltersOut(t *testing.T) {
	dir := newRepoWithCoChanges(t)
	m := NewMiner(dir, DefaultConfig())

	// excludeAdjacent is always keyed by absolute graph.FileID in real
	// callers (impact.AnalyseImpactWithCoupling builds it from Forward/
	// Reverse neighbours), never by the repo-relative form git reports.
	excluded := map[graph.FileID]bool{graph.FileID(graph.Normalize(filepath.Join(dir, "b.go"))): true}
	hints, err := m.TopCouplings(dir, graph.FileID("a.go"), excluded, 5)
	require.NoError(t, err)
	require.Empty(t, hints)
}

func TestMiner_BelowMinSupportIsExcluded(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init")
	writeAndCommit(t, dir, "only once", map[string]string{"x.go": "v1", "y.go": "v1"})

	m := NewMiner(dir, DefaultConfig())
	hints, err := m.TopCouplings(dir, graph.FileID("x.go"), nil, 5)
	require.NoError(t, err)
	require.Empty(t, hints)
}

func TestMiner_UnknownFileYieldsNoHints(t *testing.T) {
	dir := newRepoWithCoChanges(t)
	m := NewMiner(dir, DefaultConfig())

	hints, err := m.TopCouplings(dir, graph.FileID("never-seen.go"), nil, 5)
	require.NoError(t, err)
	require.Empty(t, hints)
}

func TestMiner_NotAGitRepoYieldsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	m := NewMiner(dir, DefaultConfig())

	hints, err := m.TopCouplings(dir, graph.FileID("a.go"), nil, 5)
	require.NoError(t, err)
	require.Empty(t, hints)
}

func TestMiner_CachesResultWithinTTL(t *testing.T) {
	dir := newRepoWithCoChanges(t)
	cfg := DefaultConfig()
	cfg.CacheTTL = time.Hour
	m := NewMiner(dir, cfg)

	_, err := m.TopCouplings(dir, graph.FileID("a.go"), nil, 5)
	require.NoError(t, err)
	cachedAt := m.cachedAt

	writeAndCommit(t, dir, "fourth", map[string]string{"a.go": "v4", "b.go": "v4"})

	_, err = m.TopCouplings(dir, graph.FileID("a.go"), nil, 5)
	require.NoError(t, err)
	require.Equal(t, cachedAt, m.cachedAt, "expected cached result reused within TTL")
}

func TestMiner_InvalidateForcesRerun(t *testing.T) {
	dir := newRepoWithCoChanges(t)
	m := NewMiner(dir, DefaultConfig())

	_, err := m.TopCouplings(dir, graph.FileID("a.go"), nil, 5)
	require.NoError(t, err)
	require.False(t, m.cachedAt.IsZero())

	m.Invalidate()
	require.True(t, m.cachedAt.IsZero())
}

func TestMiner_AllCouplingsMatchesS5(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init")
	writeAndCommit(t, dir, "1", map[string]string{"A.go": "v1", "B.go": "v1"})
	writeAndCommit(t, dir, "2", map[string]string{"A.go": "v2", "B.go": "v2"})
	writeAndCommit(t, dir, "3", map[string]string{"A.go": "v3", "B.go": "v3"})
	writeAndCommit(t, dir, "4", map[string]string{"A.go": "v4", "C.go": "v1"})

	m := NewMiner(dir, DefaultConfig())
	pairs := m.AllCouplings(context.Background())

	require.Len(t, pairs, 1)
	require.Equal(t, graph.FileID("A.go"), pairs[0].FileA)
	require.Equal(t, graph.FileID("B.go"), pairs[0].FileB)
	require.Equal(t, 3, pairs[0].CoChangeCount)
	require.InDelta(t, 0.75, pairs[0].Confidence, 0.0001)
}

// TestMiner_TopCouplingsThroughRealGraph drives TopCouplings the way
// production code actually calls it: via AnalyseImpactWithCoupling, with
// the absolute graph.FileIDs a real build produces rather than the
// repo-relative literals the other TopCouplings tests use directly.
func TestMiner_TopCouplingsThroughRealGraph(t *testing.T) {
	dir := newRepoWithCoChanges(t)

	aAbs := graph.FileID(graph.Normalize(filepath.Join(dir, "a.go")))
	bAbs := graph.FileID(graph.Normalize(filepath.Join(dir, "b.go")))
	cAbs := graph.FileID(graph.Normalize(filepath.Join(dir, "c.go")))

	g := graph.NewGraph(dir, []string{dir}, []graph.Language{graph.LangGo})
	store := graph.NewStore(g)
	store.Mutate(func(g *graph.Graph) {
		graph.AddFileNode(g, aAbs)
		graph.AddFileNode(g, bAbs)
		graph.AddFileNode(g, cAbs)
	})

	m := NewMiner(dir, DefaultConfig())
	cache := memo.New(100)

	result, err := impact.AnalyseImpactWithCoupling(store, nil, cache, aAbs, m, dir)
	require.NoError(t, err)
	require.Len(t, result.Couplings, 1)
	require.Equal(t, bAbs, result.Couplings[0].OtherFile)
	require.Equal(t, 3, result.Couplings[0].CoChangeCount)
	require.InDelta(t, 1.0, result.Couplings[0].Confidence, 0.0001)
}

func TestNonSourcePattern_DropsLockAndMinifiedFiles(t *testing.T) {
	require.True(t, nonSourcePattern.MatchString("yarn.lock"))
	require.True(t, nonSourcePattern.MatchString("bundle.min.js"))
	require.True(t, nonSourcePattern.MatchString("types.d.ts"))
	require.False(t, nonSourcePattern.MatchString("main.go"))
}
