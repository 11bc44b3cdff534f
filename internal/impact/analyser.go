// Package impact computes the blast radius of a change to a file: which
// other files directly or transitively depend on it, how risky that
// change is, and (SCC-aware) how many hops away each dependent sits.
package impact

import (
	"log"
	"sort"
	"time"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/memo"
)

// RiskLevel classifies how disruptive a change to a file is likely to be,
// purely as a function of how many files it reaches.
type RiskLevel string

const (
	RiskNone   RiskLevel = "NONE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func classifyRisk(totalImpacted int) RiskLevel {
	switch {
	case totalImpacted >= 10:
		return RiskHigh
	case totalImpacted >= 5:
		return RiskMedium
	case totalImpacted >= 1:
		return RiskLow
	default:
		return RiskNone
	}
}

// CouplingHint is the subset of a change-coupling result the analyser
// attaches to a Result when the caller opts into coupling augmentation.
// It is declared here, not imported from internal/coupling, because
// coupling augmentation is optional enrichment the analyser depends on
// only through this interface.
type CouplingHint struct {
	OtherFile     graph.FileID `json:"otherFile"`
	Confidence    float64      `json:"confidence"`
	CoChangeCount int          `json:"coChangeCount"`
}

// CouplingSource is satisfied by internal/coupling.Miner. Errors from it
// are logged and swallowed by AnalyseImpactWithCoupling — coupling retrieval is
// optional enrichment, never a reason to fail an impact query.
type CouplingSource interface {
	TopCouplings(projectRoot string, file graph.FileID, excludeAdjacent map[graph.FileID]bool, limit int) ([]CouplingHint, error)
}

// Result is the output of an impact query.
type Result struct {
	FilePath             graph.FileID         `json:"filePath"`
	RelativePath         string               `json:"relativePath"`
	RiskLevel            RiskLevel            `json:"riskLevel"`
	DirectDependents     []graph.FileID       `json:"directDependents"`
	TransitiveDependents []graph.FileID       `json:"transitiveDependents"`
	TotalImpacted        int                  `json:"totalImpacted"`
	CascadeLevels        map[graph.FileID]int `json:"cascadeLevels,omitempty"`
	CircularCluster      []graph.FileID       `json:"circularCluster,omitempty"`
	SCCCount             int                  `json:"sccCount,omitempty"`
	CyclicSCCCount       int                  `json:"cyclicSccCount,omitempty"`
	FromCache            bool                 `json:"fromCache"`
	Couplings            []CouplingHint       `json:"couplings,omitempty"`
}

// AnalyseImpact answers "what breaks if f changes." It consults cache
// first (fast path); on a miss it runs an SCC-aware reverse BFS, or plain
// reverse BFS if scc is nil, then memoises the result. f not being a known
// file in store is reported as *FileNotInGraphError, never a panic.
func AnalyseImpact(store *graph.Store, scc *graph.SCCResult, cache *memo.Cache, f graph.FileID) (*Result, error) {
	if !store.Has(f) {
		return nil, &FileNotInGraphError{File: f}
	}

	if entry, ok := cache.Get(f); ok {
		return reconstituteFromCache(store, f, entry), nil
	}

	var result *Result
	store.View(func(g *graph.Graph) {
		if scc != nil {
			result = sccAwareImpact(g, scc, f)
		} else {
			result = plainReverseBFS(g, f)
		}
	})

	cache.Set(f, memo.Entry{
		ImpactSet:       append(append([]graph.FileID{}, result.DirectDependents...), result.TransitiveDependents...),
		DirectCount:     len(result.DirectDependents),
		TransitiveCount: len(result.TransitiveDependents),
		RiskLevel:       string(result.RiskLevel),
		CascadeLevels:   result.CascadeLevels,
		ComputedAt:      time.Now(),
	})

	return result, nil
}

// AnalyseImpactWithCoupling behaves like AnalyseImpact, then attaches up to
// five highest-confidence couplings whose other side is not already a
// forward or reverse neighbour of f — hidden-dependency enrichment only.
// Coupling retrieval errors are logged and swallowed: this augmentation is
// optional and must never fail the underlying impact query.
func AnalyseImpactWithCoupling(store *graph.Store, scc *graph.SCCResult, cache *memo.Cache, f graph.FileID, source CouplingSource, projectRoot string) (*Result, error) {
	result, err := AnalyseImpact(store, scc, cache, f)
	if err != nil || source == nil {
		return result, err
	}

	adjacent := make(map[graph.FileID]bool)
	store.View(func(g *graph.Graph) {
		for _, d := range g.Forward[f] {
			adjacent[d] = true
		}
		for _, d := range g.Reverse[f] {
			adjacent[d] = true
		}
	})

	hints, err := source.TopCouplings(projectRoot, f, adjacent, 5)
	if err != nil {
		log.Printf("impact: coupling augmentation failed for %s: %v", f, err)
		return result, nil
	}
	result.Couplings = hints
	return result, nil
}

func reconstituteFromCache(store *graph.Store, f graph.FileID, entry memo.Entry) *Result {
	var direct []graph.FileID
	var relPath string
	store.View(func(g *graph.Graph) {
		direct = append(direct, g.Reverse[f]...)
		relPath = g.RelativePath(f)
	})

	directSet := make(map[graph.FileID]bool, len(direct))
	for _, d := range direct {
		directSet[d] = true
	}
	transitive := make([]graph.FileID, 0, len(entry.ImpactSet))
	for _, f := range entry.ImpactSet {
		if !directSet[f] {
			transitive = append(transitive, f)
		}
	}

	return &Result{
		FilePath:             f,
		RelativePath:         relPath,
		RiskLevel:            RiskLevel(entry.RiskLevel),
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		TotalImpacted:        len(entry.ImpactSet),
		CascadeLevels:        entry.CascadeLevels,
		FromCache:            true,
	}
}

// sccAwareImpact implements spec's slow path: BFS over the condensed
// reverse graph starting at f's own SCC, labelling each visited SCC with
// its distance, then expanding back to files.
func sccAwareImpact(g *graph.Graph, scc *graph.SCCResult, f graph.FileID) *Result {
	c, ok := scc.NodeToComponent[f]
	if !ok {
		// f is in the live graph but missing from a stale SCC snapshot;
		// degrade to the plain BFS rather than fail the query.
		return plainReverseBFS(g, f)
	}
	cyclic := scc.Condensed[c].IsCyclic

	levelOf := map[int]int{c: 0}
	queue := []int{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, pred := range scc.CondRev[cur] {
			if _, seen := levelOf[pred]; !seen {
				levelOf[pred] = levelOf[cur] + 1
				queue = append(queue, pred)
			}
		}
	}

	cascadeLevels := make(map[graph.FileID]int)
	var circularCluster []graph.FileID
	if cyclic {
		for _, other := range scc.Condensed[c].Files {
			if other == f {
				continue
			}
			cascadeLevels[other] = 0
			circularCluster = append(circularCluster, other)
		}
	}
	for compIdx, level := range levelOf {
		if compIdx == c || level == 0 {
			continue
		}
		for _, file := range scc.Condensed[compIdx].Files {
			cascadeLevels[file] = level
		}
	}

	directSet := make(map[graph.FileID]bool)
	var direct []graph.FileID
	for _, d := range g.Reverse[f] {
		if !directSet[d] {
			directSet[d] = true
			direct = append(direct, d)
		}
	}
	for _, other := range circularCluster {
		if !directSet[other] {
			directSet[other] = true
			direct = append(direct, other)
		}
	}

	var transitive []graph.FileID
	for file, level := range cascadeLevels {
		if level == 0 && cyclic {
			continue // already in direct via circularCluster
		}
		if !directSet[file] {
			transitive = append(transitive, file)
		}
	}

	sortFileIDs(direct)
	sortFileIDs(transitive)
	sortFileIDs(circularCluster)

	cyclicCount := 0
	for _, comp := range scc.Condensed {
		if comp.IsCyclic {
			cyclicCount++
		}
	}

	total := len(direct) + len(transitive)
	return &Result{
		FilePath:             f,
		RelativePath:         g.RelativePath(f),
		RiskLevel:            classifyRisk(total),
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		TotalImpacted:        total,
		CascadeLevels:        cascadeLevels,
		CircularCluster:      circularCluster,
		SCCCount:             len(scc.Components),
		CyclicSCCCount:       cyclicCount,
	}
}

// plainReverseBFS is the fallback used when no SCC snapshot is available:
// unweighted BFS over Reverse, direct = distance 1, transitive = the rest.
func plainReverseBFS(g *graph.Graph, f graph.FileID) *Result {
	visited := map[graph.FileID]bool{f: true}
	var direct, transitive []graph.FileID

	frontier := g.Reverse[f]
	level := 1
	for len(frontier) > 0 {
		var next []graph.FileID
		for _, file := range frontier {
			if visited[file] {
				continue
			}
			visited[file] = true
			if level == 1 {
				direct = append(direct, file)
			} else {
				transitive = append(transitive, file)
			}
			next = append(next, g.Reverse[file]...)
		}
		frontier = next
		level++
	}

	sortFileIDs(direct)
	sortFileIDs(transitive)

	total := len(direct) + len(transitive)
	return &Result{
		FilePath:             f,
		RelativePath:         g.RelativePath(f),
		RiskLevel:            classifyRisk(total),
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		TotalImpacted:        total,
	}
}

func sortFileIDs(ids []graph.FileID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// HubFile is one entry of GetHubFiles' ranking.
type HubFile struct {
	File           graph.FileID `json:"file"`
	DependentCount int          `json:"dependentCount"`
	RiskLevel      RiskLevel    `json:"riskLevel"`
}

// GetHubFiles ranks files by in-degree in Reverse, descending, breaking
// ties by path ascending for deterministic output across rebuilds (not
// specified by name upstream; see DESIGN.md's Open Question decisions).
func GetHubFiles(store *graph.Store, topN int) []HubFile {
	var hubs []HubFile
	store.View(func(g *graph.Graph) {
		hubs = make([]HubFile, 0, len(g.Files))
		for f := range g.Files {
			count := len(g.Reverse[f])
			if count == 0 {
				continue
			}
			hubs = append(hubs, HubFile{File: f, DependentCount: count, RiskLevel: classifyRisk(count)})
		}
	})

	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].DependentCount != hubs[j].DependentCount {
			return hubs[i].DependentCount > hubs[j].DependentCount
		}
		return hubs[i].File < hubs[j].File
	})

	if topN > 0 && topN < len(hubs) {
		hubs = hubs[:topN]
	}
	return hubs
}
