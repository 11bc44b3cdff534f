// Package update applies single-file change events to a running graph:
// re-parsing the affected file, diffing its edges, recomputing SCCs, and
// invalidating exactly the memo entries a reverse-transitive closure
// touches.
package update

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/lang"
	"github.com/dusk-indust/depgraph/internal/memo"
)

// Updater is the sole mutator of a Store's Graph after the initial build
// (spec.md §4.B/§4.F). It also owns the graph's current SCC snapshot,
// since every mutation that changes edges must recompute it.
type Updater struct {
	store    *graph.Store
	registry *lang.Registry
	cache    *memo.Cache

	mu        sync.Mutex
	resolver  *graph.Resolver
	scc       *graph.SCCResult
	listeners map[int]func(GraphUpdatedNotification)
	nextID    int
}

// NewUpdater wires an Updater to the store it mutates, the plugin registry
// it re-parses with, the resolver built alongside the initial graph, the
// memo cache it invalidates, and the SCC snapshot BuildGraph produced.
func NewUpdater(store *graph.Store, registry *lang.Registry, resolver *graph.Resolver, cache *memo.Cache, initialSCC *graph.SCCResult) *Updater {
	return &Updater{
		store:     store,
		registry:  registry,
		cache:     cache,
		resolver:  resolver,
		scc:       initialSCC,
		listeners: make(map[int]func(GraphUpdatedNotification)),
	}
}

// SCC returns the most recently computed SCC snapshot.
func (u *Updater) SCC() *graph.SCCResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.scc
}

// SetResolver swaps the resolver used for future re-parses, e.g. for a
// fresh Resolver built over a new file set.
func (u *Updater) SetResolver(r *graph.Resolver) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resolver = r
}

func (u *Updater) currentResolver() *graph.Resolver {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.resolver
}

// Subscribe registers fn to be called after every change whose edge set
// is non-empty. The returned func unsubscribes.
func (u *Updater) Subscribe(fn func(GraphUpdatedNotification)) (unsubscribe func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := u.nextID
	u.nextID++
	u.listeners[id] = fn
	return func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		delete(u.listeners, id)
	}
}

func (u *Updater) notify(n GraphUpdatedNotification) {
	u.mu.Lock()
	fns := make([]func(GraphUpdatedNotification), 0, len(u.listeners))
	for _, fn := range u.listeners {
		fns = append(fns, fn)
	}
	u.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// Apply implements applyFileChange (§6): it dispatches on event.Type and
// returns the edge delta plus the files whose memo entries were
// invalidated. Parsing failures (no plugin claims the extension, or the
// plugin can't make sense of the content) are logged and swallowed —
// never returned as an error, matching the §6 operation table.
func (u *Updater) Apply(event ChangeEvent) *IncrementalUpdateResult {
	if event.Type == Deleted {
		return u.applyRemoved(event.FilePath)
	}
	return u.applyUpsert(event.FilePath, event.NewContent)
}

// applyUpsert handles Added and Modified events. For a file not yet in the
// graph it inserts the node and parses only that file's own imports: files
// that already import it are not re-scanned, so their edges to it appear
// only after a full rebuild.
func (u *Updater) applyUpsert(f graph.FileID, content string) *IncrementalUpdateResult {
	plugin := u.registry.PluginForFile(f)
	if plugin == nil {
		log.Printf("update: no plugin claims %s, dropping change", f)
		return &IncrementalUpdateResult{}
	}

	resolver := u.currentResolver()
	newDeps := u.resolveDeps(plugin, resolver, f, content)

	var result IncrementalUpdateResult
	u.store.Mutate(func(g *graph.Graph) {
		filtered := make([]graph.FileID, 0, len(newDeps))
		for _, d := range newDeps {
			if g.Has(d) {
				filtered = append(filtered, d)
			}
		}
		if !g.Has(f) {
			graph.AddFileNode(g, f)
		}
		added, removed := graph.SetForwardEdges(g, f, filtered)
		result.AddedEdges = added
		result.RemovedEdges = removed
		result.EdgesChanged = len(added) > 0 || len(removed) > 0
	})

	if result.EdgesChanged {
		u.commitGraphChange(f, &result)
	}
	return &result
}

func (u *Updater) applyRemoved(f graph.FileID) *IncrementalUpdateResult {
	var closure []graph.FileID
	u.store.View(func(g *graph.Graph) {
		closure = reverseTransitiveClosure(g, f)
	})

	var result IncrementalUpdateResult
	u.store.Mutate(func(g *graph.Graph) {
		if !g.Has(f) {
			return
		}
		fwd := append([]graph.FileID{}, g.Forward[f]...)
		rev := append([]graph.FileID{}, g.Reverse[f]...)
		result.RemovedEdges = append(fwd, rev...)
		result.EdgesChanged = len(fwd) > 0 || len(rev) > 0
		graph.RemoveFileNode(g, f)
	})

	result.AffectedFiles = closure
	if result.EdgesChanged {
		invalidated := u.cache.Invalidate(closure)
		log.Printf("update: removed %s, invalidated %d memo entries", f, invalidated)

		var newSCC *graph.SCCResult
		u.store.View(func(g *graph.Graph) { newSCC = graph.ComputeSCC(g) })
		u.mu.Lock()
		u.scc = newSCC
		u.mu.Unlock()

		u.notify(GraphUpdatedNotification{File: f, Result: result, SCC: newSCC})
	}
	return &result
}

// commitGraphChange implements §4.F's post-mutation steps for Added and
// Modified: recompute S in full, invalidate D using the reverse-transitive
// closure of f computed on the graph AFTER insertion, and notify
// subscribers. Called only when the edge set actually changed.
func (u *Updater) commitGraphChange(f graph.FileID, result *IncrementalUpdateResult) {
	var closure []graph.FileID
	var newSCC *graph.SCCResult
	u.store.View(func(g *graph.Graph) {
		closure = reverseTransitiveClosure(g, f)
		newSCC = graph.ComputeSCC(g)
	})

	result.AffectedFiles = closure
	invalidated := u.cache.Invalidate(closure)
	log.Printf("update: %s changed, invalidated %d memo entries", f, invalidated)

	u.mu.Lock()
	u.scc = newSCC
	u.mu.Unlock()

	u.notify(GraphUpdatedNotification{File: f, Result: *result, SCC: newSCC})
}

// resolveDeps re-parses content for raw imports, rewrites TypeScript path
// aliases the same way build.go does, and resolves each specifier against
// resolver. A nil resolver (no prior build) yields no edges.
func (u *Updater) resolveDeps(plugin lang.Plugin, resolver *graph.Resolver, f graph.FileID, content string) []graph.FileID {
	if resolver == nil {
		return nil
	}

	root := u.store.ProjectRoot()
	sourceRel, err := filepath.Rel(root, f)
	if err != nil {
		sourceRel = f
	}
	sourceRel = graph.Normalize(sourceRel)

	raw := plugin.ParseImports(f, content)
	rewriter, hasAliases := plugin.(graph.AliasRewriter)

	relImports := make([]graph.Import, len(raw))
	for i, imp := range raw {
		target := imp.TargetID
		if hasAliases {
			if baseURLRel, ok := rewriter.RewriteAlias(root, target); ok {
				if relFromSource, err := filepath.Rel(filepath.Dir(sourceRel), baseURLRel); err == nil {
					target = "./" + graph.Normalize(relFromSource)
				}
			}
		}
		relImports[i] = graph.Import{SourceID: sourceRel, TargetID: target}
	}

	resolvedRel := resolver.ResolveAll(relImports, plugin.ID())
	deps := make([]graph.FileID, 0, len(resolvedRel))
	for _, rel := range resolvedRel {
		deps = append(deps, graph.Normalize(filepath.Join(root, rel)))
	}
	return deps
}

// reverseTransitiveClosure returns f and every file that (transitively)
// imports it, via BFS over Reverse.
func reverseTransitiveClosure(g *graph.Graph, f graph.FileID) []graph.FileID {
	visited := map[graph.FileID]bool{f: true}
	queue := []graph.FileID{f}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, importer := range g.Reverse[cur] {
			if !visited[importer] {
				visited[importer] = true
				queue = append(queue, importer)
			}
		}
	}
	out := make([]graph.FileID, 0, len(visited))
	for f := range visited {
		out = append(out, f)
	}
	return out
}
