// Package session owns the full set of mutable state for one open
// project: the graph store, its SCC snapshot, the memo cache, the content
// cache and filesystem watcher, and the change-coupling miner. spec.md §9
// calls this out explicitly as a pattern needing re-architecture in a
// systems language: the "single process-wide caches" a garbage-collected
// reference implementation gets away with become one explicit Session
// value here, passed by reference to every caller, with teardown as a
// deterministic destructor rather than letting a module-level variable go
// out of scope.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dusk-indust/depgraph/internal/config"
	"github.com/dusk-indust/depgraph/internal/coupling"
	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/impact"
	"github.com/dusk-indust/depgraph/internal/lang"
	"github.com/dusk-indust/depgraph/internal/memo"
	"github.com/dusk-indust/depgraph/internal/update"
	"github.com/dusk-indust/depgraph/internal/watch"
)

// Session owns G (via Store), S (via Updater), D (the memo cache), the
// coupling cache, and the watcher/content-cache pair that feeds
// incremental updates (spec.md §5 "Shared-resource policy"). Exactly one
// Session is open per project at a time; switching projects means closing
// one Session and Opening another rather than mutating this one's root.
type Session struct {
	mu sync.Mutex

	projectRoot string
	cfg         config.ProjectConfig
	registry    *lang.Registry

	store   *graph.Store
	updater *update.Updater
	memo    *memo.Cache
	cache   *watch.ContentCache
	watcher *watch.Watcher
	miner   *coupling.Miner
	closed  bool

	changeListenersMu sync.Mutex
	changeListeners   map[int]func(update.ChangeEvent)
	nextChangeID      int
}

// Open implements buildGraph (spec.md §6) as a session constructor: it
// detects active language plugins, builds G and S from scratch, and wires
// the memo cache, content cache, and coupling miner a long-lived session
// needs beyond the one-shot build. It does not start the filesystem
// watcher — call StartWatching for that, since a one-shot query caller
// has no use for a background goroutine.
func Open(ctx context.Context, projectRoot string, cfg config.ProjectConfig) (*Session, error) {
	s := &Session{
		projectRoot:     graph.Normalize(projectRoot),
		cfg:             cfg,
		registry:        lang.NewRegistry(),
		changeListeners: make(map[int]func(update.ChangeEvent)),
	}
	if err := s.buildGraph(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// buildGraph performs the actual build-from-scratch work shared by Open
// and Rebuild: detect plugins, build G and its initial S, and replace the
// memo cache, content cache, and coupling miner wholesale. Open calls this
// before s is published, so no lock is needed there; Rebuild calls it
// while already holding s.mu.
func (s *Session) buildGraph(ctx context.Context) error {
	active := s.registry.DetectLanguages(s.projectRoot)

	result, err := graph.BuildGraph(ctx, s.projectRoot, asLanguagePlugins(active), graph.BuildOptions{
		MaxFiles:    s.cfg.MaxFiles,
		Concurrency: s.cfg.BuildConcurrency,
	})
	if err != nil {
		return fmt.Errorf("session: build graph: %w", err)
	}

	store := graph.NewStore(result.Graph)
	memoCache := memo.New(s.cfg.MemoMaxSize)
	updater := update.NewUpdater(store, s.registry, result.Resolver, memoCache, result.SCC)
	miner := coupling.NewMiner(s.projectRoot, couplingConfigFrom(s.cfg.Coupling))

	cache := watch.NewContentCache()
	paths := watch.DiscoverAll(s.projectRoot, active)
	if err := cache.LoadInitial(ctx, paths, s.cfg.BuildConcurrency); err != nil {
		return fmt.Errorf("session: load content cache: %w", err)
	}

	s.store = store
	s.memo = memoCache
	s.updater = updater
	s.miner = miner
	s.cache = cache
	return nil
}

// Rebuild implements rebuildGraph (spec.md §6): stops the running watcher
// (if any) before touching anything it depends on, clears every plugin's
// own caches (tsconfig path aliases), invalidates the coupling cache, and
// rebuilds G, S, D, and the content cache from scratch against the same
// project root. If the watcher was running, it is restarted against the
// fresh state once rebuild completes.
func (s *Session) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasWatching := s.watcher != nil
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			return fmt.Errorf("session: stop watcher before rebuild: %w", err)
		}
		s.watcher = nil
	}

	clearPluginCaches(s.registry)
	if s.miner != nil {
		s.miner.Invalidate()
	}

	if err := s.buildGraph(ctx); err != nil {
		return err
	}
	if wasWatching {
		return s.startWatchingLocked()
	}
	return nil
}

// StartWatching begins watching the project's source roots for changes.
// Settled changes are applied to the graph by the watcher itself (it holds
// the Updater directly) and then forwarded to this Session's own
// subscribers via SubscribeChanges. Idempotent: a second call is a no-op.
func (s *Session) StartWatching() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startWatchingLocked()
}

func (s *Session) startWatchingLocked() error {
	if s.watcher != nil {
		return nil
	}
	w, err := watch.New(s.projectRoot, s.registry, s.cache, s.updater, s.cfg.Debounce())
	if err != nil {
		return fmt.Errorf("session: start watcher: %w", err)
	}
	w.Subscribe(s.broadcastChange)
	if err := w.Start(); err != nil {
		return fmt.Errorf("session: start watcher: %w", err)
	}
	s.watcher = w
	return nil
}

// StopWatching stops the filesystem watcher without tearing down the rest
// of the session. A no-op if no watcher is running.
func (s *Session) StopWatching() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Stop()
	s.watcher = nil
	return err
}

// Close implements the deterministic-destructor teardown spec.md §9
// demands in place of nullifying a module-level variable: it stops the
// watcher, cancelling every pending debounce timer. The graph, memo cache,
// content cache, and coupling cache have nothing else to release and are
// simply dropped with the Session. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Stop()
	s.watcher = nil
	return err
}

// snapshot returns the current store/updater/memo/miner pointers under
// s.mu, so a query in flight during a Rebuild's pointer swap sees either
// wholly the old generation or wholly the new one, never a mix.
func (s *Session) snapshot() (*graph.Store, *update.Updater, *memo.Cache, *coupling.Miner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store, s.updater, s.memo, s.miner
}

// AnalyseImpact implements analyseImpact (spec.md §6). includeCoupling
// opts into the coupling-augmented path (§4.E), attaching up to five
// highest-confidence couplings that aren't already visible as graph
// edges.
func (s *Session) AnalyseImpact(f graph.FileID, includeCoupling bool) (*impact.Result, error) {
	store, updater, memoCache, miner := s.snapshot()
	scc := updater.SCC()
	if includeCoupling {
		return impact.AnalyseImpactWithCoupling(store, scc, memoCache, f, miner, s.projectRoot)
	}
	return impact.AnalyseImpact(store, scc, memoCache, f)
}

// GetHubFiles implements getHubFiles (spec.md §6).
func (s *Session) GetHubFiles(topN int) []impact.HubFile {
	store, _, _, _ := s.snapshot()
	return impact.GetHubFiles(store, topN)
}

// ApplyFileChange implements applyFileChange (spec.md §6) for a change
// event supplied directly by the caller rather than detected by this
// session's own watcher (e.g. a CLI subcommand driving one event by hand,
// or a test). Watcher-detected changes already reach the Updater before
// this Session ever sees them; this path and the watcher path both funnel
// into broadcastChange so SubscribeChanges listeners see every change
// exactly once regardless of its source.
func (s *Session) ApplyFileChange(event update.ChangeEvent) *update.IncrementalUpdateResult {
	_, updater, _, _ := s.snapshot()
	result := updater.Apply(event)
	s.broadcastChange(event)
	return result
}

// SubscribeChanges implements subscribeChanges (spec.md §6): fn is called
// for every ChangeEvent, whether detected by the watcher or applied
// directly via ApplyFileChange. The returned func unsubscribes.
func (s *Session) SubscribeChanges(fn func(update.ChangeEvent)) (unsubscribe func()) {
	s.changeListenersMu.Lock()
	defer s.changeListenersMu.Unlock()
	id := s.nextChangeID
	s.nextChangeID++
	s.changeListeners[id] = fn
	return func() {
		s.changeListenersMu.Lock()
		defer s.changeListenersMu.Unlock()
		delete(s.changeListeners, id)
	}
}

func (s *Session) broadcastChange(event update.ChangeEvent) {
	s.changeListenersMu.Lock()
	fns := make([]func(update.ChangeEvent), 0, len(s.changeListeners))
	for _, fn := range s.changeListeners {
		fns = append(fns, fn)
	}
	s.changeListenersMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// SubscribeGraphUpdates implements subscribeGraphUpdates (spec.md §6),
// delegating directly to the current Updater's own listener registry.
func (s *Session) SubscribeGraphUpdates(fn func(update.GraphUpdatedNotification)) (unsubscribe func()) {
	_, updater, _, _ := s.snapshot()
	return updater.Subscribe(fn)
}

// GetCouplings implements getCouplings (spec.md §6/§4.H): every
// project-wide pair clearing both thresholds, not scoped to one file.
// Empty on a missing version-control context, never an error.
func (s *Session) GetCouplings(ctx context.Context) []coupling.Pair {
	_, _, _, miner := s.snapshot()
	return miner.AllCouplings(ctx)
}

// GraphStore returns the current Store, for callers (export subcommands,
// diagnostics) that need direct read access beyond the §6 operation
// table. Callers must not retain it across a Rebuild.
func (s *Session) GraphStore() *graph.Store {
	store, _, _, _ := s.snapshot()
	return store
}

// SCC returns the current SCC snapshot, for the same direct-access callers
// GraphStore serves.
func (s *Session) SCC() *graph.SCCResult {
	_, updater, _, _ := s.snapshot()
	return updater.SCC()
}

// Stats returns the current graph's file and edge counts, for a build
// subcommand to report after the initial build or a rebuild.
func (s *Session) Stats() graph.Stats {
	store, _, _, _ := s.snapshot()
	return store.Stats()
}

// MemoCacheStats implements memoCacheStats (spec.md §6).
func (s *Session) MemoCacheStats() memo.Stats {
	_, _, memoCache, _ := s.snapshot()
	return memoCache.Stats()
}

// aliasCacheClearer is implemented by plugins that keep their own
// per-project cache (currently only TypeScriptPlugin's tsconfig path
// aliases). Declared locally so internal/session doesn't need a
// per-plugin type switch.
type aliasCacheClearer interface {
	ClearAliasCache()
}

func clearPluginCaches(registry *lang.Registry) {
	for _, p := range registry.All() {
		if c, ok := p.(aliasCacheClearer); ok {
			c.ClearAliasCache()
		}
	}
}

// asLanguagePlugins narrows []lang.Plugin to []graph.LanguagePlugin: every
// lang.Plugin already satisfies the narrower interface structurally, but
// Go requires the element-wise conversion since the slice types differ.
func asLanguagePlugins(plugins []lang.Plugin) []graph.LanguagePlugin {
	out := make([]graph.LanguagePlugin, len(plugins))
	for i, p := range plugins {
		out[i] = p
	}
	return out
}

// couplingConfigFrom adapts config.CouplingConfig (a YAML-facing copy of
// coupling.Config's tunables, kept separate so internal/config never
// imports internal/coupling) into the real thing. The TTL is converted
// from seconds; Timeout has no config field and is left zero. Zero fields fall back to
// coupling.DefaultConfig's values via Config.withDefaults.
func couplingConfigFrom(c config.CouplingConfig) coupling.Config {
	return coupling.Config{
		MaxCommits:        c.MaxCommits,
		MinSupport:        c.MinSupport,
		MinConfidence:     c.MinConfidence,
		MaxFilesPerCommit: c.MaxFilesPerCommit,
		CacheTTL:          c.CacheTTL(),
	}
}
