package watch

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/lang"
	"github.com/dusk-indust/depgraph/internal/update"
)

// DefaultDebounce is the per-path coalescing window (spec.md §4.G).
const DefaultDebounce = 1500 * time.Millisecond

// Updater is the subset of update.Updater the watcher depends on: apply the
// change to the graph before any observer sees it.
type Updater interface {
	Apply(event update.ChangeEvent) *update.IncrementalUpdateResult
}

// Watcher recursively watches a project's source roots, debounces
// per-path events, classifies them against its ContentCache, and emits
// ChangeEvents to subscribers only after the incremental updater has
// already applied the change (spec.md §4.G "Emission").
type Watcher struct {
	root     string
	registry *lang.Registry
	cache    *ContentCache
	updater  Updater
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	timers  map[string]*time.Timer
	done    chan struct{}
	stopped bool

	listenersMu sync.Mutex
	listeners   map[int]func(update.ChangeEvent)
	nextID      int
}

// New constructs a Watcher over root. Call Start to begin watching.
func New(root string, registry *lang.Registry, cache *ContentCache, updater Updater, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:      root,
		registry:  registry,
		cache:     cache,
		updater:   updater,
		debounce:  debounce,
		fsw:       fsw,
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
		listeners: make(map[int]func(update.ChangeEvent)),
	}, nil
}

// Subscribe registers fn to receive every emitted ChangeEvent. The returned
// func unsubscribes.
func (w *Watcher) Subscribe(fn func(update.ChangeEvent)) (unsubscribe func()) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() {
		w.listenersMu.Lock()
		defer w.listenersMu.Unlock()
		delete(w.listeners, id)
	}
}

// Start adds every directory under the source roots of each detected
// language (root itself when none is detected) to the underlying fsnotify
// watcher and begins the event loop in a background goroutine.
func (w *Watcher) Start() error {
	roots := []string{w.root}
	if plugins := w.registry.DetectLanguages(w.root); len(plugins) > 0 {
		roots = nil
		for _, p := range plugins {
			roots = append(roots, p.SourceDirs(w.root)...)
		}
	}
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && lang.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return w.fsw.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	go w.loop()
	return nil
}

// Stop cancels every pending debounce timer and closes the underlying
// fsnotify watcher (spec.md §5 "debounce timers are cancelled and cleared
// on teardown").
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.registry.PluginForFile(ev.Name) == nil {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: fsnotify error: %v", err)
		}
	}
}

// schedule resets the debounce timer for path, coalescing repeated events
// within the window into a single firing.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

// fire classifies path's current state against the content cache, applies
// the change to the graph via the updater, and then notifies subscribers.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	w.mu.Unlock()

	f := graph.Normalize(path)
	event, ok := w.classify(f)
	if !ok {
		return
	}

	w.updater.Apply(event)
	w.emit(event)
}

func (w *Watcher) classify(f graph.FileID) (update.ChangeEvent, bool) {
	data, err := os.ReadFile(f)
	if err != nil {
		old, existed := w.cache.Evict(f)
		if !existed {
			return update.ChangeEvent{}, false
		}
		return update.ChangeEvent{
			FilePath:     f,
			RelativePath: w.relativePath(f),
			Type:         update.Deleted,
			OldContent:   old,
			Diff:         lineDiff(old, ""),
			Timestamp:    timeNow(),
		}, true
	}

	newContent := string(data)
	old, existed := w.cache.Get(f)
	if !existed {
		w.cache.Set(f, newContent)
		return update.ChangeEvent{
			FilePath:     f,
			RelativePath: w.relativePath(f),
			Type:         update.Added,
			NewContent:   newContent,
			Diff:         lineDiff("", newContent),
			Timestamp:    timeNow(),
		}, true
	}
	if old == newContent {
		return update.ChangeEvent{}, false
	}

	w.cache.Set(f, newContent)
	return update.ChangeEvent{
		FilePath:     f,
		RelativePath: w.relativePath(f),
		Type:         update.Modified,
		OldContent:   old,
		NewContent:   newContent,
		Diff:         lineDiff(old, newContent),
		Timestamp:    timeNow(),
	}, true
}

// relativePath renders f relative to the watcher's project root, forward
// slashed, matching graph.Graph.RelativePath's boundary convention
// (spec.md §6). Falls back to f if it isn't under root.
func (w *Watcher) relativePath(f graph.FileID) string {
	rel, err := filepath.Rel(w.root, f)
	if err != nil {
		return f
	}
	return graph.Normalize(rel)
}

func (w *Watcher) emit(event update.ChangeEvent) {
	w.listenersMu.Lock()
	fns := make([]func(update.ChangeEvent), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.listenersMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// timeNow is a seam so tests can observe Timestamp without depending on
// wall-clock ordering of assertions.
var timeNow = time.Now
