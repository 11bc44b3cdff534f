// Package watch maintains an in-memory mirror of every source file's
// content, watches the project's source roots for changes, and turns
// filesystem events into classified ChangeEvents after debouncing.
package watch

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/lang"
)

// ContentCache mirrors abs-path -> current file content for every file the
// language plugins would discover (spec.md §4.G). It is the watcher's sole
// source of "old content" when classifying an event.
type ContentCache struct {
	mu       sync.RWMutex
	content  map[graph.FileID]string
	lines    int
	fileSize int
}

// NewContentCache returns an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{content: make(map[graph.FileID]string)}
}

// LoadInitial reads every file in paths concurrently (bounded, matching
// BuildGraph's batching) and populates the cache. Unreadable files are
// skipped, not fatal.
func (c *ContentCache) LoadInitial(ctx context.Context, paths []string, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 100
	}
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, p := range paths {
		p := p
		eg.Go(func() error {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			c.mu.Lock()
			c.setLocked(graph.Normalize(p), string(data))
			c.mu.Unlock()
			return nil
		})
	}
	return eg.Wait()
}

// Get returns the cached content for f and whether an entry existed.
func (c *ContentCache) Get(f graph.FileID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.content[f]
	return v, ok
}

// Set stores content for f, replacing any prior entry.
func (c *ContentCache) Set(f graph.FileID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(f, content)
}

// setLocked assumes c.mu is already held for writing.
func (c *ContentCache) setLocked(f graph.FileID, content string) {
	if old, ok := c.content[f]; ok {
		c.lines -= countLines(old)
		c.fileSize -= len(old)
	}
	c.content[f] = content
	c.lines += countLines(content)
	c.fileSize += len(content)
}

// Evict drops f from the cache, returning its last known content.
func (c *ContentCache) Evict(f graph.FileID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.content[f]
	if ok {
		delete(c.content, f)
		c.lines -= countLines(old)
		c.fileSize -= len(old)
	}
	return old, ok
}

// Stats reports the cache's current size for diagnostics.
type Stats struct {
	Files int
	Lines int
	Bytes int
}

func (c *ContentCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Files: len(c.content), Lines: c.lines, Bytes: c.fileSize}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

// DiscoverAll enumerates every file the active plugins would walk under
// root, for LoadInitial's caller to pass to it.
func DiscoverAll(root string, plugins []lang.Plugin) []string {
	var out []string
	for _, p := range plugins {
		for _, dir := range p.SourceDirs(root) {
			out = append(out, p.DiscoverFiles(dir)...)
		}
	}
	return out
}
