// Package memo caches impact-analysis results keyed by file, with an
// eager reverse index so invalidation touches only affected keys.
package memo

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// DefaultMaxSize is the cache capacity used when a session doesn't override
// it via config.
const DefaultMaxSize = 500

// Entry is a memoised impact result for one file.
type Entry struct {
	ImpactSet       []graph.FileID
	DirectCount     int
	TransitiveCount int
	RiskLevel       string
	CascadeLevels   map[graph.FileID]int
	ComputedAt      time.Time
}

// Stats is the diagnostic snapshot exposed by memoCacheStats().
type Stats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Cache is an LRU cache of Entry keyed by graph.FileID, backed by
// hashicorp/golang-lru/v2 for recency and eviction, plus a hand-maintained
// reverse index (file -> the memo keys whose impact set mentions it) that
// the library has no notion of. All methods lock c.mu; onEvicted is only
// ever invoked while that lock is already held by the caller that
// triggered the eviction, so it must not re-lock.
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[graph.FileID, Entry]
	reverse map[graph.FileID]map[graph.FileID]struct{}
	hits    int64
	misses  int64
}

// New builds a Cache with the given capacity. maxSize <= 0 uses
// DefaultMaxSize.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache{reverse: make(map[graph.FileID]map[graph.FileID]struct{})}
	l, err := lru.NewWithEvict[graph.FileID, Entry](maxSize, c.onEvicted)
	if err != nil {
		// Only invalid (<=0) size returns an error, and that's excluded above.
		panic("memo: unreachable lru.NewWithEvict error: " + err.Error())
	}
	c.lru = l
	return c
}

// Get returns the entry for key, bumping recency on a hit.
func (c *Cache) Get(key graph.FileID) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return entry, ok
}

// Set stores entry for key, replacing any previous entry's reverse-index
// contributions first, then indexing key and every file in entry.ImpactSet.
func (c *Cache) Set(key graph.FileID, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.lru.Peek(key); ok {
		c.unindex(key, old)
	}
	c.lru.Add(key, entry) // may evict another key, cleaned up via onEvicted
	c.index(key, entry)
}

// Invalidate removes every key whose stored entry is affected by a change
// to one of files, returning the count removed. O(affected).
func (c *Cache) Invalidate(files []graph.FileID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	affected := make(map[graph.FileID]struct{})
	for _, f := range files {
		for k := range c.reverse[f] {
			affected[k] = struct{}{}
		}
	}
	for k := range affected {
		c.lru.Remove(k) // triggers onEvicted, which unindexes k
	}
	return len(affected)
}

// InvalidateAll clears every entry and the reverse index but preserves the
// hit/miss counters, which are diagnostic rather than content state.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge() // fires onEvicted per entry, but reverse is about to be reset anyway
	c.reverse = make(map[graph.FileID]map[graph.FileID]struct{})
}

// Stats returns the current size and cumulative hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{Size: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}

// onEvicted runs whenever the underlying lru.Cache drops key, whether from
// capacity eviction or an explicit Remove — both are "this key is gone,
// clean up its reverse-index footprint."
func (c *Cache) onEvicted(key graph.FileID, entry Entry) {
	c.unindex(key, entry)
}

func (c *Cache) index(key graph.FileID, entry Entry) {
	c.addReverse(key, key)
	for _, f := range entry.ImpactSet {
		c.addReverse(f, key)
	}
}

func (c *Cache) unindex(key graph.FileID, entry Entry) {
	c.removeReverse(key, key)
	for _, f := range entry.ImpactSet {
		c.removeReverse(f, key)
	}
}

func (c *Cache) addReverse(file, key graph.FileID) {
	set := c.reverse[file]
	if set == nil {
		set = make(map[graph.FileID]struct{})
		c.reverse[file] = set
	}
	set[key] = struct{}{}
}

func (c *Cache) removeReverse(file, key graph.FileID) {
	set := c.reverse[file]
	if set == nil {
		return
	}
	delete(set, key)
	if len(set) == 0 {
		delete(c.reverse, file)
	}
}
