// Package coupling mines git history for change coupling: pairs of files
// that tend to be modified together, independent of any import relationship
// the dependency graph can see (spec.md §4.H).
package coupling

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/impact"
)

// Config tunes the miner. Zero-value fields fall back to their defaults in
// NewMiner.
type Config struct {
	MaxCommits        int
	MinSupport        int
	MinConfidence     float64
	MaxFilesPerCommit int
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// DefaultConfig matches spec.md §4.H's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxCommits:        500,
		MinSupport:        3,
		MinConfidence:     0.3,
		MaxFilesPerCommit: 20,
		CacheTTL:          5 * time.Minute,
		Timeout:           10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxCommits <= 0 {
		c.MaxCommits = d.MaxCommits
	}
	if c.MinSupport <= 0 {
		c.MinSupport = d.MinSupport
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = d.MinConfidence
	}
	if c.MaxFilesPerCommit <= 0 {
		c.MaxFilesPerCommit = d.MaxFilesPerCommit
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// pairKey is the order-independent canonical key for an unordered file
// pair, per spec.md §4.H.
type pairKey struct{ a, b string }

func makePairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Miner mines one repository's git history, caching the result for CacheTTL.
type Miner struct {
	repoRoot string
	cfg      Config

	mu            sync.Mutex
	cachedAt      time.Time
	fileChangeCnt map[string]int
	pairCnt       map[pairKey]int
}

// NewMiner returns a Miner rooted at repoRoot.
func NewMiner(repoRoot string, cfg Config) *Miner {
	return &Miner{repoRoot: repoRoot, cfg: cfg.withDefaults()}
}

// nonSourcePattern matches paths the spec says to drop before counting:
// lock files, minified assets, images, fonts, archives, source maps, and
// declaration-only files.
var nonSourcePattern = regexp.MustCompile(`(?i)(\.lock$|\.min\.\w+$|\.(png|jpe?g|gif|svg|ico|webp)$|\.(woff2?|ttf|eot)$|\.(zip|tar|gz|7z)$|\.map$|\.d\.ts$)`)

// Invalidate drops the cached result, forcing the next mine to re-query
// git. Called on graph rebuild (spec.md §4.H "Caching").
func (m *Miner) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cachedAt = time.Time{}
}

// mine runs (or reuses a cached run of) git log and returns the current
// per-file change counters and per-pair co-change counters. A missing git
// binary or a repository with no history yields empty maps, never an
// error, per spec.md §4.H.
func (m *Miner) mine(ctx context.Context) (map[string]int, map[pairKey]int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cachedAt.IsZero() && time.Since(m.cachedAt) < m.cfg.CacheTTL {
		return m.fileChangeCnt, m.pairCnt
	}

	fileChangeCnt, pairCnt := m.run(ctx)
	m.fileChangeCnt = fileChangeCnt
	m.pairCnt = pairCnt
	m.cachedAt = time.Now()
	return fileChangeCnt, pairCnt
}

func (m *Miner) run(ctx context.Context) (map[string]int, map[pairKey]int) {
	fileChangeCnt := make(map[string]int)
	pairCnt := make(map[pairKey]int)

	commits, err := m.commitFileLists(ctx)
	if err != nil {
		return fileChangeCnt, pairCnt // missing VCS context: empty, not an error
	}

	for _, files := range commits {
		kept := make([]string, 0, len(files))
		for _, f := range files {
			if f == "" || nonSourcePattern.MatchString(f) {
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) < 2 || len(kept) > m.cfg.MaxFilesPerCommit {
			// Excluded from pairing. A lone single-file commit still counts
			// toward its file's change counter; a commit with more than
			// MaxFilesPerCommit files is dropped entirely (spec.md §4.H).
			if len(kept) == 1 {
				fileChangeCnt[kept[0]]++
			}
			continue
		}
		for _, f := range kept {
			fileChangeCnt[f]++
		}
		for i := 0; i < len(kept); i++ {
			for j := i + 1; j < len(kept); j++ {
				pairCnt[makePairKey(kept[i], kept[j])]++
			}
		}
	}
	return fileChangeCnt, pairCnt
}

// commitFileLists invokes git log and groups the --name-only output back
// into one file list per commit.
func (m *Miner) commitFileLists(ctx context.Context) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "log",
		fmt.Sprintf("-n%d", m.cfg.MaxCommits),
		"--name-only",
		"--pretty=format:__commit__",
	)
	cmd.Dir = m.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git log failed: %w: %s", err, stderr.String())
	}

	var commits [][]string
	var current []string
	scanner := bufio.NewScanner(bytes.NewReader(stdout.Bytes()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "__commit__" {
			if current != nil {
				commits = append(commits, current)
			}
			current = []string{}
			continue
		}
		if line == "" || current == nil {
			continue
		}
		current = append(current, path.Clean(filepathToSlash(line)))
	}
	if current != nil {
		commits = append(commits, current)
	}
	return commits, nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// relativeToRoot converts an absolute graph.FileID into the repo-relative,
// forward-slashed form `git log --name-only` prints and fileChangeCnt/
// pairCnt are keyed by. Falls back to abs itself if it isn't under root.
func relativeToRoot(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return filepathToSlash(abs)
	}
	return filepathToSlash(rel)
}

// absoluteFromRoot is relativeToRoot's inverse, turning a mined
// repo-relative path back into the absolute graph.FileID callers (and
// excludeAdjacent) deal in.
func absoluteFromRoot(root, rel string) string {
	return graph.Normalize(filepath.Join(root, rel))
}

// TopCouplings implements impact.CouplingSource: up to limit coupling
// hints for file, sorted by confidence descending then co-change count
// descending, excluding any other file present in excludeAdjacent (the
// caller's existing forward or reverse neighbours, since those
// relationships are already visible in the dependency graph). file is an
// absolute graph.FileID; fileChangeCnt and pairCnt are keyed by the
// repo-relative paths `git log --name-only` prints, so projectRoot is used
// to convert file to that same key before any lookup.
func (m *Miner) TopCouplings(projectRoot string, file graph.FileID, excludeAdjacent map[graph.FileID]bool, limit int) ([]impact.CouplingHint, error) {
	fileChangeCnt, pairCnt := m.mine(context.Background())

	rel := relativeToRoot(projectRoot, string(file))
	if fileChangeCnt[rel] == 0 {
		return nil, nil
	}

	var hints []impact.CouplingHint
	for key, coChange := range pairCnt {
		var other string
		switch {
		case key.a == rel:
			other = key.b
		case key.b == rel:
			other = key.a
		default:
			continue
		}
		if coChange < m.cfg.MinSupport {
			continue
		}
		otherAbs := graph.FileID(absoluteFromRoot(projectRoot, other))
		if excludeAdjacent[otherAbs] {
			continue
		}
		denom := fileChangeCnt[rel]
		if fileChangeCnt[other] > denom {
			denom = fileChangeCnt[other]
		}
		if denom == 0 {
			continue
		}
		confidence := float64(coChange) / float64(denom)
		if confidence < m.cfg.MinConfidence {
			continue
		}
		hints = append(hints, impact.CouplingHint{
			OtherFile:     otherAbs,
			Confidence:    confidence,
			CoChangeCount: coChange,
		})
	}

	sort.Slice(hints, func(i, j int) bool {
		if hints[i].Confidence != hints[j].Confidence {
			return hints[i].Confidence > hints[j].Confidence
		}
		if hints[i].CoChangeCount != hints[j].CoChangeCount {
			return hints[i].CoChangeCount > hints[j].CoChangeCount
		}
		return hints[i].OtherFile < hints[j].OtherFile
	})
	if limit > 0 && len(hints) > limit {
		hints = hints[:limit]
	}
	return hints, nil
}

// Pair is one project-wide coupling emitted by AllCouplings: an
// unordered file pair that co-changes often enough to clear both
// thresholds, independent of any single file's perspective.
type Pair struct {
	FileA         graph.FileID `json:"fileA"`
	FileB         graph.FileID `json:"fileB"`
	CoChangeCount int          `json:"coChangeCount"`
	Confidence    float64      `json:"confidence"`
}

// AllCouplings implements getCouplings (spec.md §6/§4.H): every pair
// meeting minSupport and minConfidence across the whole mined history,
// sorted by confidence descending then co-change count descending. Unlike
// TopCouplings it is not scoped to one file.
func (m *Miner) AllCouplings(ctx context.Context) []Pair {
	fileChangeCnt, pairCnt := m.mine(ctx)

	var pairs []Pair
	for key, coChange := range pairCnt {
		if coChange < m.cfg.MinSupport {
			continue
		}
		denom := fileChangeCnt[key.a]
		if fileChangeCnt[key.b] > denom {
			denom = fileChangeCnt[key.b]
		}
		if denom == 0 {
			continue
		}
		confidence := float64(coChange) / float64(denom)
		if confidence < m.cfg.MinConfidence {
			continue
		}
		pairs = append(pairs, Pair{
			FileA:         graph.FileID(key.a),
			FileB:         graph.FileID(key.b),
			CoChangeCount: coChange,
			Confidence:    confidence,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Confidence != pairs[j].Confidence {
			return pairs[i].Confidence > pairs[j].Confidence
		}
		if pairs[i].CoChangeCount != pairs[j].CoChangeCount {
			return pairs[i].CoChangeCount > pairs[j].CoChangeCount
		}
		return pairs[i].FileA < pairs[j].FileA
	})
	return pairs
}
