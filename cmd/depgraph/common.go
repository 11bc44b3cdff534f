package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dusk-indust/depgraph/internal/config"
	"github.com/dusk-indust/depgraph/internal/graph"
	"github.com/dusk-indust/depgraph/internal/impact"
	"github.com/dusk-indust/depgraph/internal/session"
)

// openSession resolves projectRoot, loads its depgraph.yml (if any), and
// builds a Session over it. Every subcommand that touches the graph goes
// through this so config loading stays in one place.
func openSession(ctx context.Context, projectRoot string) (*session.Session, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return nil, fmt.Errorf("loading depgraph.yml: %w", err)
	}

	s, err := session.Open(ctx, abs, *cfg)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	return s, nil
}

// resolveFileID turns a CLI-supplied path (relative to projectRoot, or
// already absolute) into the absolute, normalised FileID the graph keys
// its nodes by (spec.md §6 "Path representation").
func resolveFileID(projectRoot, rel string) graph.FileID {
	if filepath.IsAbs(rel) {
		return graph.FileID(graph.Normalize(rel))
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	return graph.FileID(graph.Normalize(filepath.Join(abs, rel)))
}

// relativizeResult renders every graph.FileID embedded in an impact.Result
// root-relative, forward-slashed, matching spec.md §6's "external boundary
// uses forward-slash relative paths anchored at the canonical source root."
// result itself (and the graph underneath store) is left untouched; the
// returned copy is for display only.
func relativizeResult(store *graph.Store, result *impact.Result) *impact.Result {
	if result == nil {
		return nil
	}
	out := *result
	store.View(func(g *graph.Graph) {
		out.DirectDependents = relativizeFileIDs(g, result.DirectDependents)
		out.TransitiveDependents = relativizeFileIDs(g, result.TransitiveDependents)
		out.CircularCluster = relativizeFileIDs(g, result.CircularCluster)

		if result.CascadeLevels != nil {
			levels := make(map[graph.FileID]int, len(result.CascadeLevels))
			for f, level := range result.CascadeLevels {
				levels[g.RelativePath(f)] = level
			}
			out.CascadeLevels = levels
		}

		if result.Couplings != nil {
			couplings := make([]impact.CouplingHint, len(result.Couplings))
			for i, c := range result.Couplings {
				c.OtherFile = graph.FileID(g.RelativePath(c.OtherFile))
				couplings[i] = c
			}
			out.Couplings = couplings
		}
	})
	return &out
}

// relativizeHubs renders every HubFile.File root-relative, the same way
// relativizeResult does for impact.Result.
func relativizeHubs(store *graph.Store, hubs []impact.HubFile) []impact.HubFile {
	out := make([]impact.HubFile, len(hubs))
	store.View(func(g *graph.Graph) {
		for i, h := range hubs {
			h.File = g.RelativePath(h.File)
			out[i] = h
		}
	})
	return out
}

func relativizeFileIDs(g *graph.Graph, files []graph.FileID) []graph.FileID {
	if files == nil {
		return nil
	}
	out := make([]graph.FileID, len(files))
	for i, f := range files {
		out[i] = g.RelativePath(f)
	}
	return out
}
