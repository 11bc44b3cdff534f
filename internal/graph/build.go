package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// LanguagePlugin is the subset of internal/lang.Plugin that the build
// pipeline needs; declared here (rather than imported) so internal/graph
// does not depend on internal/lang — internal/lang depends on
// internal/graph for Import/Language, and a build.go importing lang back
// would cycle. internal/lang.Plugin satisfies this interface structurally.
type LanguagePlugin interface {
	ID() Language
	DetectProject(root string) bool
	SourceDirs(root string) []string
	DiscoverFiles(dir string) []string
	ParseImports(file string, content string) []Import
}

// AliasRewriter is implemented by plugins that support project-level path
// aliases (e.g. tsconfig.json "paths"). RewriteAlias returns a baseUrl
// -relative path on a match; build.go converts it to source-relative form
// before handing the specifier to the Resolver, which has no alias
// awareness of its own.
type AliasRewriter interface {
	RewriteAlias(root, spec string) (string, bool)
}

// BuildOptions bounds a single BuildGraph call.
type BuildOptions struct {
	// MaxFiles caps the number of files read, 0 meaning unlimited.
	MaxFiles int
	// Concurrency bounds parallel file reads; 0 selects the default (100).
	Concurrency int
}

// BuildResult pairs a freshly built Graph with its SCC decomposition,
// computed once as the final step of the initial build (spec §2), and the
// Resolver built over the discovered file set, which internal/update reuses
// for single-file re-parses instead of constructing a second one.
type BuildResult struct {
	Graph    *Graph
	SCC      *SCCResult
	Resolver *Resolver
}

// BuildGraph enumerates files via every plugin that detects projectRoot,
// reads their content with bounded concurrency, extracts and resolves
// imports, and runs the SCC engine once over the populated graph. It never
// errors for user-caused conditions (no plugins detected, unreadable
// files); it returns an empty Graph in the former case.
func BuildGraph(ctx context.Context, projectRoot string, plugins []LanguagePlugin, opts BuildOptions) (*BuildResult, error) {
	projectRoot = Normalize(projectRoot)

	var active []LanguagePlugin
	var languages []Language
	var roots []string
	for _, p := range plugins {
		if !p.DetectProject(projectRoot) {
			continue
		}
		active = append(active, p)
		languages = append(languages, p.ID())
		for _, dir := range p.SourceDirs(projectRoot) {
			roots = append(roots, dir)
		}
	}
	if len(roots) == 0 {
		roots = []string{projectRoot}
	}

	g := NewGraph(projectRoot, roots, languages)
	if len(active) == 0 {
		return &BuildResult{Graph: g, SCC: ComputeSCC(g), Resolver: NewResolver(projectRoot, nil)}, nil
	}

	type discovered struct {
		path   string
		plugin LanguagePlugin
	}
	var files []discovered
	for _, p := range active {
		for _, dir := range p.SourceDirs(projectRoot) {
			for _, f := range p.DiscoverFiles(dir) {
				files = append(files, discovered{path: Normalize(f), plugin: p})
			}
		}
	}
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		files = files[:opts.MaxFiles]
	}

	for _, d := range files {
		AddFileNode(g, d.path)
	}

	knownRel := make([]string, 0, len(files))
	relOf := make(map[string]FileID, len(files))
	for _, d := range files {
		rel, err := filepath.Rel(projectRoot, d.path)
		if err != nil {
			rel = d.path
		}
		rel = Normalize(rel)
		knownRel = append(knownRel, rel)
		relOf[d.path] = FileID(rel)
	}
	resolver := NewResolver(projectRoot, knownRel)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 100
	}

	type parseResult struct {
		file FileID
		deps []FileID
	}
	results := make([]parseResult, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, d := range files {
		i, d := i, d
		eg.Go(func() error {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			default:
			}
			content, err := os.ReadFile(d.path)
			if err != nil {
				results[i] = parseResult{file: d.path}
				return nil // UnreadableFile: recovered locally, empty imports
			}
			raw := d.plugin.ParseImports(d.path, string(content))
			rewriter, hasAliases := d.plugin.(AliasRewriter)
			sourceRel := string(relOf[d.path])
			relRaw := make([]Import, len(raw))
			for j, imp := range raw {
				target := imp.TargetID
				if hasAliases {
					if baseURLRel, ok := rewriter.RewriteAlias(projectRoot, target); ok {
						if relFromSource, err := filepath.Rel(filepath.Dir(sourceRel), baseURLRel); err == nil {
							target = "./" + Normalize(relFromSource)
						}
					}
				}
				relRaw[j] = Import{SourceID: relOf[d.path], TargetID: target}
			}
			resolvedRel := resolver.ResolveAll(relRaw, d.plugin.ID())
			deps := make([]FileID, 0, len(resolvedRel))
			for _, rel := range resolvedRel {
				abs := Normalize(filepath.Join(projectRoot, rel))
				if g.Has(abs) {
					deps = append(deps, abs)
				}
			}
			results[i] = parseResult{file: d.path, deps: deps}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("graph: build: %w", err)
	}

	for _, r := range results {
		SetForwardEdges(g, r.file, r.deps)
	}

	return &BuildResult{Graph: g, SCC: ComputeSCC(g), Resolver: resolver}, nil
}
