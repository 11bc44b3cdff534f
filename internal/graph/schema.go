// Package graph holds the dependency graph store and the strongly-connected
// component engine that sits on top of it.
package graph

import "path/filepath"

// FileID is an absolute, normalised filesystem path. Equality is string
// equality after Normalize.
type FileID = string

// Normalize rewrites path separators to forward slashes so that file
// identifiers compare equal across platforms in any serialised form.
func Normalize(path string) string {
	return filepath.ToSlash(path)
}

// Language identifies a programming language plugin.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// Import is a single unresolved edge as extracted by a language plugin,
// before internal/graph/resolve.go turns TargetID into a file identifier.
type Import struct {
	SourceID FileID
	TargetID string // raw specifier, e.g. "./foo", "pkg/sub", "crate::model"
}

// Graph is the dependency graph of a single project: a set of files plus
// the forward (imports) and reverse (imported-by) adjacency built from
// them. The only mutations permitted on a live Graph come from
// internal/update; every other reader treats it as immutable once built.
type Graph struct {
	Files   map[FileID]struct{}
	Forward map[FileID][]FileID
	Reverse map[FileID][]FileID

	// Roots is the ordered list of source-directory paths; Roots[0] is the
	// canonical root used for relative-path display.
	Roots []string

	// Languages is the set of plugin identifiers detected for this project.
	Languages []Language

	ProjectRoot string
}

// NewGraph returns an empty, ready-to-populate Graph.
func NewGraph(projectRoot string, roots []string, languages []Language) *Graph {
	return &Graph{
		Files:       make(map[FileID]struct{}),
		Forward:     make(map[FileID][]FileID),
		Reverse:     make(map[FileID][]FileID),
		Roots:       roots,
		Languages:   languages,
		ProjectRoot: Normalize(projectRoot),
	}
}

// Has reports whether f is a known file.
func (g *Graph) Has(f FileID) bool {
	_, ok := g.Files[f]
	return ok
}

// EdgeCount is derived on demand; it is the total number of forward edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.Forward {
		n += len(deps)
	}
	return n
}

// FileCount returns the number of files currently in the graph.
func (g *Graph) FileCount() int {
	return len(g.Files)
}

// RelativePath renders f relative to the canonical source root, with
// forward slashes, for display at the API boundary.
func (g *Graph) RelativePath(f FileID) string {
	if len(g.Roots) == 0 {
		return f
	}
	rel, err := filepath.Rel(g.Roots[0], f)
	if err != nil {
		return f
	}
	return Normalize(rel)
}
