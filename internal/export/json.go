package export

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// GraphExport is the top-level JSON export structure for a dependency
// graph snapshot: every file, its resolved forward edges, and its SCC
// membership.
type GraphExport struct {
	ProjectRoot string        `json:"projectRoot"`
	ExportedAt  string        `json:"exportedAt"`
	Files       []FileExport  `json:"files"`
	Components  []CompExport  `json:"components,omitempty"`
	Stats       StatsExport   `json:"stats"`
}

// FileExport describes one file's adjacency and, if an SCC snapshot was
// supplied, which component it belongs to.
type FileExport struct {
	Path      string   `json:"path"`
	Imports   []string `json:"imports"`
	Component int      `json:"component,omitempty"`
}

// CompExport describes one strongly-connected component of the condensed
// graph.
type CompExport struct {
	Index    int      `json:"index"`
	Files    []string `json:"files"`
	IsCyclic bool      `json:"isCyclic"`
}

// StatsExport summarises the exported graph's size.
type StatsExport struct {
	FileCount int `json:"fileCount"`
	EdgeCount int `json:"edgeCount"`
}

// BuildGraphExport assembles a GraphExport from a store snapshot and an
// optional SCC result (nil is valid: Component fields are omitted). Every
// path in the result — file paths, import targets, component membership —
// is rendered root-relative via Graph.RelativePath, per the external
// boundary's forward-slash-relative-path convention; sorting happens on
// the absolute form first so output order stays stable regardless of
// where the project root sits on disk.
func BuildGraphExport(store *graph.Store, scc *graph.SCCResult) *GraphExport {
	out := &GraphExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	store.View(func(g *graph.Graph) {
		out.ProjectRoot = g.ProjectRoot

		paths := make([]string, 0, len(g.Files))
		for f := range g.Files {
			paths = append(paths, f)
		}
		sort.Strings(paths)

		out.Stats.FileCount = len(paths)
		for _, f := range paths {
			deps := append([]string{}, g.Forward[f]...)
			sort.Strings(deps)
			out.Stats.EdgeCount += len(deps)

			relDeps := make([]string, len(deps))
			for i, d := range deps {
				relDeps[i] = g.RelativePath(d)
			}

			fe := FileExport{Path: g.RelativePath(f), Imports: relDeps}
			if scc != nil {
				fe.Component = scc.NodeToComponent[f]
			}
			out.Files = append(out.Files, fe)
		}

		if scc != nil {
			for _, c := range scc.Condensed {
				members := append([]string{}, c.Files...)
				sort.Strings(members)
				relMembers := make([]string, len(members))
				for i, m := range members {
					relMembers[i] = g.RelativePath(m)
				}
				out.Components = append(out.Components, CompExport{
					Index:    c.Index,
					Files:    relMembers,
					IsCyclic: c.IsCyclic,
				})
			}
		}
	})

	return out
}

// MarshalJSON renders a GraphExport as indented JSON, matching the
// formatting the original decomposition exporter used for its output.
func MarshalJSON(export *GraphExport) ([]byte, error) {
	return json.MarshalIndent(export, "", "  ")
}
