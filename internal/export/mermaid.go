package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// GenerateMermaid produces a Mermaid "graph TD" diagram from a graph
// store. Cyclic SCCs are boxed as subgraphs so circular clusters are
// visually obvious; singleton components render as plain nodes. Forward
// edges become arrows.
func GenerateMermaid(store *graph.Store, scc *graph.SCCResult) string {
	files, forward, _ := store.Snapshot()
	root := store.ProjectRoot()

	nodeIDs := make(map[string]string, len(files))
	nextID := 0
	getID := func(path string) string {
		if id, ok := nodeIDs[path]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[path] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	boxed := make(map[string]bool)
	if scc != nil {
		for _, c := range scc.Condensed {
			if !c.IsCyclic {
				continue
			}
			members := append([]string{}, c.Files...)
			sort.Strings(members)

			sb.WriteString(fmt.Sprintf("  subgraph cycle%d[\"cycle (%d files)\"]\n", c.Index, len(members)))
			for _, m := range members {
				sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(m), relLabel(root, m)))
				boxed[m] = true
			}
			sb.WriteString("  end\n")
		}
	}

	plain := make([]string, 0, len(files))
	for f := range files {
		if !boxed[f] {
			plain = append(plain, f)
		}
	}
	sort.Strings(plain)
	for _, f := range plain {
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(f), relLabel(root, f)))
	}

	var sources []string
	for src := range forward {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		targets := append([]string{}, forward[src]...)
		sort.Strings(targets)
		for _, tgt := range targets {
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(src), getID(tgt)))
		}
	}

	return sb.String()
}

// relLabel renders a short, readable node label: the last two path
// segments relative to root.
func relLabel(root, path string) string {
	rel := graph.Normalize(path)
	if root != "" && strings.HasPrefix(rel, root) {
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, root), "/")
	}
	parts := strings.Split(rel, "/")
	if len(parts) <= 2 {
		return rel
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
