package graph

import "log"

// CondensedNode is one node of the condensed DAG: an SCC collapsed to a
// single point.
type CondensedNode struct {
	Index    int
	Files    []FileID
	Size     int
	IsCyclic bool
}

// SCCResult is the output of ComputeSCC: the partition of Files into
// strongly-connected components, the condensed DAG over them, and a
// dependencies-before-dependents topological order of SCC indices.
type SCCResult struct {
	Components      [][]FileID
	NodeToComponent map[FileID]int

	Condensed []CondensedNode
	CondFwd   map[int][]int
	CondRev   map[int][]int

	// TopoOrder lists SCC indices such that for every condensed edge u->v,
	// u appears after v (v, the dependency, comes first).
	TopoOrder []int
}

// ComputeSCC runs Tarjan's algorithm over g.Forward (ignoring self-edges),
// condenses the result, and computes a topological order via Kahn's
// algorithm. It completes in O(V+E) and is safe to call repeatedly as the
// graph mutates.
func ComputeSCC(g *Graph) *SCCResult {
	t := &tarjan{
		g:       g,
		index:   make(map[FileID]int),
		lowlink: make(map[FileID]int),
		onStack: make(map[FileID]bool),
	}
	for f := range g.Files {
		if _, seen := t.index[f]; !seen {
			t.strongConnect(f)
		}
	}

	nodeToComponent := make(map[FileID]int, len(g.Files))
	for i, comp := range t.components {
		for _, f := range comp {
			nodeToComponent[f] = i
		}
	}

	condensed := make([]CondensedNode, len(t.components))
	condFwd := make(map[int][]int, len(t.components))
	condRev := make(map[int][]int, len(t.components))
	for i, comp := range t.components {
		condensed[i] = CondensedNode{
			Index:    i,
			Files:    comp,
			Size:     len(comp),
			IsCyclic: len(comp) > 1,
		}
	}

	edgeSeen := make(map[[2]int]bool)
	for a, deps := range g.Forward {
		ca := nodeToComponent[a]
		for _, b := range deps {
			cb, ok := nodeToComponent[b]
			if !ok || ca == cb {
				continue
			}
			key := [2]int{ca, cb}
			if edgeSeen[key] {
				continue
			}
			edgeSeen[key] = true
			condFwd[ca] = append(condFwd[ca], cb)
			condRev[cb] = append(condRev[cb], ca)
		}
	}

	topo := kahnTopoOrder(len(t.components), condFwd, condRev)

	return &SCCResult{
		Components:      t.components,
		NodeToComponent: nodeToComponent,
		Condensed:       condensed,
		CondFwd:         condFwd,
		CondRev:         condRev,
		TopoOrder:       topo,
	}
}

// kahnTopoOrder returns SCC indices ordered dependencies-before-dependents:
// it starts from SCCs with zero outgoing condensed edges (leaves of the
// dependency relation) and repeatedly peels them, decrementing the
// in-degree of their forward-predecessors.
func kahnTopoOrder(n int, fwd, rev map[int][]int) []int {
	outDegree := make([]int, n)
	for i := 0; i < n; i++ {
		outDegree[i] = len(fwd[i])
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if outDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	visited := make([]bool, n)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if visited[c] {
			continue
		}
		visited[c] = true
		order = append(order, c)
		for _, pred := range rev[c] {
			outDegree[pred]--
			if outDegree[pred] == 0 {
				queue = append(queue, pred)
			}
		}
	}

	if len(order) < n {
		log.Printf("graph: topological sort produced %d of %d SCCs; condensed graph is not acyclic, appending remainder", len(order), n)
		for i := 0; i < n; i++ {
			if !visited[i] {
				order = append(order, i)
			}
		}
	}

	return order
}

type tarjan struct {
	g *Graph

	counter    int
	index      map[FileID]int
	lowlink    map[FileID]int
	onStack    map[FileID]bool
	stack      []FileID
	components [][]FileID
}

// frame is one level of the explicit work stack standing in for Tarjan's
// recursion, so large graphs don't exhaust the goroutine stack.
type frame struct {
	node    FileID
	iter    int
	targets []FileID
}

func (t *tarjan) strongConnect(start FileID) {
	work := []*frame{t.push(start)}

	for len(work) > 0 {
		top := work[len(work)-1]

		if top.iter == 0 {
			t.index[top.node] = t.counter
			t.lowlink[top.node] = t.counter
			t.counter++
			t.stack = append(t.stack, top.node)
			t.onStack[top.node] = true
		}

		recursed := false
		for top.iter < len(top.targets) {
			w := top.targets[top.iter]
			top.iter++
			if w == top.node {
				continue // self-edges are ignored for SCC purposes
			}
			if _, seen := t.index[w]; !seen {
				work = append(work, t.push(w))
				recursed = true
				break
			} else if t.onStack[w] {
				if t.index[w] < t.lowlink[top.node] {
					t.lowlink[top.node] = t.index[w]
				}
			}
		}
		if recursed {
			continue
		}

		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := work[len(work)-1]
			if t.lowlink[top.node] < t.lowlink[parent.node] {
				t.lowlink[parent.node] = t.lowlink[top.node]
			}
		}

		if t.lowlink[top.node] == t.index[top.node] {
			var comp []FileID
			for {
				n := len(t.stack) - 1
				w := t.stack[n]
				t.stack = t.stack[:n]
				t.onStack[w] = false
				comp = append(comp, w)
				if w == top.node {
					break
				}
			}
			t.components = append(t.components, comp)
		}
	}
}

func (t *tarjan) push(node FileID) *frame {
	return &frame{node: node, targets: t.g.Forward[node]}
}
