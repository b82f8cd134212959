// Package graph is the typed directed dependency graph over symbols and
// modules: O(1) neighbor queries in either direction, fan-in/fan-out
// counts, cycle detection, and a stable top-K query.
package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/jward/atlas/internal/model"
)

// Graph owns all edges of a project model. Node IDs are qualified symbol
// names, module paths, or the reserved unknown:/external: forms.
type Graph struct {
	order []string // insertion order, the basis for deterministic output
	ids   map[string]int64
	out   map[string][]model.Edge
	in    map[string][]model.Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		ids: make(map[string]int64),
		out: make(map[string][]model.Edge),
		in:  make(map[string][]model.Edge),
	}
}

// AddNode registers a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.ids[id]; ok {
		return
	}
	g.ids[id] = int64(len(g.order))
	g.order = append(g.order, id)
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.ids[id]
	return ok
}

// AddEdge inserts a typed edge. Both endpoints must already be nodes:
// edges never reference a nonexistent node.
func (g *Graph) AddEdge(e model.Edge) error {
	if !g.HasNode(e.From) {
		return fmt.Errorf("add edge: unknown source node %q", e.From)
	}
	if !g.HasNode(e.To) {
		return fmt.Errorf("add edge: unknown target node %q", e.To)
	}
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	return nil
}

// Out returns edges leaving id, in insertion order.
func (g *Graph) Out(id string) []model.Edge { return g.out[id] }

// In returns edges entering id, in insertion order.
func (g *Graph) In(id string) []model.Edge { return g.in[id] }

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string { return g.order }

// Edges returns every edge grouped by source node in insertion order.
func (g *Graph) Edges() []model.Edge {
	var out []model.Edge
	for _, id := range g.order {
		out = append(out, g.out[id]...)
	}
	return out
}

// FanIn counts distinct source nodes with an edge of one of the given
// kinds into id. No kinds means all kinds.
func (g *Graph) FanIn(id string, kinds ...model.EdgeKind) int {
	return countDistinct(g.in[id], kinds, func(e model.Edge) string { return e.From })
}

// FanOut counts distinct target nodes reached from id by edges of the
// given kinds. No kinds means all kinds.
func (g *Graph) FanOut(id string, kinds ...model.EdgeKind) int {
	return countDistinct(g.out[id], kinds, func(e model.Edge) string { return e.To })
}

func countDistinct(edges []model.Edge, kinds []model.EdgeKind, key func(model.Edge) string) int {
	seen := map[string]bool{}
	for _, e := range edges {
		if len(kinds) > 0 {
			match := false
			for _, k := range kinds {
				if e.Kind == k {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		seen[key(e)] = true
	}
	return len(seen)
}

// Cycles returns all strongly connected components with more than one
// node, plus single nodes with a self-edge. Components and their members
// are sorted lexically, so output is independent of traversal order.
// Cycles are diagnostics for the caller, never an error.
func (g *Graph) Cycles() [][]string {
	dg := simple.NewDirectedGraph()
	for _, id := range g.order {
		dg.AddNode(simple.Node(g.ids[id]))
	}
	selfLoops := map[string]bool{}
	for _, id := range g.order {
		for _, e := range g.out[id] {
			if e.From == e.To {
				// gonum rejects self-edges; track them separately.
				selfLoops[e.From] = true
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(g.ids[e.From]), simple.Node(g.ids[e.To])))
		}
	}

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, g.order[n.ID()])
		}
		sort.Strings(members)
		cycles = append(cycles, members)
	}
	for id := range selfLoops {
		cycles = append(cycles, []string{id})
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// TopK returns up to k node IDs ordered by the supplied comparison. The
// sort is stable over insertion order, so equal elements keep a
// deterministic relative position.
func (g *Graph) TopK(k int, less func(a, b string) bool) []string {
	ids := append([]string(nil), g.order...)
	sort.SliceStable(ids, func(i, j int) bool { return less(ids[i], ids[j]) })
	if k < len(ids) {
		ids = ids[:k]
	}
	return ids
}
