package atlas

import (
	"github.com/jward/atlas/internal/graph"
	"github.com/jward/atlas/internal/model"
)

// Query provides read-side access to a frozen project model: neighbor
// lookups over the typed edge set and the criticality ranking. Building a
// Query materializes the adjacency structure once; all methods are then
// cheap and safe for concurrent use.
type Query struct {
	m *model.ProjectModel
	g *graph.Graph
}

// NewQuery indexes a model for querying.
func NewQuery(m *model.ProjectModel) *Query {
	g := graph.New()
	for _, mod := range m.Modules {
		g.AddNode(mod.ID)
		for _, sym := range mod.Symbols {
			g.AddNode(sym.ID)
		}
	}
	// Reserved unknown:/external: endpoints only exist as edge targets.
	for _, e := range m.Edges {
		g.AddNode(e.From)
		g.AddNode(e.To)
		_ = g.AddEdge(e)
	}
	return &Query{m: m, g: g}
}

// TopCritical returns the k highest-ranked symbols, fewer when the model
// is smaller.
func (q *Query) TopCritical(k int) []model.CriticalityScore {
	if k > len(q.m.Scores) {
		k = len(q.m.Scores)
	}
	return q.m.Scores[:k]
}

// Callers returns the distinct nodes with a calls edge into the symbol,
// in edge order.
func (q *Query) Callers(symbolID string) []string {
	return neighbors(q.g.In(symbolID), model.EdgeCalls, func(e model.Edge) string { return e.From })
}

// Callees returns the distinct nodes the symbol has a calls edge to.
func (q *Query) Callees(symbolID string) []string {
	return neighbors(q.g.Out(symbolID), model.EdgeCalls, func(e model.Edge) string { return e.To })
}

// Dependencies returns the distinct targets of the module's import edges,
// including external: terminals.
func (q *Query) Dependencies(moduleID string) []string {
	return neighbors(q.g.Out(moduleID), model.EdgeImports, func(e model.Edge) string { return e.To })
}

// Dependents returns the distinct modules importing the given module.
func (q *Query) Dependents(moduleID string) []string {
	return neighbors(q.g.In(moduleID), model.EdgeImports, func(e model.Edge) string { return e.From })
}

// Subtypes returns the distinct symbols with an inherits edge into the
// given class.
func (q *Query) Subtypes(symbolID string) []string {
	return neighbors(q.g.In(symbolID), model.EdgeInherits, func(e model.Edge) string { return e.From })
}

func neighbors(edges []model.Edge, kind model.EdgeKind, key func(model.Edge) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range edges {
		if e.Kind != kind {
			continue
		}
		id := key(e)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// FanIn counts the distinct callers and referencers of a symbol, the same
// signal the criticality ranking uses.
func (q *Query) FanIn(symbolID string) int {
	return q.g.FanIn(symbolID, model.EdgeCalls, model.EdgeInherits, model.EdgeUsesType)
}
