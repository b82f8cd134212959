package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/atlas/internal/model"
)

func edge(from, to string, kind model.EdgeKind) model.Edge {
	return model.Edge{From: from, To: to, Kind: kind}
}

func TestAddEdgeRejectsDanglingEndpoints(t *testing.T) {
	g := New()
	g.AddNode("a")
	require.Error(t, g.AddEdge(edge("a", "missing", model.EdgeCalls)))
	require.Error(t, g.AddEdge(edge("missing", "a", model.EdgeCalls)))

	g.AddNode("b")
	require.NoError(t, g.AddEdge(edge("a", "b", model.EdgeCalls)))
	assert.Len(t, g.Out("a"), 1)
	assert.Len(t, g.In("b"), 1)
}

func TestFanCountsDistinctByKind(t *testing.T) {
	g := New()
	for _, n := range []string{"a", "b", "c", "d"} {
		g.AddNode(n)
	}
	require.NoError(t, g.AddEdge(edge("b", "a", model.EdgeCalls)))
	require.NoError(t, g.AddEdge(edge("b", "a", model.EdgeUsesType)))
	require.NoError(t, g.AddEdge(edge("c", "a", model.EdgeCalls)))
	require.NoError(t, g.AddEdge(edge("d", "a", model.EdgeImports)))

	// b counts once despite two edge kinds.
	assert.Equal(t, 2, g.FanIn("a", model.EdgeCalls, model.EdgeUsesType))
	assert.Equal(t, 1, g.FanIn("a", model.EdgeImports))
	assert.Equal(t, 3, g.FanIn("a"))
	assert.Equal(t, 1, g.FanOut("b", model.EdgeCalls))
	assert.Equal(t, 0, g.FanIn("b"))
}

func TestCycles(t *testing.T) {
	g := New()
	for _, n := range []string{"x", "y", "z", "solo", "self"} {
		g.AddNode(n)
	}
	// x -> y -> x is a cycle; z -> x is not part of it.
	require.NoError(t, g.AddEdge(edge("x", "y", model.EdgeImports)))
	require.NoError(t, g.AddEdge(edge("y", "x", model.EdgeImports)))
	require.NoError(t, g.AddEdge(edge("z", "x", model.EdgeImports)))
	require.NoError(t, g.AddEdge(edge("self", "self", model.EdgeImports)))

	cycles := g.Cycles()
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"self"}, cycles[0])
	assert.Equal(t, []string{"x", "y"}, cycles[1])
}

func TestCyclesEmptyWhenAcyclic(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddEdge(edge("a", "b", model.EdgeImports)))
	assert.Empty(t, g.Cycles())
}

func TestTopKStable(t *testing.T) {
	g := New()
	weights := map[string]int{"a": 1, "b": 3, "c": 3, "d": 2}
	for _, n := range []string{"a", "b", "c", "d"} {
		g.AddNode(n)
	}
	top := g.TopK(3, func(x, y string) bool { return weights[x] > weights[y] })
	// b and c tie; insertion order keeps b first.
	assert.Equal(t, []string{"b", "c", "d"}, top)

	all := g.TopK(10, func(x, y string) bool { return weights[x] > weights[y] })
	assert.Len(t, all, 4)
}

func TestEdgesGroupedBySource(t *testing.T) {
	g := New()
	for _, n := range []string{"a", "b", "c"} {
		g.AddNode(n)
	}
	require.NoError(t, g.AddEdge(edge("b", "c", model.EdgeCalls)))
	require.NoError(t, g.AddEdge(edge("a", "b", model.EdgeCalls)))
	require.NoError(t, g.AddEdge(edge("a", "c", model.EdgeCalls)))

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, "a", edges[0].From)
	assert.Equal(t, "a", edges[1].From)
	assert.Equal(t, "b", edges[2].From)
}
