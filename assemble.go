package atlas

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jward/atlas/internal/graph"
	"github.com/jward/atlas/internal/model"
	"github.com/jward/atlas/internal/resolve"
	"github.com/jward/atlas/internal/score"
)

// assemble is the final, single-goroutine stage: build the full dependency
// graph, report import cycles, rank symbols, order everything
// deterministically, and freeze the model. It runs only after the
// duplicate-name check passed, so symbol identity is already unique.
func assemble(in *inputs, modules []*model.Module, results []resolve.Result, diags []model.Diagnostic, strategy score.Strategy) (*model.ProjectModel, error) {
	g := graph.New()
	for _, mod := range modules {
		g.AddNode(mod.ID)
		for _, sym := range mod.Symbols {
			g.AddNode(sym.ID)
		}
	}
	for _, r := range results {
		for _, node := range r.Nodes {
			g.AddNode(node)
		}
	}
	for _, r := range results {
		diags = append(diags, r.Diagnostics...)
		for _, edge := range r.Edges {
			if err := g.AddEdge(edge); err != nil {
				return nil, fmt.Errorf("assemble graph: %w", err)
			}
		}
	}

	for _, cycle := range moduleGraph(modules, results).Cycles() {
		diags = append(diags, model.Diagnostic{
			File:     cycle[0],
			Severity: model.SeverityWarning,
			Kind:     model.DiagImportCycle,
			Message:  "import cycle: " + strings.Join(cycle, " -> "),
		})
	}

	// Symbols referenced by name from a test module count as covered.
	testedNames := map[string]bool{}
	for _, mod := range modules {
		if !score.IsTestModule(mod.ID) {
			continue
		}
		for _, ref := range mod.Refs {
			if ref.Kind == model.RefCall {
				testedNames[ref.Name] = true
			}
		}
	}

	var symbols []*model.Symbol
	for _, mod := range modules {
		symbols = append(symbols, mod.Symbols...)
	}
	scores := score.Rank(symbols,
		func(id string) int {
			return g.FanIn(id, model.EdgeCalls, model.EdgeInherits, model.EdgeUsesType)
		},
		func(sym *model.Symbol) bool { return testedNames[sym.Name] },
		strategy,
	)

	edges := g.Edges()
	sortEdges(edges)
	edges = dedupeEdges(edges)
	sortDiagnostics(diags)

	return model.NewProjectModel(in.root, in.hash, time.Now().UTC(), modules, edges, scores, diags), nil
}

// contentHash derives the project-wide hash from per-file digests: sorted
// relative paths paired with their xxhash64 digests, hashed together with
// SHA-256. Files that failed to read contribute their path only, so an
// unreadable file still distinguishes the input set.
func contentHash(files []string, digests []uint64, content [][]byte) string {
	h := sha256.New()
	for i, rel := range files {
		if content[i] == nil {
			fmt.Fprintf(h, "%s\x00-\n", rel)
			continue
		}
		fmt.Fprintf(h, "%s\x00%016x\n", rel, digests[i])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// sortEdges orders edges by (from, to, kind).
func sortEdges(edges []model.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})
}

// dedupeEdges removes adjacent duplicates from a sorted edge slice.
// Per-module resolution already deduplicates; this catches identical edges
// contributed by different phases.
func dedupeEdges(edges []model.Edge) []model.Edge {
	out := edges[:0]
	for i, e := range edges {
		if i > 0 && e == edges[i-1] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sortDiagnostics orders diagnostics by (file, line, kind, message).
func sortDiagnostics(diags []model.Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		if diags[i].Kind != diags[j].Kind {
			return diags[i].Kind < diags[j].Kind
		}
		return diags[i].Message < diags[j].Message
	})
}
