// Package resolve turns raw import statements and textual references into
// typed graph edges against the frozen global index. It runs after the
// extraction barrier; the index is read-only, so modules resolve in
// parallel without locking.
package resolve

import (
	"fmt"
	"strings"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/lang"
	"github.com/jward/atlas/internal/model"
)

// Result is the per-module resolution output, merged by the caller.
type Result struct {
	Edges       []model.Edge
	Nodes       []string // reserved unknown:/external: nodes referenced by edges
	Diagnostics []model.Diagnostic
}

// Module resolves one module's imports and references. Unresolved imports
// are never silently dropped: each yields exactly one diagnostic and one
// retained unknown edge. Reference binding is best-effort and produces an
// edge only on a match.
func Module(mod *model.Module, adapter lang.Adapter, idx *index.Index) Result {
	var res Result
	edgeSeen := map[model.Edge]bool{}
	addEdge := func(e model.Edge) {
		if e.From == e.To && e.Kind != model.EdgeImports {
			return
		}
		if !edgeSeen[e] {
			edgeSeen[e] = true
			res.Edges = append(res.Edges, e)
		}
	}

	// moduleBindings map local names (aliases, single-segment specifiers)
	// to resolved module IDs; symBindings map from-imported names to
	// symbol IDs. Both feed reference binding below.
	moduleBindings := map[string]string{}
	symBindings := map[string]string{}
	var importedModules []string

	for _, imp := range mod.Imports {
		r := adapter.Resolve(imp, mod, idx)
		switch {
		case !r.OK:
			node := "unknown:" + imp.Source
			res.Nodes = append(res.Nodes, node)
			addEdge(model.Edge{From: mod.ID, To: node, Kind: model.EdgeUnknown})
			res.Diagnostics = append(res.Diagnostics, model.Diagnostic{
				File:     mod.ID,
				Line:     imp.Line,
				Severity: model.SeverityWarning,
				Kind:     model.DiagUnresolvedImport,
				Message:  fmt.Sprintf("unresolved import %q", imp.Source),
			})
		case r.External:
			node := "external:" + r.Target
			res.Nodes = append(res.Nodes, node)
			addEdge(model.Edge{From: mod.ID, To: node, Kind: model.EdgeImports})
		default:
			addEdge(model.Edge{From: mod.ID, To: r.Target, Kind: model.EdgeImports})
			importedModules = append(importedModules, r.Target)
			bindImport(imp, r.Target, idx, moduleBindings, symBindings)
		}
	}

	for _, ref := range mod.Refs {
		target := bindReference(ref, mod, idx, moduleBindings, symBindings, importedModules)
		if target == "" || target == ref.From {
			continue
		}
		addEdge(model.Edge{From: ref.From, To: target, Kind: edgeKind(ref.Kind)})
	}
	return res
}

// bindImport records the local names an import statement introduces.
func bindImport(imp model.RawImport, target string, idx *index.Index, moduleBindings, symBindings map[string]string) {
	if imp.Alias != "" {
		moduleBindings[imp.Alias] = target
	} else if !strings.ContainsAny(imp.Source, "./") {
		// Single-segment specifier: the bare name addresses the module.
		moduleBindings[imp.Source] = target
	} else if seg := lastSegment(imp.Source); seg != "" {
		moduleBindings[seg] = target
	}
	for _, name := range imp.Names {
		if sym := idx.Lookup(target, name); sym != nil {
			symBindings[name] = sym.ID
		}
	}
}

// bindReference finds the symbol a reference points at, or "".
func bindReference(ref model.Reference, mod *model.Module, idx *index.Index, moduleBindings, symBindings map[string]string, importedModules []string) string {
	wanted := func(sym *model.Symbol) bool {
		if sym == nil {
			return false
		}
		switch ref.Kind {
		case model.RefBase, model.RefType:
			return sym.Kind == model.KindClass
		default:
			return sym.Kind == model.KindFunction || sym.Kind == model.KindMethod || sym.Kind == model.KindClass
		}
	}

	if ref.Qualifier != "" {
		if target, ok := moduleBindings[ref.Qualifier]; ok {
			if sym := idx.Lookup(target, ref.Name); wanted(sym) && sym.Visibility == model.VisibilityPublic {
				return sym.ID
			}
		}
		return ""
	}

	if id, ok := symBindings[ref.Name]; ok {
		if sym := idx.Symbol(id); wanted(sym) {
			return id
		}
	}
	if sym := idx.Lookup(mod.ID, ref.Name); wanted(sym) {
		return sym.ID
	}
	for _, target := range importedModules {
		if sym := idx.Lookup(target, ref.Name); wanted(sym) && sym.Visibility == model.VisibilityPublic {
			return sym.ID
		}
	}
	return ""
}

func edgeKind(k model.RefKind) model.EdgeKind {
	switch k {
	case model.RefBase:
		return model.EdgeInherits
	case model.RefType:
		return model.EdgeUsesType
	default:
		return model.EdgeCalls
	}
}

func lastSegment(spec string) string {
	spec = strings.TrimSuffix(spec, "/")
	if i := strings.LastIndexAny(spec, "./"); i != -1 {
		return spec[i+1:]
	}
	return spec
}
