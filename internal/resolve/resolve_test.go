package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/lang"
	"github.com/jward/atlas/internal/model"
)

func pythonAdapter(t *testing.T) lang.Adapter {
	t.Helper()
	a, ok := lang.ForLanguage("python")
	require.True(t, ok)
	return a
}

func hasEdge(edges []model.Edge, e model.Edge) bool {
	for _, got := range edges {
		if got == e {
			return true
		}
	}
	return false
}

func TestModuleResolvesImportsAndBindsCalls(t *testing.T) {
	util := &model.Module{ID: "util.py", Name: "util", Language: "python"}
	util.Symbols = []*model.Symbol{{
		ID: "util.helper", Module: util.ID, Name: "helper",
		Kind: model.KindFunction, Visibility: model.VisibilityPublic,
	}}
	app := &model.Module{ID: "app.py", Name: "app", Language: "python"}
	app.Symbols = []*model.Symbol{{
		ID: "app.main", Module: app.ID, Name: "main",
		Kind: model.KindFunction, Visibility: model.VisibilityPublic,
	}}
	app.Imports = []model.RawImport{
		{Source: "util", Names: []string{"helper"}, Line: 1},
		{Source: "os", Line: 2},
	}
	app.Refs = []model.Reference{
		{From: "app.main", Name: "helper", Kind: model.RefCall, Line: 5},
	}

	idx := index.Build([]*model.Module{util, app}, nil, nil)
	res := Module(app, pythonAdapter(t), idx)

	assert.Empty(t, res.Diagnostics)
	assert.True(t, hasEdge(res.Edges, model.Edge{From: "app.py", To: "util.py", Kind: model.EdgeImports}))
	assert.True(t, hasEdge(res.Edges, model.Edge{From: "app.py", To: "external:os", Kind: model.EdgeImports}))
	assert.True(t, hasEdge(res.Edges, model.Edge{From: "app.main", To: "util.helper", Kind: model.EdgeCalls}))
	assert.Contains(t, res.Nodes, "external:os")
}

func TestModuleUnresolvedImportKeepsDiagnosticAndUnknownEdge(t *testing.T) {
	pkg := &model.Module{ID: "pkg/__init__.py", Name: "pkg.__init__", Language: "python"}
	app := &model.Module{ID: "app.py", Name: "app", Language: "python"}
	app.Imports = []model.RawImport{{Source: "pkg.missing", Line: 3}}

	idx := index.Build([]*model.Module{pkg, app}, nil, nil)
	res := Module(app, pythonAdapter(t), idx)

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, model.DiagUnresolvedImport, d.Kind)
	assert.Equal(t, model.SeverityWarning, d.Severity)
	assert.Equal(t, "app.py", d.File)
	assert.Equal(t, 3, d.Line)
	assert.Contains(t, d.Message, "pkg.missing")

	require.Len(t, res.Edges, 1)
	assert.Equal(t, model.Edge{From: "app.py", To: "unknown:pkg.missing", Kind: model.EdgeUnknown}, res.Edges[0])
	assert.Equal(t, []string{"unknown:pkg.missing"}, res.Nodes)
}

func TestModuleBindsQualifiedCallsThroughAlias(t *testing.T) {
	util := &model.Module{ID: "util.py", Name: "util", Language: "python"}
	util.Symbols = []*model.Symbol{
		{ID: "util.fmt", Module: util.ID, Name: "fmt", Kind: model.KindFunction, Visibility: model.VisibilityPublic},
		{ID: "util._hidden", Module: util.ID, Name: "_hidden", Kind: model.KindFunction, Visibility: model.VisibilityPrivate},
	}
	app := &model.Module{ID: "app.py", Name: "app", Language: "python"}
	app.Symbols = []*model.Symbol{{
		ID: "app.run", Module: app.ID, Name: "run", Kind: model.KindFunction, Visibility: model.VisibilityPublic,
	}}
	app.Imports = []model.RawImport{{Source: "util", Alias: "u", Line: 1}}
	app.Refs = []model.Reference{
		{From: "app.run", Name: "fmt", Qualifier: "u", Kind: model.RefCall, Line: 4},
		// Private members never bind across modules.
		{From: "app.run", Name: "_hidden", Qualifier: "u", Kind: model.RefCall, Line: 5},
		// Unknown qualifiers stay unbound.
		{From: "app.run", Name: "fmt", Qualifier: "other", Kind: model.RefCall, Line: 6},
	}

	idx := index.Build([]*model.Module{util, app}, nil, nil)
	res := Module(app, pythonAdapter(t), idx)

	assert.True(t, hasEdge(res.Edges, model.Edge{From: "app.run", To: "util.fmt", Kind: model.EdgeCalls}))
	assert.False(t, hasEdge(res.Edges, model.Edge{From: "app.run", To: "util._hidden", Kind: model.EdgeCalls}))
	// imports edge plus exactly one bound call
	assert.Len(t, res.Edges, 2)
}

func TestModuleBindsBaseClassToInheritsEdge(t *testing.T) {
	base := &model.Module{ID: "base.py", Name: "base", Language: "python"}
	base.Symbols = []*model.Symbol{{
		ID: "base.Service", Module: base.ID, Name: "Service",
		Kind: model.KindClass, Visibility: model.VisibilityPublic,
	}}
	app := &model.Module{ID: "app.py", Name: "app", Language: "python"}
	app.Symbols = []*model.Symbol{{
		ID: "app.Worker", Module: app.ID, Name: "Worker",
		Kind: model.KindClass, Visibility: model.VisibilityPublic,
	}}
	app.Imports = []model.RawImport{{Source: "base", Names: []string{"Service"}, Line: 1}}
	app.Refs = []model.Reference{
		{From: "app.Worker", Name: "Service", Kind: model.RefBase, Line: 3},
	}

	idx := index.Build([]*model.Module{base, app}, nil, nil)
	res := Module(app, pythonAdapter(t), idx)

	assert.True(t, hasEdge(res.Edges, model.Edge{From: "app.Worker", To: "base.Service", Kind: model.EdgeInherits}))
}

func TestModuleSameModuleCallBinding(t *testing.T) {
	mod := &model.Module{ID: "m.py", Name: "m", Language: "python"}
	mod.Symbols = []*model.Symbol{
		{ID: "m.a", Module: mod.ID, Name: "a", Kind: model.KindFunction, Visibility: model.VisibilityPublic},
		{ID: "m.b", Module: mod.ID, Name: "b", Kind: model.KindFunction, Visibility: model.VisibilityPrivate},
	}
	mod.Refs = []model.Reference{
		{From: "m.a", Name: "b", Kind: model.RefCall, Line: 2},
		// Self-calls never become edges.
		{From: "m.a", Name: "a", Kind: model.RefCall, Line: 3},
	}

	idx := index.Build([]*model.Module{mod}, nil, nil)
	res := Module(mod, pythonAdapter(t), idx)

	require.Len(t, res.Edges, 1)
	assert.Equal(t, model.Edge{From: "m.a", To: "m.b", Kind: model.EdgeCalls}, res.Edges[0])
}

func TestModuleDeduplicatesRepeatedEdges(t *testing.T) {
	mod := &model.Module{ID: "m.py", Name: "m", Language: "python"}
	mod.Symbols = []*model.Symbol{
		{ID: "m.a", Module: mod.ID, Name: "a", Kind: model.KindFunction, Visibility: model.VisibilityPublic},
		{ID: "m.b", Module: mod.ID, Name: "b", Kind: model.KindFunction, Visibility: model.VisibilityPublic},
	}
	mod.Refs = []model.Reference{
		{From: "m.a", Name: "b", Kind: model.RefCall, Line: 2},
		{From: "m.a", Name: "b", Kind: model.RefCall, Line: 3},
	}

	idx := index.Build([]*model.Module{mod}, nil, nil)
	res := Module(mod, pythonAdapter(t), idx)
	assert.Len(t, res.Edges, 1)
}
