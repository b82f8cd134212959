package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/atlas/internal/model"
)

func testModules() []*model.Module {
	util := &model.Module{ID: "pkg/util.py", Name: "pkg.util", Language: "python"}
	util.Symbols = []*model.Symbol{
		{ID: "pkg.util.helper", Module: util.ID, Name: "helper", Kind: model.KindFunction, Visibility: model.VisibilityPublic},
		{ID: "pkg.util.Codec", Module: util.ID, Name: "Codec", Kind: model.KindClass, Visibility: model.VisibilityPublic},
	}
	app := &model.Module{ID: "app.py", Name: "app", Language: "python"}
	app.Symbols = []*model.Symbol{
		{ID: "app.main", Module: app.ID, Name: "main", Kind: model.KindFunction, Visibility: model.VisibilityPublic},
	}
	return []*model.Module{util, app}
}

func TestBuildLookups(t *testing.T) {
	idx := Build(testModules(), []string{"src"}, nil)

	require.NotNil(t, idx.Module("pkg/util.py"))
	assert.Nil(t, idx.Module("nope.py"))

	require.NotNil(t, idx.ModuleByName("pkg.util"))
	assert.Equal(t, "pkg/util.py", idx.ModuleByName("pkg.util").ID)

	sym := idx.Symbol("pkg.util.helper")
	require.NotNil(t, sym)
	assert.Equal(t, "helper", sym.Name)

	assert.Same(t, sym, idx.Lookup("pkg/util.py", "helper"))
	assert.Nil(t, idx.Lookup("pkg/util.py", "main"))
	assert.Nil(t, idx.Lookup("missing.py", "helper"))

	classes := idx.ClassesNamed("Codec")
	require.Len(t, classes, 1)
	assert.Equal(t, "pkg.util.Codec", classes[0].ID)

	assert.True(t, idx.HasFile("pkg/util.py"))
	assert.False(t, idx.HasFile("pkg/util"))
	assert.True(t, idx.HasDir("pkg"))
	assert.False(t, idx.HasDir("app"))

	assert.Equal(t, []string{"src"}, idx.SourceRoots())
	assert.Empty(t, idx.Duplicates())
}

func TestBuildRecordsCrossFileDuplicates(t *testing.T) {
	a := &model.Module{ID: "x/Thing.java", Name: "dup", Symbols: []*model.Symbol{
		{ID: "dup.Thing", Module: "x/Thing.java", Name: "Thing", Kind: model.KindClass},
	}}
	b := &model.Module{ID: "y/Thing.java", Name: "dup", Symbols: []*model.Symbol{
		{ID: "dup.Thing", Module: "y/Thing.java", Name: "Thing", Kind: model.KindClass},
	}}
	idx := Build([]*model.Module{a, b}, nil, nil)

	assert.Equal(t, []string{"dup.Thing"}, idx.Duplicates())
	// First declaration stays visible.
	assert.Equal(t, "x/Thing.java", idx.Symbol("dup.Thing").Module)
}

func TestResolveAliasLongestPrefix(t *testing.T) {
	idx := Build(nil, nil, map[string]string{
		"@app":     "src",
		"@app/ui":  "src/components",
		"~lib":     "lib",
	})

	got, ok := idx.ResolveAlias("@app/ui/button")
	require.True(t, ok)
	assert.Equal(t, "src/components/button", got)

	got, ok = idx.ResolveAlias("@app/core")
	require.True(t, ok)
	assert.Equal(t, "src/core", got)

	got, ok = idx.ResolveAlias("~lib")
	require.True(t, ok)
	assert.Equal(t, "lib", got)

	_, ok = idx.ResolveAlias("@apple/core")
	assert.False(t, ok)

	_, ok = idx.ResolveAlias("react")
	assert.False(t, ok)
}
