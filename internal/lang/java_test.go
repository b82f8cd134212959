package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/model"
)

func TestJavaExtractSymbols(t *testing.T) {
	src := `package com.acme.billing;

import java.util.List;

/**
 * Computes invoice totals.
 */
public class InvoiceService extends BaseService {

    private List items;

    public double calculateTotal(List items, double... rates) {
        return validator.check(items);
    }

    void reset() {
    }
}
`
	mod, diags := extractSource(t, "src/com/acme/billing/InvoiceService.java", src)
	assert.Empty(t, diags)
	// The declared package wins over the path-derived name.
	assert.Equal(t, "com.acme.billing", mod.Name)

	service := findSymbol(t, mod, "com.acme.billing.InvoiceService")
	assert.Equal(t, model.KindClass, service.Kind)
	assert.Equal(t, model.VisibilityPublic, service.Visibility)
	assert.Equal(t, "Computes invoice totals.", service.Doc)

	items := findSymbol(t, mod, "com.acme.billing.InvoiceService.items")
	assert.Equal(t, model.KindVariable, items.Kind)
	assert.Equal(t, model.VisibilityPrivate, items.Visibility)

	total := findSymbol(t, mod, "com.acme.billing.InvoiceService.calculateTotal")
	assert.Equal(t, model.KindMethod, total.Kind)
	assert.Equal(t, model.VisibilityPublic, total.Visibility)
	require.Len(t, total.Signature, 2)
	assert.Equal(t, "items", total.Signature[0].Name)
	assert.Equal(t, "List", total.Signature[0].Type)
	assert.True(t, total.Signature[1].Variadic)

	reset := findSymbol(t, mod, "com.acme.billing.InvoiceService.reset")
	assert.Equal(t, model.VisibilityPrivate, reset.Visibility)

	var bases, calls []model.Reference
	for _, ref := range mod.Refs {
		switch ref.Kind {
		case model.RefBase:
			bases = append(bases, ref)
		case model.RefCall:
			calls = append(calls, ref)
		}
	}
	require.Len(t, bases, 1)
	assert.Equal(t, "BaseService", bases[0].Name)
	require.Len(t, calls, 1)
	assert.Equal(t, "check", calls[0].Name)
	assert.Equal(t, "validator", calls[0].Qualifier)
}

func TestJavaOverloadsGetOrdinalSuffix(t *testing.T) {
	src := `package p;

class Fmt {
    void write(int x) {}
    void write(String x) {}
}
`
	mod, _ := extractSource(t, "Fmt.java", src)
	findSymbol(t, mod, "p.Fmt.write")
	findSymbol(t, mod, "p.Fmt.write#2")
}

func TestJavaExtractImports(t *testing.T) {
	src := `package p;

import java.util.Map;
import static org.lib.Util.helper;
import com.acme.core.*;

class C {}
`
	mod, _ := extractSource(t, "C.java", src)
	require.Len(t, mod.Imports, 3)

	assert.Equal(t, "java.util.Map", mod.Imports[0].Source)
	assert.Equal(t, []string{"Map"}, mod.Imports[0].Names)

	assert.Equal(t, "org.lib.Util.helper", mod.Imports[1].Source)
	assert.Equal(t, []string{"helper"}, mod.Imports[1].Names)

	assert.Equal(t, "com.acme.core.*", mod.Imports[2].Source)
	assert.Empty(t, mod.Imports[2].Names)
}

func TestJavaResolve(t *testing.T) {
	adapter, ok := ForLanguage("java")
	require.True(t, ok)

	core := &model.Module{ID: "core/Validator.java", Name: "com.acme.core", Language: "java"}
	core.Symbols = []*model.Symbol{{
		ID: "com.acme.core.Validator", Module: core.ID, Name: "Validator",
		Kind: model.KindClass, Visibility: model.VisibilityPublic,
	}}
	idx := index.Build([]*model.Module{core}, nil, nil)
	from := &model.Module{ID: "app/Main.java", Name: "com.acme.app", Language: "java"}

	tests := []struct {
		name     string
		spec     string
		target   string
		external bool
		ok       bool
	}{
		{"fully qualified class", "com.acme.core.Validator", "core/Validator.java", false, true},
		{"wildcard package", "com.acme.core.*", "core/Validator.java", false, true},
		{"jdk namespace external", "java.util.List", "java.util.List", true, true},
		{"unknown class unresolved", "com.acme.core.Missing", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := adapter.Resolve(model.RawImport{Source: tt.spec}, from, idx)
			assert.Equal(t, tt.ok, r.OK)
			assert.Equal(t, tt.external, r.External)
			if tt.ok {
				assert.Equal(t, tt.target, r.Target)
			}
		})
	}
}
