package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/atlas/internal/model"
)

func sym(id, name string, kind model.SymbolKind, vis model.Visibility) *model.Symbol {
	return &model.Symbol{ID: id, Name: name, Kind: kind, Visibility: vis}
}

func TestDefaultStrategy(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want float64
	}{
		{
			"private plain untested",
			Input{Symbol: sym("m._f", "_f", model.KindFunction, model.VisibilityPrivate)},
			weightUntested,
		},
		{
			"public keyword untested max fan-in",
			Input{
				Symbol:   sym("m.process", "process_data", model.KindFunction, model.VisibilityPublic),
				FanIn:    4,
				MaxFanIn: 4,
			},
			weightFanIn + weightVisibility + weightKeyword + weightUntested,
		},
		{
			"tested drops the untested component",
			Input{
				Symbol:  sym("m.f", "f", model.KindFunction, model.VisibilityPublic),
				HasTest: true,
			},
			weightVisibility,
		},
		{
			"fan-in normalized by maximum",
			Input{
				Symbol:   sym("m.f", "f", model.KindFunction, model.VisibilityPrivate),
				FanIn:    1,
				MaxFanIn: 4,
				HasTest:  true,
			},
			weightFanIn / 4,
		},
		{
			"doc keyword counts",
			Input{
				Symbol: &model.Symbol{
					ID: "m.f", Name: "f", Kind: model.KindFunction,
					Visibility: model.VisibilityPrivate,
					Doc:        "Validate the incoming payload.",
				},
				HasTest: true,
			},
			weightKeyword,
		},
		{
			"skip pattern suppresses keyword",
			Input{
				Symbol:  sym("m.h", "process_helper", model.KindFunction, model.VisibilityPrivate),
				HasTest: true,
			},
			0,
		},
		{
			"opaque uses fan-in only",
			Input{
				Symbol:   sym("m.op", "create_thing", model.KindOpaque, model.VisibilityPublic),
				FanIn:    2,
				MaxFanIn: 4,
			},
			weightFanIn / 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Default(tt.in), 1e-9)
		})
	}
}

func TestScoresStayInUnitInterval(t *testing.T) {
	in := Input{
		Symbol:   sym("m.create", "create_order", model.KindFunction, model.VisibilityPublic),
		FanIn:    10,
		MaxFanIn: 10,
	}
	s := Default(in)
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestRankOrderAndTieBreak(t *testing.T) {
	symbols := []*model.Symbol{
		sym("b.zeta", "zeta", model.KindFunction, model.VisibilityPrivate),
		sym("a.alpha", "alpha", model.KindFunction, model.VisibilityPrivate),
		sym("c.hot", "hot", model.KindFunction, model.VisibilityPrivate),
	}
	fanIn := func(id string) int {
		if id == "c.hot" {
			return 3
		}
		return 0
	}
	scores := Rank(symbols, fanIn, func(*model.Symbol) bool { return false }, nil)

	require.Len(t, scores, 3)
	assert.Equal(t, "c.hot", scores[0].SymbolID)
	assert.Equal(t, 1, scores[0].Rank)
	// a.alpha and b.zeta tie; the qualified name breaks the tie.
	assert.Equal(t, "a.alpha", scores[1].SymbolID)
	assert.Equal(t, "b.zeta", scores[2].SymbolID)
	assert.Equal(t, 3, scores[2].Rank)
	assert.Equal(t, scores[1].Score, scores[2].Score)
}

func TestRankDeterministic(t *testing.T) {
	symbols := []*model.Symbol{
		sym("m.a", "a", model.KindFunction, model.VisibilityPublic),
		sym("m.b", "b", model.KindFunction, model.VisibilityPrivate),
		sym("m.c", "create", model.KindFunction, model.VisibilityPublic),
	}
	fanIn := func(id string) int { return len(id) % 3 }
	hasTest := func(*model.Symbol) bool { return false }

	first := Rank(symbols, fanIn, hasTest, nil)
	second := Rank(symbols, fanIn, hasTest, nil)
	assert.Equal(t, first, second)
}

func TestIsTestModule(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"tests/test_orders.py", true},
		{"pkg/orders_test.py", true},
		{"src/orders.test.ts", true},
		{"src/orders.spec.js", true},
		{"src/OrderServiceTest.java", true},
		{"src/OrderServiceTests.java", true},
		{"src/orders.py", false},
		{"src/contest.py", false},
		{"src/latest.js", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTestModule(tt.rel), tt.rel)
	}
}
