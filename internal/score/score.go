// Package score ranks symbols by estimated criticality: a deterministic,
// replaceable heuristic over fan-in, visibility, domain-significance
// keywords, and existing test coverage.
package score

import (
	"path"
	"sort"
	"strings"

	"github.com/jward/atlas/internal/model"
)

// Input is the entity and graph metadata one symbol is scored from.
type Input struct {
	Symbol   *model.Symbol
	FanIn    int // distinct callers/referencers
	MaxFanIn int // project-wide maximum, for normalization
	HasTest  bool
}

// Strategy computes a score in [0,1] from one symbol's input. The default
// weighting is approximate and expected to be tuned independently of the
// engine, so callers may swap in their own.
type Strategy func(Input) float64

// Component weights of the default strategy.
const (
	weightFanIn      = 0.40
	weightVisibility = 0.20
	weightKeyword    = 0.25
	weightUntested   = 0.15
)

// businessKeywords mark names and docs that likely carry domain logic.
var businessKeywords = []string{
	"create", "update", "delete", "process", "calculate", "validate",
	"transform", "generate", "execute", "perform", "handle", "manage",
}

// skipPatterns suppress the keyword signal for scaffolding and test
// helpers regardless of what else their names contain.
var skipPatterns = []string{
	"test_", "_test", "setup", "teardown", "mock", "stub",
	"__init__", "__str__", "__repr__", "helper", "util",
}

// Default is the built-in strategy. Opaque symbols carry no trustworthy
// signature, doc, or visibility, so only their fan-in component applies;
// they stay in the ranking rather than being excluded.
func Default(in Input) float64 {
	s := 0.0
	if in.MaxFanIn > 0 {
		s += weightFanIn * float64(in.FanIn) / float64(in.MaxFanIn)
	}
	if in.Symbol.Kind == model.KindOpaque {
		return s
	}
	if in.Symbol.Visibility == model.VisibilityPublic {
		s += weightVisibility
	}
	if keywordMatch(in.Symbol) {
		s += weightKeyword
	}
	if !in.HasTest {
		s += weightUntested
	}
	return s
}

func keywordMatch(sym *model.Symbol) bool {
	name := strings.ToLower(sym.Name)
	for _, p := range skipPatterns {
		if strings.Contains(name, p) {
			return false
		}
	}
	doc := strings.ToLower(sym.Doc)
	for _, kw := range businessKeywords {
		if strings.Contains(name, kw) || strings.Contains(doc, kw) {
			return true
		}
	}
	return false
}

// Rank scores every symbol and produces the total order: score descending,
// ties broken by qualified name ascending, so the ranking is reproducible
// independent of traversal or map iteration order.
func Rank(symbols []*model.Symbol, fanIn func(id string) int, hasTest func(*model.Symbol) bool, strategy Strategy) []model.CriticalityScore {
	if strategy == nil {
		strategy = Default
	}

	maxFanIn := 0
	fans := make(map[string]int, len(symbols))
	for _, sym := range symbols {
		f := fanIn(sym.ID)
		fans[sym.ID] = f
		if f > maxFanIn {
			maxFanIn = f
		}
	}

	scores := make([]model.CriticalityScore, 0, len(symbols))
	for _, sym := range symbols {
		scores = append(scores, model.CriticalityScore{
			SymbolID: sym.ID,
			Score: strategy(Input{
				Symbol:   sym,
				FanIn:    fans[sym.ID],
				MaxFanIn: maxFanIn,
				HasTest:  hasTest(sym),
			}),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].SymbolID < scores[j].SymbolID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// IsTestModule reports whether a relative path follows one of the
// per-language test naming conventions.
func IsTestModule(rel string) bool {
	base := path.Base(rel)
	switch {
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.HasSuffix(base, "_test.py"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.HasSuffix(base, "Test.java"),
		strings.HasSuffix(base, "Tests.java"):
		return true
	}
	return false
}
