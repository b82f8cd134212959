package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScript shares the path-style adapter with JavaScript; only the
// grammar differs. JSX is not part of the plain typescript grammar, so
// .tsx registers its own entry against the tsx grammar. Both entries carry
// the same name and resolution policy.
func init() {
	register(&jsAdapter{
		name:    "typescript",
		exts:    []string{".ts"},
		grammar: ts.GetLanguage,
	})
	register(&jsAdapter{
		name:    "typescript",
		exts:    []string{".tsx"},
		grammar: tsx.GetLanguage,
	})
}
