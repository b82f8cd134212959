// Package lang implements the per-language adapters: a closed set of
// variants sharing one capability interface (parse, enumerate declarations,
// enumerate imports, resolve imports). Core extraction, graph, and scoring
// logic depends only on the Adapter interface; adding a language means
// registering a new adapter, never touching downstream packages.
package lang

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/model"
)

// Adapter is the capability set every language variant implements.
type Adapter interface {
	// Name returns the canonical language name ("python", "java", ...).
	Name() string

	// Extensions returns the file extensions this adapter claims,
	// lowercase with leading dot.
	Extensions() []string

	// Parse produces a full-fidelity tree or a *ParseError. A parse
	// failure is file-local and never aborts a project-wide run.
	Parse(ctx context.Context, src []byte) (*sitter.Tree, error)

	// Extract traverses one file's tree into unified symbols, raw
	// references, and per-node diagnostics, appended to mod in source
	// order. Re-extracting an unchanged tree yields identical output.
	Extract(root *sitter.Node, src []byte, mod *model.Module) []model.Diagnostic

	// Imports enumerates the file's raw import statements in source order.
	Imports(root *sitter.Node, src []byte) []model.RawImport

	// Resolve applies the language's resolution policy to one raw import
	// against the frozen index.
	Resolve(imp model.RawImport, mod *model.Module, idx *index.Index) Resolution
}

// Resolution is the outcome of resolving one raw import.
type Resolution struct {
	Target   string // module ID, or external specifier when External
	External bool   // bare specifier outside the local file set
	OK       bool   // false means unresolved: unknown edge + diagnostic
}

// ParseErrorKind distinguishes the two file-local parse failures.
type ParseErrorKind int

const (
	SyntaxError ParseErrorKind = iota
	UnsupportedEncoding
)

// ParseError is a file-local parse failure. The file is skipped and its
// symbols are lost; other files are unaffected.
type ParseError struct {
	Kind ParseErrorKind
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }

// registry maps extensions to adapters. Adapters register from init, so
// the set is fixed before any concurrent use.
var registry = map[string]Adapter{}

func register(a Adapter) {
	for _, ext := range a.Extensions() {
		registry[ext] = a
	}
}

// ForFile returns the adapter claiming the file's extension.
func ForFile(path string) (Adapter, bool) {
	a, ok := registry[strings.ToLower(filepath.Ext(path))]
	return a, ok
}

// ForLanguage returns the adapter with the given canonical name.
func ForLanguage(name string) (Adapter, bool) {
	for _, a := range registry {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Languages returns the canonical names of all registered adapters.
func Languages() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range registry {
		if !seen[a.Name()] {
			seen[a.Name()] = true
			out = append(out, a.Name())
		}
	}
	return out
}

// parseWith is the shared Parse implementation: encoding check, a fresh
// parser per call (tree-sitter parsers are not goroutine-safe), and a
// syntax-error check on the resulting tree.
func parseWith(ctx context.Context, grammar *sitter.Language, src []byte) (*sitter.Tree, error) {
	if !utf8.Valid(src) {
		return nil, &ParseError{Kind: UnsupportedEncoding, Msg: "invalid UTF-8 encoding"}
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, &ParseError{Kind: SyntaxError, Msg: "syntax error"}
	}
	return tree, nil
}

// ExtractFile runs one file through an adapter: parse, extract symbols and
// references, enumerate imports. Parse failures are file-local: the module
// is nil and the failure comes back as a diagnostic. The error return is
// reserved for context cancellation, which aborts the whole run.
func ExtractFile(ctx context.Context, a Adapter, rel string, src []byte) (*model.Module, []model.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	tree, err := a.Parse(ctx, src)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, nil, cerr
		}
		kind := model.DiagSyntaxError
		var perr *ParseError
		if errors.As(err, &perr) && perr.Kind == UnsupportedEncoding {
			kind = model.DiagReadError
		}
		return nil, []model.Diagnostic{{
			File:     rel,
			Line:     1,
			Severity: model.SeverityError,
			Kind:     kind,
			Message:  err.Error(),
		}}, nil
	}
	defer tree.Close()

	mod := &model.Module{ID: rel, Name: moduleName(rel), Language: a.Name()}
	diags := a.Extract(tree.RootNode(), src, mod)
	mod.Imports = a.Imports(tree.RootNode(), src)
	return mod, diags, nil
}

// text returns the source text of a node, empty for nil.
func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// spanOf converts tree-sitter points to a model span (1-based lines).
func spanOf(n *sitter.Node) model.Span {
	return model.Span{
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column),
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column),
	}
}

// line returns the 1-based start line of a node.
func line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

// walk visits n and all descendants in depth-first source order.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}

// nameAlloc deduplicates qualified names within one file. Overload sets
// (same name declared more than once in the same scope) get a stable
// ordinal suffix in source order; cross-file duplicates are left intact so
// the assembler can reject them as a ModelConflict.
type nameAlloc struct {
	seen map[string]int
}

func newNameAlloc() *nameAlloc { return &nameAlloc{seen: map[string]int{}} }

func (a *nameAlloc) take(qname string) string {
	n := a.seen[qname]
	a.seen[qname] = n + 1
	if n == 0 {
		return qname
	}
	return fmt.Sprintf("%s#%d", qname, n+1)
}

// moduleName derives a dotted module name from a slash-separated relative
// path by stripping the extension.
func moduleName(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, "/", ".")
}

// opaque builds a degraded symbol for a construct the adapter could not
// interpret: identity and location only, no signature.
func opaque(mod *model.Module, alloc *nameAlloc, n *sitter.Node) (*model.Symbol, model.Diagnostic) {
	name := fmt.Sprintf("%s@%d", n.Type(), line(n))
	sym := &model.Symbol{
		ID:         alloc.take(mod.Name + "." + name),
		Module:     mod.ID,
		Name:       name,
		Kind:       model.KindOpaque,
		Span:       spanOf(n),
		Visibility: model.VisibilityPrivate,
	}
	diag := model.Diagnostic{
		File:     mod.ID,
		Line:     line(n),
		Severity: model.SeverityWarning,
		Kind:     model.DiagUnsupportedConstruct,
		Message:  fmt.Sprintf("unsupported construct %q degraded to opaque symbol", n.Type()),
	}
	return sym, diag
}
