// Package model defines the unified entity model produced by one analysis
// run: modules, symbols, typed edges, criticality scores, and diagnostics,
// aggregated into an immutable ProjectModel.
package model

import "time"

// SymbolKind classifies a named code entity.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindMethod   SymbolKind = "method"
	KindClass    SymbolKind = "class"
	KindVariable SymbolKind = "variable"

	// KindOpaque marks a symbol extracted from a construct the adapter could
	// not fully interpret. It carries identity and span but no signature.
	KindOpaque SymbolKind = "opaque"
)

// Visibility is a symbol's declared or conventional visibility.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Span is a half-open source range in 1-based lines and 0-based columns.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Param is one entry in a symbol's ordered parameter list.
type Param struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`
	Variadic   bool   `json:"variadic,omitempty"`
}

// Symbol is a named, addressable code entity. ID is the qualified name,
// unique within a ProjectModel: <module>.<name> for module-level symbols,
// <module>.<Class>.<name> for members.
type Symbol struct {
	ID         string     `json:"id"`
	Module     string     `json:"-"` // owning module ID (relative path)
	Name       string     `json:"-"`
	Kind       SymbolKind `json:"kind"`
	Signature  []Param    `json:"signature,omitempty"`
	Span       Span       `json:"span"`
	Doc        string     `json:"doc,omitempty"`
	Visibility Visibility `json:"visibility"`
}

// RawImport is one unresolved import statement as written in source.
type RawImport struct {
	Source string   // the import specifier text (module path, package, ...)
	Names  []string // imported names for from-style imports, nil otherwise
	Alias  string   // local alias, if any
	Line   int
}

// RefKind classifies a best-effort textual reference collected during
// extraction, before resolution.
type RefKind string

const (
	RefCall RefKind = "call" // call site inside a symbol body
	RefBase RefKind = "base" // base class / extends clause
	RefType RefKind = "type" // declared parameter or return type
)

// Reference is an unresolved textual reference from a symbol to a name.
// Qualifier holds the receiver or module prefix for member accesses
// (the "a" in a.foo()), empty for bare identifiers.
type Reference struct {
	From      string // symbol ID of the referencing symbol
	Name      string
	Qualifier string
	Kind      RefKind
	Line      int
}

// Module is one source file: a language tag, its symbols in source order,
// raw import statements, and collected references.
type Module struct {
	ID       string // slash-separated path relative to the project root
	Name     string // dotted module name used in qualified names
	Language string
	Imports  []RawImport
	Symbols  []*Symbol   // source order
	Refs     []Reference // source order
}

// EdgeKind is the type of a dependency edge.
type EdgeKind string

const (
	EdgeCalls    EdgeKind = "calls"
	EdgeImports  EdgeKind = "imports"
	EdgeInherits EdgeKind = "inherits"
	EdgeUsesType EdgeKind = "uses-type"
	EdgeUnknown  EdgeKind = "unknown"
)

// Edge is a typed relation between two nodes (symbols or modules).
// Endpoints always name nodes present in the model, including the reserved
// unknown:<spec> placeholder and external:<spec> terminal forms.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"type"`
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagKind identifies the diagnostic taxonomy entry.
type DiagKind string

const (
	DiagSyntaxError          DiagKind = "SyntaxError"
	DiagUnsupportedConstruct DiagKind = "UnsupportedConstruct"
	DiagUnresolvedImport     DiagKind = "UnresolvedImport"
	DiagReadError            DiagKind = "IOError"
	DiagImportCycle          DiagKind = "ImportCycle"
	DiagSkippedFile          DiagKind = "SkippedFile"
)

// Diagnostic is one recoverable finding attached to the model.
type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Kind     DiagKind `json:"kind"`
	Message  string   `json:"message"`
}

// CriticalityScore is a symbol's normalized importance and its position in
// the total rank order.
type CriticalityScore struct {
	SymbolID string  `json:"symbol_id"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// ProjectModel is the complete analysis snapshot for one run. Once returned
// by the assembler it is shared read-only; a source change triggers a fresh
// build, never an in-place update.
type ProjectModel struct {
	Root        string
	ContentHash string
	GeneratedAt time.Time

	Modules     []*Module // sorted by ID
	Edges       []Edge    // sorted by (from, to, kind)
	Scores      []CriticalityScore
	Diagnostics []Diagnostic

	symbols map[string]*Symbol
}

// NewProjectModel builds the aggregate and its symbol lookup index. The
// caller (the assembler) must have validated qualified-name uniqueness.
func NewProjectModel(root, hash string, generated time.Time, modules []*Module, edges []Edge, scores []CriticalityScore, diags []Diagnostic) *ProjectModel {
	m := &ProjectModel{
		Root:        root,
		ContentHash: hash,
		GeneratedAt: generated,
		Modules:     modules,
		Edges:       edges,
		Scores:      scores,
		Diagnostics: diags,
		symbols:     make(map[string]*Symbol),
	}
	for _, mod := range modules {
		for _, sym := range mod.Symbols {
			m.symbols[sym.ID] = sym
		}
	}
	return m
}

// Symbol returns the symbol with the given qualified name, or nil.
func (m *ProjectModel) Symbol(id string) *Symbol {
	return m.symbols[id]
}

// Symbols returns all symbols in module order then source order.
func (m *ProjectModel) Symbols() []*Symbol {
	var out []*Symbol
	for _, mod := range m.Modules {
		out = append(out, mod.Symbols...)
	}
	return out
}
