package atlas

import "github.com/jward/atlas/internal/model"

// Public type aliases for internal model types appearing in the Engine
// API. These are Go type aliases (=) — identical to the internal types at
// compile time. External consumers use these names; no conversion is
// needed.

type ProjectModel = model.ProjectModel
type Document = model.Document
type DocumentModule = model.DocumentModule
type DocumentSymbol = model.DocumentSymbol
type Module = model.Module
type Symbol = model.Symbol
type Param = model.Param
type Span = model.Span
type Edge = model.Edge
type Diagnostic = model.Diagnostic
type CriticalityScore = model.CriticalityScore
type SymbolKind = model.SymbolKind
type EdgeKind = model.EdgeKind
