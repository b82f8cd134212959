package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Document is the serialized form of a ProjectModel handed to external
// consumers (test generation, execution, reporting).
type Document struct {
	ProjectRoot string             `json:"project_root"`
	GeneratedAt time.Time          `json:"generated_at"`
	ContentHash string             `json:"content_hash"`
	Modules     []DocumentModule   `json:"modules"`
	Symbols     []DocumentSymbol   `json:"symbols"`
	Edges       []Edge             `json:"edges"`
	Criticality []CriticalityScore `json:"criticality"`
	Diagnostics []Diagnostic       `json:"diagnostics"`
}

// DocumentModule is one source file entry in the document.
type DocumentModule struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	SymbolIDs []string `json:"symbol_ids"`
}

// DocumentSymbol is one symbol entry. ID and QualifiedName carry the same
// value; both are part of the consumer contract.
type DocumentSymbol struct {
	ID            string     `json:"id"`
	QualifiedName string     `json:"qualified_name"`
	Kind          SymbolKind `json:"kind"`
	Signature     []Param    `json:"signature"`
	Span          Span       `json:"span"`
	Doc           string     `json:"doc,omitempty"`
	Visibility    Visibility `json:"visibility"`
}

// NewDocument flattens a ProjectModel into its serialized form. Slice order
// is inherited from the model, which the assembler sorts deterministically,
// so encoding the same model twice yields identical bytes apart from
// GeneratedAt.
func NewDocument(m *ProjectModel) *Document {
	doc := &Document{
		ProjectRoot: m.Root,
		GeneratedAt: m.GeneratedAt,
		ContentHash: m.ContentHash,
		Modules:     make([]DocumentModule, 0, len(m.Modules)),
		Edges:       append([]Edge(nil), m.Edges...),
		Criticality: append([]CriticalityScore(nil), m.Scores...),
		Diagnostics: append([]Diagnostic(nil), m.Diagnostics...),
	}
	for _, mod := range m.Modules {
		dm := DocumentModule{Path: mod.ID, Language: mod.Language, SymbolIDs: make([]string, 0, len(mod.Symbols))}
		for _, sym := range mod.Symbols {
			dm.SymbolIDs = append(dm.SymbolIDs, sym.ID)
			ds := DocumentSymbol{
				ID:            sym.ID,
				QualifiedName: sym.ID,
				Kind:          sym.Kind,
				Signature:     sym.Signature,
				Span:          sym.Span,
				Doc:           sym.Doc,
				Visibility:    sym.Visibility,
			}
			if ds.Signature == nil {
				ds.Signature = []Param{}
			}
			doc.Symbols = append(doc.Symbols, ds)
		}
		doc.Modules = append(doc.Modules, dm)
	}
	if doc.Symbols == nil {
		doc.Symbols = []DocumentSymbol{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	if doc.Criticality == nil {
		doc.Criticality = []CriticalityScore{}
	}
	if doc.Diagnostics == nil {
		doc.Diagnostics = []Diagnostic{}
	}
	return doc
}

// Encode marshals the document as indented JSON with a trailing newline.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses a serialized document.
func DecodeDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &d, nil
}
