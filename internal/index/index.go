// Package index holds the frozen global symbol and module index built at
// the barrier between extraction and resolution. Build runs on a single
// goroutine once all files are extracted; the resulting Index is read-only
// and safe for concurrent use by resolution workers without locking.
package index

import (
	"path"
	"strings"

	"github.com/jward/atlas/internal/model"
)

// Index is the read-only cross-file lookup structure used during import
// resolution and reference binding.
type Index struct {
	modules       map[string]*model.Module            // by relative path
	modulesByName map[string]*model.Module            // by dotted module name
	symbols       map[string]*model.Symbol            // by qualified name, first declaration wins
	byModule      map[string]map[string]*model.Symbol // module ID -> simple name -> symbol
	classes       map[string][]*model.Symbol          // simple class name -> class symbols
	files         map[string]bool                     // set of relative paths in the project
	dirs          map[string]bool                     // set of relative directories in the project

	sourceRoots []string
	pathAliases map[string]string

	duplicates []string // qualified names declared more than once
}

// Build constructs the index from all extracted modules. Duplicate
// qualified names are recorded, not resolved; the assembler treats any
// duplicate as a fatal ModelConflict.
func Build(modules []*model.Module, sourceRoots []string, pathAliases map[string]string) *Index {
	idx := &Index{
		modules:       make(map[string]*model.Module, len(modules)),
		modulesByName: make(map[string]*model.Module, len(modules)),
		symbols:       make(map[string]*model.Symbol),
		byModule:      make(map[string]map[string]*model.Symbol, len(modules)),
		classes:       make(map[string][]*model.Symbol),
		files:         make(map[string]bool, len(modules)),
		dirs:          make(map[string]bool),
		sourceRoots:   sourceRoots,
		pathAliases:   pathAliases,
	}
	for _, mod := range modules {
		idx.modules[mod.ID] = mod
		idx.files[mod.ID] = true
		for dir := path.Dir(mod.ID); dir != "." && dir != "/"; dir = path.Dir(dir) {
			idx.dirs[dir] = true
		}
		if _, ok := idx.modulesByName[mod.Name]; !ok {
			idx.modulesByName[mod.Name] = mod
		}
		names := make(map[string]*model.Symbol, len(mod.Symbols))
		for _, sym := range mod.Symbols {
			if _, ok := idx.symbols[sym.ID]; ok {
				idx.duplicates = append(idx.duplicates, sym.ID)
				continue
			}
			idx.symbols[sym.ID] = sym
			if _, ok := names[sym.Name]; !ok {
				names[sym.Name] = sym
			}
			if sym.Kind == model.KindClass {
				idx.classes[sym.Name] = append(idx.classes[sym.Name], sym)
			}
		}
		idx.byModule[mod.ID] = names
	}
	return idx
}

// Module returns the module with the given relative path, or nil.
func (x *Index) Module(id string) *model.Module { return x.modules[id] }

// ModuleByName returns the module with the given dotted name, or nil.
func (x *Index) ModuleByName(name string) *model.Module { return x.modulesByName[name] }

// Symbol returns the symbol with the given qualified name, or nil.
func (x *Index) Symbol(qname string) *model.Symbol { return x.symbols[qname] }

// Lookup finds a symbol by simple name within a module, or nil.
func (x *Index) Lookup(moduleID, name string) *model.Symbol {
	if names, ok := x.byModule[moduleID]; ok {
		return names[name]
	}
	return nil
}

// ClassesNamed returns all class symbols with the given simple name, in
// index build order.
func (x *Index) ClassesNamed(simple string) []*model.Symbol { return x.classes[simple] }

// HasFile reports whether the project contains a file at the given
// slash-separated relative path.
func (x *Index) HasFile(rel string) bool { return x.files[path.Clean(rel)] }

// HasDir reports whether the project contains any file under the given
// slash-separated relative directory.
func (x *Index) HasDir(rel string) bool { return x.dirs[path.Clean(rel)] }

// SourceRoots returns the declared source roots, in declaration order.
func (x *Index) SourceRoots() []string { return x.sourceRoots }

// ResolveAlias applies the optional path-mapping table to a bare import
// specifier. Longest-prefix match; returns ("", false) when no alias
// applies.
func (x *Index) ResolveAlias(spec string) (string, bool) {
	var best, repl string
	for prefix, target := range x.pathAliases {
		if (spec == prefix || strings.HasPrefix(spec, prefix+"/")) && len(prefix) > len(best) {
			best, repl = prefix, target
		}
	}
	if best == "" {
		return "", false
	}
	return repl + strings.TrimPrefix(spec, best), true
}

// Duplicates returns qualified names declared more than once, in the order
// they were first re-declared.
func (x *Index) Duplicates() []string { return x.duplicates }
