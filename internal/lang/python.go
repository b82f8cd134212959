package lang

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/model"
)

func init() { register(&pythonAdapter{}) }

// pythonAdapter is the package-style language variant: dotted imports
// resolved against source roots, with __init__.py package markers and
// underscore-prefix visibility.
type pythonAdapter struct{}

func (*pythonAdapter) Name() string         { return "python" }
func (*pythonAdapter) Extensions() []string { return []string{".py"} }

func (*pythonAdapter) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	return parseWith(ctx, python.GetLanguage(), src)
}

func (a *pythonAdapter) Extract(root *sitter.Node, src []byte, mod *model.Module) []model.Diagnostic {
	var diags []model.Diagnostic
	alloc := newNameAlloc()

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			diags = append(diags, a.extractClass(child, src, mod, alloc)...)
		case "function_definition":
			a.extractFunction(child, src, mod, alloc, "", model.KindFunction)
		case "decorated_definition":
			diags = append(diags, a.extractDecorated(child, src, mod, alloc)...)
		case "expression_statement":
			diags = append(diags, a.extractAssignments(child, src, mod, alloc)...)
		}
	}
	return diags
}

func (a *pythonAdapter) extractDecorated(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc) []model.Diagnostic {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			return a.extractClass(child, src, mod, alloc)
		case "function_definition":
			a.extractFunction(child, src, mod, alloc, "", model.KindFunction)
			return nil
		}
	}
	// A decorator with no recognizable definition underneath.
	sym, diag := opaque(mod, alloc, node)
	mod.Symbols = append(mod.Symbols, sym)
	return []model.Diagnostic{diag}
}

func (a *pythonAdapter) extractClass(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc) []model.Diagnostic {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		sym, diag := opaque(mod, alloc, node)
		mod.Symbols = append(mod.Symbols, sym)
		return []model.Diagnostic{diag}
	}
	name := text(nameNode, src)

	sym := &model.Symbol{
		ID:         alloc.take(mod.Name + "." + name),
		Module:     mod.ID,
		Name:       name,
		Kind:       model.KindClass,
		Span:       spanOf(node),
		Visibility: pyVisibility(name),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		sym.Doc = pyDocstring(body, src)
	}
	mod.Symbols = append(mod.Symbols, sym)

	// Base classes become inherits references, resolved after the barrier.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			arg := supers.NamedChild(i)
			switch arg.Type() {
			case "identifier":
				mod.Refs = append(mod.Refs, model.Reference{
					From: sym.ID, Name: text(arg, src), Kind: model.RefBase, Line: line(arg),
				})
			case "attribute":
				mod.Refs = append(mod.Refs, model.Reference{
					From:      sym.ID,
					Name:      text(arg.ChildByFieldName("attribute"), src),
					Qualifier: text(arg.ChildByFieldName("object"), src),
					Kind:      model.RefBase,
					Line:      line(arg),
				})
			}
		}
	}

	var diags []model.Diagnostic
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			switch child.Type() {
			case "function_definition":
				a.extractFunction(child, src, mod, alloc, name, model.KindMethod)
			case "decorated_definition":
				for j := 0; j < int(child.NamedChildCount()); j++ {
					if def := child.NamedChild(j); def.Type() == "function_definition" {
						a.extractFunction(def, src, mod, alloc, name, model.KindMethod)
					}
				}
			}
		}
	}
	return diags
}

func (a *pythonAdapter) extractFunction(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, class string, kind model.SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, src)
	qname := mod.Name + "." + name
	if class != "" {
		qname = mod.Name + "." + class + "." + name
	}

	sym := &model.Symbol{
		ID:         alloc.take(qname),
		Module:     mod.ID,
		Name:       name,
		Kind:       kind,
		Span:       spanOf(node),
		Visibility: pyVisibility(name),
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sym.Signature = a.extractParams(params, src, mod, sym.ID)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		addTypeRef(mod, sym.ID, text(ret, src), line(ret))
	}
	if body := node.ChildByFieldName("body"); body != nil {
		sym.Doc = pyDocstring(body, src)
		collectPyCalls(body, src, mod, sym.ID)
	}
	mod.Symbols = append(mod.Symbols, sym)
}

func (a *pythonAdapter) extractParams(params *sitter.Node, src []byte, mod *model.Module, fromID string) []model.Param {
	var out []model.Param
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, model.Param{Name: text(p, src)})
		case "typed_parameter":
			typ := text(p.ChildByFieldName("type"), src)
			out = append(out, model.Param{Name: text(p.NamedChild(0), src), Type: typ})
			addTypeRef(mod, fromID, typ, line(p))
		case "default_parameter":
			out = append(out, model.Param{Name: text(p.ChildByFieldName("name"), src), HasDefault: true})
		case "typed_default_parameter":
			typ := text(p.ChildByFieldName("type"), src)
			out = append(out, model.Param{
				Name: text(p.ChildByFieldName("name"), src), Type: typ, HasDefault: true,
			})
			addTypeRef(mod, fromID, typ, line(p))
		case "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, model.Param{Name: strings.TrimLeft(text(p, src), "*"), Variadic: true})
		}
	}
	return out
}

func (a *pythonAdapter) extractAssignments(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc) []model.Diagnostic {
	var diags []model.Diagnostic
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "assignment" {
			continue
		}
		left := child.ChildByFieldName("left")
		if left == nil {
			continue
		}
		switch left.Type() {
		case "identifier":
			name := text(left, src)
			sym := &model.Symbol{
				ID:         alloc.take(mod.Name + "." + name),
				Module:     mod.ID,
				Name:       name,
				Kind:       model.KindVariable,
				Span:       spanOf(node),
				Visibility: pyVisibility(name),
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				addTypeRef(mod, sym.ID, text(typ, src), line(typ))
			}
			mod.Symbols = append(mod.Symbols, sym)
		case "pattern_list", "tuple_pattern":
			// Multiple assignment targets: identity is ambiguous, degrade.
			sym, diag := opaque(mod, alloc, child)
			mod.Symbols = append(mod.Symbols, sym)
			diags = append(diags, diag)
		}
	}
	return diags
}

func (*pythonAdapter) Imports(root *sitter.Node, src []byte) []model.RawImport {
	var out []model.RawImport
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "import_statement":
			// import a.b, c as d
			for j := 0; j < int(node.NamedChildCount()); j++ {
				child := node.NamedChild(j)
				switch child.Type() {
				case "dotted_name":
					out = append(out, model.RawImport{Source: text(child, src), Line: line(node)})
				case "aliased_import":
					out = append(out, model.RawImport{
						Source: text(child.ChildByFieldName("name"), src),
						Alias:  text(child.ChildByFieldName("alias"), src),
						Line:   line(node),
					})
				}
			}
		case "import_from_statement":
			// from a.b import c, d as e
			moduleNode := node.ChildByFieldName("module_name")
			if moduleNode == nil {
				continue
			}
			imp := model.RawImport{Source: text(moduleNode, src), Line: line(node)}
			for j := 0; j < int(node.NamedChildCount()); j++ {
				child := node.NamedChild(j)
				if child == moduleNode {
					continue
				}
				switch child.Type() {
				case "dotted_name":
					imp.Names = append(imp.Names, text(child, src))
				case "aliased_import":
					imp.Names = append(imp.Names, text(child.ChildByFieldName("name"), src))
				}
			}
			out = append(out, imp)
		}
	}
	return out
}

// Resolve maps dotted specifiers to files: relative imports walk up from
// the importing file's directory, absolute imports are tried against each
// source root, with foo.py preferred over foo/__init__.py. Absolute
// specifiers whose first segment does not exist anywhere in the project
// are external (stdlib or third-party), not unresolved.
func (*pythonAdapter) Resolve(imp model.RawImport, mod *model.Module, idx *index.Index) Resolution {
	spec := imp.Source

	if strings.HasPrefix(spec, ".") {
		dots := len(spec) - len(strings.TrimLeft(spec, "."))
		rest := strings.TrimLeft(spec, ".")
		base := path.Dir(mod.ID)
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
		cand := base
		if rest != "" {
			cand = path.Join(base, strings.ReplaceAll(rest, ".", "/"))
		}
		if target, ok := pyModuleFile(idx, cand, rest == ""); ok {
			return Resolution{Target: target, OK: true}
		}
		return Resolution{}
	}

	parts := strings.Split(spec, ".")
	rel := strings.Join(parts, "/")
	roots := append([]string{""}, idx.SourceRoots()...)
	for _, root := range roots {
		if target, ok := pyModuleFile(idx, path.Join(root, rel), false); ok {
			return Resolution{Target: target, OK: true}
		}
	}

	// Internal means the first segment exists somewhere under a source
	// root; an internal miss is an unresolved import.
	for _, root := range roots {
		head := path.Join(root, parts[0])
		if idx.HasDir(head) || idx.HasFile(head+".py") {
			return Resolution{}
		}
	}
	return Resolution{Target: spec, External: true, OK: true}
}

// pyModuleFile checks the two file forms a dotted path can take. packageOnly
// restricts the lookup to the __init__.py form, used for "from . import x".
func pyModuleFile(idx *index.Index, cand string, packageOnly bool) (string, bool) {
	if !packageOnly && idx.HasFile(cand+".py") {
		return path.Clean(cand + ".py"), true
	}
	if idx.HasFile(path.Join(cand, "__init__.py")) {
		return path.Join(cand, "__init__.py"), true
	}
	return "", false
}

// collectPyCalls records call sites inside a function body.
func collectPyCalls(body *sitter.Node, src []byte, mod *model.Module, fromID string) {
	walk(body, func(n *sitter.Node) bool {
		if n.Type() != "call" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		switch fn.Type() {
		case "identifier":
			mod.Refs = append(mod.Refs, model.Reference{
				From: fromID, Name: text(fn, src), Kind: model.RefCall, Line: line(n),
			})
		case "attribute":
			obj := fn.ChildByFieldName("object")
			qualifier := ""
			if obj != nil && obj.Type() == "identifier" {
				qualifier = text(obj, src)
			}
			mod.Refs = append(mod.Refs, model.Reference{
				From:      fromID,
				Name:      text(fn.ChildByFieldName("attribute"), src),
				Qualifier: qualifier,
				Kind:      model.RefCall,
				Line:      line(n),
			})
		}
		return true
	})
}

// addTypeRef records a declared-type reference, stripping generic
// subscripts (List[Foo] refers to List) and module qualifiers.
func addTypeRef(mod *model.Module, fromID, typeExpr string, ln int) {
	typeExpr = strings.TrimSpace(typeExpr)
	if idx := strings.IndexAny(typeExpr, "[<("); idx != -1 {
		typeExpr = typeExpr[:idx]
	}
	if typeExpr == "" {
		return
	}
	qualifier := ""
	if dot := strings.LastIndex(typeExpr, "."); dot > 0 {
		qualifier, typeExpr = typeExpr[:dot], typeExpr[dot+1:]
	}
	mod.Refs = append(mod.Refs, model.Reference{
		From: fromID, Name: typeExpr, Qualifier: qualifier, Kind: model.RefType, Line: ln,
	})
}

// pyDocstring returns the leading string literal of a block, unquoted.
func pyDocstring(body *sitter.Node, src []byte) string {
	if body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	expr := first.NamedChild(0)
	if expr.Type() != "string" {
		return ""
	}
	raw := text(expr, src)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		raw = strings.TrimPrefix(raw, q)
		raw = strings.TrimSuffix(raw, q)
	}
	return strings.TrimSpace(raw)
}

func pyVisibility(name string) model.Visibility {
	if strings.HasPrefix(name, "_") {
		return model.VisibilityPrivate
	}
	return model.VisibilityPublic
}
