package lang

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/model"
)

func init() {
	register(&jsAdapter{
		name:    "javascript",
		exts:    []string{".js", ".jsx", ".mjs", ".cjs"},
		grammar: javascript.GetLanguage,
	})
}

// jsAdapter is the path/module-style variant, shared by JavaScript and
// TypeScript: relative specifiers resolve against the file set with
// extension and index-file fallbacks, bare specifiers fall through the
// optional path-alias table to a synthetic external node.
type jsAdapter struct {
	name    string
	exts    []string
	grammar func() *sitter.Language
}

func (a *jsAdapter) Name() string         { return a.name }
func (a *jsAdapter) Extensions() []string { return a.exts }

func (a *jsAdapter) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	return parseWith(ctx, a.grammar(), src)
}

// jsResolveExts is the candidate extension order for path-style imports.
var jsResolveExts = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}

func (a *jsAdapter) Extract(root *sitter.Node, src []byte, mod *model.Module) []model.Diagnostic {
	var diags []model.Diagnostic
	alloc := newNameAlloc()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		diags = append(diags, a.extractTopLevel(root.NamedChild(i), src, mod, alloc, false)...)
	}
	return diags
}

// extractTopLevel handles one program-level statement. exported marks
// declarations hoisted out of an export statement.
func (a *jsAdapter) extractTopLevel(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, exported bool) []model.Diagnostic {
	switch node.Type() {
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			return a.extractTopLevel(decl, src, mod, alloc, true)
		}
	case "class_declaration":
		return a.extractClass(node, src, mod, alloc, exported)
	case "interface_declaration", "enum_declaration", "type_alias_declaration":
		// TypeScript type declarations participate as classes so that
		// inherits and uses-type references can bind to them.
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			name := text(nameNode, src)
			mod.Symbols = append(mod.Symbols, &model.Symbol{
				ID:         alloc.take(mod.Name + "." + name),
				Module:     mod.ID,
				Name:       name,
				Kind:       model.KindClass,
				Span:       spanOf(node),
				Doc:        jsDoc(node, src),
				Visibility: jsVisibility(exported),
			})
		}
	case "function_declaration":
		a.extractFunction(node, src, mod, alloc, "", model.KindFunction, exported)
	case "lexical_declaration", "variable_declaration":
		return a.extractDeclarators(node, src, mod, alloc, exported)
	}
	return nil
}

func (a *jsAdapter) extractClass(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, exported bool) []model.Diagnostic {
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
		Doc:        jsDoc(node, src),
		Visibility: jsVisibility(exported),
	}
	mod.Symbols = append(mod.Symbols, sym)

	// extends clause
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "class_heritage" && child.Type() != "extends_clause" {
			continue
		}
		walk(child, func(n *sitter.Node) bool {
			switch n.Type() {
			case "identifier":
				mod.Refs = append(mod.Refs, model.Reference{
					From: sym.ID, Name: text(n, src), Kind: model.RefBase, Line: line(n),
				})
				return false
			case "member_expression":
				obj := n.ChildByFieldName("object")
				qualifier := ""
				if obj != nil && obj.Type() == "identifier" {
					qualifier = text(obj, src)
				}
				mod.Refs = append(mod.Refs, model.Reference{
					From:      sym.ID,
					Name:      text(n.ChildByFieldName("property"), src),
					Qualifier: qualifier,
					Kind:      model.RefBase,
					Line:      line(n),
				})
				return false
			}
			return true
		})
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			m := body.NamedChild(i)
			if m.Type() == "method_definition" {
				a.extractMethod(m, src, mod, alloc, name, exported)
			}
		}
	}
	return nil
}

func (a *jsAdapter) extractMethod(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, class string, exported bool) {
	name := text(node.ChildByFieldName("name"), src)
	if name == "" {
		return
	}
	sym := &model.Symbol{
		ID:         alloc.take(mod.Name + "." + class + "." + name),
		Module:     mod.ID,
		Name:       name,
		Kind:       model.KindMethod,
		Span:       spanOf(node),
		Doc:        jsDoc(node, src),
		Visibility: jsVisibility(exported),
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sym.Signature = a.extractParams(params, src, mod, sym.ID)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		addTypeRef(mod, sym.ID, tsTypeText(ret, src), line(ret))
	}
	if body := node.ChildByFieldName("body"); body != nil {
		collectJSCalls(body, src, mod, sym.ID)
	}
	mod.Symbols = append(mod.Symbols, sym)
}

func (a *jsAdapter) extractFunction(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, name string, kind model.SymbolKind, exported bool) {
	if name == "" {
		name = text(node.ChildByFieldName("name"), src)
	}
	if name == "" {
		return
	}
	sym := &model.Symbol{
		ID:         alloc.take(mod.Name + "." + name),
		Module:     mod.ID,
		Name:       name,
		Kind:       kind,
		Span:       spanOf(node),
		Doc:        jsDoc(node, src),
		Visibility: jsVisibility(exported),
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sym.Signature = a.extractParams(params, src, mod, sym.ID)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		addTypeRef(mod, sym.ID, tsTypeText(ret, src), line(ret))
	}
	if body := node.ChildByFieldName("body"); body != nil {
		collectJSCalls(body, src, mod, sym.ID)
	}
	mod.Symbols = append(mod.Symbols, sym)
}

// extractDeclarators handles const/let/var: declarators whose value is a
// function or arrow function become function symbols named by the
// declarator (the original grammar has no name on the arrow itself);
// plain values become variables; destructuring degrades to opaque.
func (a *jsAdapter) extractDeclarators(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, exported bool) []model.Diagnostic {
	var diags []model.Diagnostic
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		if nameNode.Type() != "identifier" {
			sym, diag := opaque(mod, alloc, decl)
			mod.Symbols = append(mod.Symbols, sym)
			diags = append(diags, diag)
			continue
		}
		name := text(nameNode, src)
		value := decl.ChildByFieldName("value")
		if value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function") {
			a.extractFunction(value, src, mod, alloc, name, model.KindFunction, exported)
			continue
		}
		mod.Symbols = append(mod.Symbols, &model.Symbol{
			ID:         alloc.take(mod.Name + "." + name),
			Module:     mod.ID,
			Name:       name,
			Kind:       model.KindVariable,
			Span:       spanOf(decl),
			Visibility: jsVisibility(exported),
		})
	}
	return diags
}

func (a *jsAdapter) extractParams(params *sitter.Node, src []byte, mod *model.Module, fromID string) []model.Param {
	var out []model.Param
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, model.Param{Name: text(p, src)})
		case "assignment_pattern":
			out = append(out, model.Param{Name: text(p.ChildByFieldName("left"), src), HasDefault: true})
		case "rest_pattern":
			out = append(out, model.Param{Name: strings.TrimPrefix(text(p, src), "..."), Variadic: true})
		case "required_parameter", "optional_parameter":
			// TypeScript parameter shapes carry a pattern and a type.
			param := model.Param{Name: text(p.ChildByFieldName("pattern"), src)}
			if typ := p.ChildByFieldName("type"); typ != nil {
				param.Type = tsTypeText(typ, src)
				addTypeRef(mod, fromID, param.Type, line(typ))
			}
			if p.ChildByFieldName("value") != nil || p.Type() == "optional_parameter" {
				param.HasDefault = true
			}
			if strings.HasPrefix(param.Name, "...") {
				param.Name = strings.TrimPrefix(param.Name, "...")
				param.Variadic = true
			}
			out = append(out, param)
		case "object_pattern", "array_pattern":
			out = append(out, model.Param{Name: text(p, src)})
		}
	}
	return out
}

func (*jsAdapter) Imports(root *sitter.Node, src []byte) []model.RawImport {
	var out []model.RawImport
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		var sourceNode *sitter.Node
		switch node.Type() {
		case "import_statement":
			sourceNode = node.ChildByFieldName("source")
		case "export_statement":
			// export ... from "mod" is an import relationship too.
			sourceNode = node.ChildByFieldName("source")
		}
		if sourceNode == nil {
			continue
		}
		imp := model.RawImport{Source: strings.Trim(text(sourceNode, src), `"'`), Line: line(node)}
		walk(node, func(n *sitter.Node) bool {
			switch n.Type() {
			case "import_specifier", "export_specifier":
				imp.Names = append(imp.Names, text(n.ChildByFieldName("name"), src))
				return false
			case "namespace_import":
				// import * as x: alias binds the whole module.
				for j := 0; j < int(n.NamedChildCount()); j++ {
					if id := n.NamedChild(j); id.Type() == "identifier" {
						imp.Alias = text(id, src)
					}
				}
				return false
			case "import_clause":
				// A bare identifier child is the default import.
				for j := 0; j < int(n.NamedChildCount()); j++ {
					if id := n.NamedChild(j); id.Type() == "identifier" {
						imp.Names = append(imp.Names, text(id, src))
					}
				}
				return true
			}
			return true
		})
		out = append(out, imp)
	}
	return out
}

// Resolve implements path-style resolution: relative specifiers against
// the importing file's directory with extension and index-file fallbacks,
// then the path-alias table, then a synthetic external terminal node for
// bare specifiers outside the local file set.
func (*jsAdapter) Resolve(imp model.RawImport, mod *model.Module, idx *index.Index) Resolution {
	spec := imp.Source

	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		cand := path.Join(path.Dir(mod.ID), spec)
		if target, ok := jsCandidate(idx, cand); ok {
			return Resolution{Target: target, OK: true}
		}
		return Resolution{}
	}

	if mapped, ok := idx.ResolveAlias(spec); ok {
		if target, found := jsCandidate(idx, path.Clean(mapped)); found {
			return Resolution{Target: target, OK: true}
		}
		// A mapped alias points inside the project; a miss is unresolved.
		return Resolution{}
	}

	return Resolution{Target: spec, External: true, OK: true}
}

// jsCandidate tries a resolved path as-is, with each candidate extension,
// and as a directory with an index file.
func jsCandidate(idx *index.Index, cand string) (string, bool) {
	if idx.HasFile(cand) {
		return path.Clean(cand), true
	}
	for _, ext := range jsResolveExts {
		if idx.HasFile(cand + ext) {
			return path.Clean(cand + ext), true
		}
	}
	for _, ext := range jsResolveExts {
		p := path.Join(cand, "index"+ext)
		if idx.HasFile(p) {
			return p, true
		}
	}
	return "", false
}

func collectJSCalls(body *sitter.Node, src []byte, mod *model.Module, fromID string) {
	walk(body, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
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
		case "member_expression":
			obj := fn.ChildByFieldName("object")
			qualifier := ""
			if obj != nil && obj.Type() == "identifier" {
				qualifier = text(obj, src)
			}
			mod.Refs = append(mod.Refs, model.Reference{
				From:      fromID,
				Name:      text(fn.ChildByFieldName("property"), src),
				Qualifier: qualifier,
				Kind:      model.RefCall,
				Line:      line(n),
			})
		}
		return true
	})
}

// tsTypeText strips the leading colon of a type_annotation node.
func tsTypeText(n *sitter.Node, src []byte) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text(n, src)), ":"))
}

// jsDoc returns a JSDoc block immediately preceding the node, unwrapped.
// For exported declarations the comment sits before the export statement,
// so the lookup walks through the wrapper.
func jsDoc(node *sitter.Node, src []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil {
		if p := node.Parent(); p != nil && p.Type() == "export_statement" {
			prev = p.PrevNamedSibling()
		}
	}
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	raw := text(prev, src)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimSuffix(raw, "*/")
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "*")))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func jsVisibility(exported bool) model.Visibility {
	if exported {
		return model.VisibilityPublic
	}
	return model.VisibilityPrivate
}
