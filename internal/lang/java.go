package lang

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/model"
)

func init() { register(&javaAdapter{}) }

// javaAdapter is the classpath-style variant: package-qualified references
// resolved against classes declared in the project. Module names come from
// package declarations, so qualified names follow the classpath, not the
// directory layout.
type javaAdapter struct{}

func (*javaAdapter) Name() string         { return "java" }
func (*javaAdapter) Extensions() []string { return []string{".java"} }

func (*javaAdapter) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	return parseWith(ctx, java.GetLanguage(), src)
}

func (a *javaAdapter) Extract(root *sitter.Node, src []byte, mod *model.Module) []model.Diagnostic {
	// The declared package overrides the path-derived module name.
	if pkg := javaPackage(root, src); pkg != "" {
		mod.Name = pkg
	}

	var diags []model.Diagnostic
	alloc := newNameAlloc()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			diags = append(diags, a.extractType(child, src, mod, alloc)...)
		}
	}
	return diags
}

func (a *javaAdapter) extractType(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc) []model.Diagnostic {
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
		Doc:        javaDoc(node, src),
		Visibility: javaVisibility(node, src),
	}
	mod.Symbols = append(mod.Symbols, sym)

	if super := node.ChildByFieldName("superclass"); super != nil {
		for i := 0; i < int(super.NamedChildCount()); i++ {
			if t := super.NamedChild(i); t.Type() == "type_identifier" {
				mod.Refs = append(mod.Refs, model.Reference{
					From: sym.ID, Name: text(t, src), Kind: model.RefBase, Line: line(t),
				})
			}
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		walk(ifaces, func(n *sitter.Node) bool {
			if n.Type() == "type_identifier" {
				mod.Refs = append(mod.Refs, model.Reference{
					From: sym.ID, Name: text(n, src), Kind: model.RefBase, Line: line(n),
				})
				return false
			}
			return true
		})
	}

	var diags []model.Diagnostic
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_declaration", "constructor_declaration":
				a.extractMethod(member, src, mod, alloc, name)
			case "field_declaration":
				a.extractField(member, src, mod, alloc, name)
			case "class_declaration", "interface_declaration", "enum_declaration":
				diags = append(diags, a.extractType(member, src, mod, alloc)...)
			}
		}
	}
	return diags
}

func (a *javaAdapter) extractMethod(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, class string) {
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
		Doc:        javaDoc(node, src),
		Visibility: javaVisibility(node, src),
	}
	if ret := node.ChildByFieldName("type"); ret != nil {
		addTypeRef(mod, sym.ID, text(ret, src), line(ret))
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "formal_parameter":
				typ := text(p.ChildByFieldName("type"), src)
				sym.Signature = append(sym.Signature, model.Param{
					Name: text(p.ChildByFieldName("name"), src), Type: typ,
				})
				addTypeRef(mod, sym.ID, typ, line(p))
			case "spread_parameter":
				// Type and name are positional children of the spread form.
				var typ, pname string
				for j := 0; j < int(p.NamedChildCount()); j++ {
					c := p.NamedChild(j)
					if c.Type() == "variable_declarator" {
						pname = text(c.ChildByFieldName("name"), src)
					} else if typ == "" {
						typ = text(c, src)
					}
				}
				sym.Signature = append(sym.Signature, model.Param{Name: pname, Type: typ, Variadic: true})
				addTypeRef(mod, sym.ID, typ, line(p))
			}
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		collectJavaCalls(body, src, mod, sym.ID)
	}
	mod.Symbols = append(mod.Symbols, sym)
}

func (a *javaAdapter) extractField(node *sitter.Node, src []byte, mod *model.Module, alloc *nameAlloc, class string) {
	typ := text(node.ChildByFieldName("type"), src)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		name := text(decl.ChildByFieldName("name"), src)
		if name == "" {
			continue
		}
		sym := &model.Symbol{
			ID:         alloc.take(mod.Name + "." + class + "." + name),
			Module:     mod.ID,
			Name:       name,
			Kind:       model.KindVariable,
			Span:       spanOf(decl),
			Visibility: javaVisibility(node, src),
		}
		addTypeRef(mod, sym.ID, typ, line(decl))
		mod.Symbols = append(mod.Symbols, sym)
	}
}

func (*javaAdapter) Imports(root *sitter.Node, src []byte) []model.RawImport {
	var out []model.RawImport
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node.Type() != "import_declaration" {
			continue
		}
		spec := text(node, src)
		spec = strings.TrimPrefix(spec, "import")
		spec = strings.TrimSuffix(strings.TrimSpace(spec), ";")
		spec = strings.TrimPrefix(strings.TrimSpace(spec), "static")
		spec = strings.TrimSpace(spec)
		// Asterisk imports keep the ".*" suffix in Source; resolution
		// strips it.
		imp := model.RawImport{Source: spec, Line: line(node)}
		if !strings.HasSuffix(spec, ".*") {
			if dot := strings.LastIndex(spec, "."); dot != -1 {
				imp.Names = []string{spec[dot+1:]}
			}
		}
		out = append(out, imp)
	}
	return out
}

// Resolve matches package-qualified references against declared classes:
// fully qualified name first, then wildcard package match, then simple
// class name. JDK namespaces resolve to external terminal nodes; any other
// miss is an unresolved import.
func (*javaAdapter) Resolve(imp model.RawImport, mod *model.Module, idx *index.Index) Resolution {
	spec := imp.Source

	if strings.HasSuffix(spec, ".*") {
		pkg := strings.TrimSuffix(spec, ".*")
		if m := idx.ModuleByName(pkg); m != nil {
			return Resolution{Target: m.ID, OK: true}
		}
		if javaPlatform(pkg) {
			return Resolution{Target: spec, External: true, OK: true}
		}
		return Resolution{}
	}

	if sym := idx.Symbol(spec); sym != nil {
		return Resolution{Target: sym.Module, OK: true}
	}
	if dot := strings.LastIndex(spec, "."); dot != -1 {
		simple := spec[dot+1:]
		for _, cls := range idx.ClassesNamed(simple) {
			return Resolution{Target: cls.Module, OK: true}
		}
	}
	if javaPlatform(spec) {
		return Resolution{Target: spec, External: true, OK: true}
	}
	return Resolution{}
}

// javaPlatform reports whether a specifier names a JDK package, which is a
// platform dependency rather than a project reference.
func javaPlatform(spec string) bool {
	return strings.HasPrefix(spec, "java.") || strings.HasPrefix(spec, "javax.")
}

func collectJavaCalls(body *sitter.Node, src []byte, mod *model.Module, fromID string) {
	walk(body, func(n *sitter.Node) bool {
		switch n.Type() {
		case "method_invocation":
			obj := n.ChildByFieldName("object")
			qualifier := ""
			if obj != nil && obj.Type() == "identifier" {
				qualifier = text(obj, src)
			}
			mod.Refs = append(mod.Refs, model.Reference{
				From:      fromID,
				Name:      text(n.ChildByFieldName("name"), src),
				Qualifier: qualifier,
				Kind:      model.RefCall,
				Line:      line(n),
			})
		case "object_creation_expression":
			if typ := n.ChildByFieldName("type"); typ != nil {
				mod.Refs = append(mod.Refs, model.Reference{
					From: fromID, Name: text(typ, src), Kind: model.RefCall, Line: line(n),
				})
			}
		}
		return true
	})
}

// javaPackage returns the declared package name, if any.
func javaPackage(root *sitter.Node, src []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node.Type() != "package_declaration" {
			continue
		}
		for j := 0; j < int(node.NamedChildCount()); j++ {
			c := node.NamedChild(j)
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				return text(c, src)
			}
		}
	}
	return ""
}

// javaDoc returns a Javadoc block immediately preceding the node.
func javaDoc(node *sitter.Node, src []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "block_comment" {
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

// javaVisibility reads the modifiers child; package-private counts as
// private for ranking purposes.
func javaVisibility(node *sitter.Node, src []byte) model.Visibility {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "modifiers" {
			if strings.Contains(text(c, src), "public") {
				return model.VisibilityPublic
			}
			return model.VisibilityPrivate
		}
	}
	return model.VisibilityPrivate
}
