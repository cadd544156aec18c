// Package parser turns ECMAScript and TypeScript module source into the
// ast.Module model, with every identifier occurrence resolved to a hygienic
// ast.Ref.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/unexport/internal/ast"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// Parse parses src as a module of the given language.
func Parse(ctx context.Context, src []byte, lang Language) (*ast.Module, error) {
	grammar, ok := grammarFor(lang)
	if !ok {
		return nil, fmt.Errorf("parser: unsupported language %q", lang)
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parser: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root)
	}

	r := newResolver(src)
	r.resolveModule(root)

	c := &converter{src: src, r: r}
	items, err := c.program(root)
	if err != nil {
		return nil, err
	}
	return &ast.Module{Source: src, Items: items}, nil
}

// syntaxError locates the first ERROR or MISSING node.
func syntaxError(root *sitter.Node) error {
	var bad *sitter.Node
	var find func(n *sitter.Node) bool
	find = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			bad = n
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c.HasError() || c.IsMissing() || c.Type() == "ERROR" {
				if find(c) {
					return true
				}
			}
		}
		return false
	}
	if !find(root) {
		return fmt.Errorf("parser: %w", ErrSyntax)
	}
	pt := bad.StartPoint()
	if bad.IsMissing() {
		return fmt.Errorf("parser: %w at %d:%d: missing %s", ErrSyntax, pt.Row+1, pt.Column+1, bad.Type())
	}
	return fmt.Errorf("parser: %w at %d:%d", ErrSyntax, pt.Row+1, pt.Column+1)
}

type converter struct {
	src []byte
	r   *resolver
}

// program converts the top-level statements and attaches comments: a
// comment on the same line as the end of the previous item trails it, any
// other comment leads the next item. Comments after the last item are kept
// as bare statements.
func (c *converter) program(root *sitter.Node) ([]ast.Item, error) {
	var (
		items   []ast.Item
		pending []ast.Range
		lastRow = -1
	)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() == "comment" {
			if len(items) > 0 && int(n.StartPoint().Row) == lastRow && len(pending) == 0 {
				b := items[len(items)-1].Base()
				b.Trailing = append(b.Trailing, span(n))
				continue
			}
			pending = append(pending, span(n))
			continue
		}

		item, err := c.item(n)
		if err != nil {
			return nil, err
		}
		item.Base().Leading = pending
		pending = nil
		items = append(items, item)
		lastRow = int(n.EndPoint().Row)
	}
	for _, cm := range pending {
		items = append(items, &ast.Stmt{ItemBase: ast.ItemBase{Loc: cm}, Body: ast.Expr{Loc: cm}})
	}
	return items, nil
}

func (c *converter) expr(n *sitter.Node) ast.Expr {
	return ast.Expr{Loc: span(n), Idents: c.r.within(n.StartByte(), n.EndByte())}
}

func (c *converter) ident(n *sitter.Node) ast.Ident {
	return ast.Ident{Ref: c.r.ref(n), Loc: span(n)}
}

func (c *converter) item(n *sitter.Node) (ast.Item, error) {
	base := ast.ItemBase{Loc: span(n)}
	switch n.Type() {
	case "import_statement":
		return c.importDecl(n, base)
	case "export_statement":
		return c.exportStatement(n, base)
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"lexical_declaration", "variable_declaration":
		return c.declaration(n, base, false)
	case "interface_declaration", "type_alias_declaration", "enum_declaration",
		"ambient_declaration", "module", "internal_module", "function_signature",
		"import_alias":
		return &ast.UnsupportedDecl{ItemBase: base, Kind: n.Type()}, nil
	case "expression_statement":
		// `namespace Foo {}` parses as an expression statement in some
		// grammar versions.
		if inner := n.NamedChild(0); inner != nil && inner.Type() == "internal_module" {
			return &ast.UnsupportedDecl{ItemBase: base, Kind: inner.Type()}, nil
		}
	}
	return &ast.Stmt{ItemBase: base, Body: c.expr(n)}, nil
}

// declaration converts a declaration node. base spans the whole statement,
// which includes the export keyword when exported.
func (c *converter) declaration(decl *sitter.Node, base ast.ItemBase, exported bool) (ast.Item, error) {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		name := decl.ChildByFieldName("name")
		if name == nil {
			return nil, fmt.Errorf("parser: function declaration without a name at %s", position(decl))
		}
		return &ast.FuncDecl{ItemBase: base, Exported: exported, Name: c.ident(name), Body: c.expr(decl)}, nil

	case "class_declaration", "abstract_class_declaration":
		name := decl.ChildByFieldName("name")
		if name == nil {
			return nil, fmt.Errorf("parser: class declaration without a name at %s", position(decl))
		}
		return &ast.ClassDecl{ItemBase: base, Exported: exported, Name: c.ident(name), Body: c.expr(decl)}, nil

	case "lexical_declaration", "variable_declaration":
		return c.varDecl(decl, base, exported)
	}
	return &ast.UnsupportedDecl{ItemBase: base, Kind: decl.Type()}, nil
}

func (c *converter) varDecl(n *sitter.Node, base ast.ItemBase, exported bool) (ast.Item, error) {
	kind := "var"
	if k := n.ChildByFieldName("kind"); k != nil {
		kind = k.Content(c.src)
	} else if n.Type() == "lexical_declaration" {
		kind = n.Child(0).Content(c.src)
	}
	if kind != "var" && kind != "let" && kind != "const" {
		return &ast.UnsupportedDecl{ItemBase: base, Kind: kind + "_declaration"}, nil
	}

	v := &ast.VarDecl{ItemBase: base, Exported: exported, Kind: kind}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		pat, err := c.pattern(d.ChildByFieldName("name"))
		if err != nil {
			return nil, err
		}
		decl := &ast.Declarator{Loc: span(d), Binding: pat}
		if t := d.ChildByFieldName("type"); t != nil {
			decl.TypeAnn = span(t)
		}
		if val := d.ChildByFieldName("value"); val != nil {
			e := c.expr(val)
			decl.Init = &e
		}
		v.Decls = append(v.Decls, decl)
	}
	return v, nil
}

func (c *converter) pattern(n *sitter.Node) (ast.Pattern, error) {
	if n == nil {
		return nil, fmt.Errorf("parser: missing binding pattern")
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return &ast.BindingIdent{Ident: c.ident(n)}, nil

	case "array_pattern":
		return c.arrayPattern(n)

	case "object_pattern":
		obj := &ast.ObjectPattern{Loc: span(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			p := n.NamedChild(i)
			if p.Type() == "comment" {
				continue
			}
			prop, err := c.property(p)
			if err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, prop)
		}
		return obj, nil

	case "assignment_pattern", "object_assignment_pattern":
		left, err := c.pattern(n.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		right := n.ChildByFieldName("right")
		if right == nil {
			return nil, fmt.Errorf("parser: default without a value at %s", position(n))
		}
		return &ast.AssignPattern{Loc: span(n), Left: left, Default: c.expr(right)}, nil

	case "rest_pattern":
		arg, err := c.pattern(n.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return &ast.RestPattern{Loc: span(n), Arg: arg}, nil
	}
	return nil, fmt.Errorf("parser: unsupported binding pattern %s at %s", n.Type(), position(n))
}

// arrayPattern keeps holes: every comma closes one element slot, and an
// empty slot is a hole. A comma directly before the closing bracket is a
// trailing comma, not a hole.
func (c *converter) arrayPattern(n *sitter.Node) (ast.Pattern, error) {
	arr := &ast.ArrayPattern{Loc: span(n)}
	var (
		cur    ast.Pattern
		filled bool
	)
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		switch {
		case ch.Type() == ",":
			if filled {
				arr.Elems = append(arr.Elems, cur)
			} else {
				arr.Elems = append(arr.Elems, nil)
			}
			cur, filled = nil, false
		case ch.IsNamed() && ch.Type() != "comment":
			p, err := c.pattern(ch)
			if err != nil {
				return nil, err
			}
			cur, filled = p, true
		}
	}
	if filled {
		arr.Elems = append(arr.Elems, cur)
	}
	return arr, nil
}

func (c *converter) property(n *sitter.Node) (*ast.PropertyPattern, error) {
	switch n.Type() {
	case "shorthand_property_identifier_pattern":
		return &ast.PropertyPattern{Loc: span(n), Shorthand: true, Value: &ast.BindingIdent{Ident: c.ident(n)}}, nil

	case "object_assignment_pattern":
		val, err := c.pattern(n)
		if err != nil {
			return nil, err
		}
		return &ast.PropertyPattern{Loc: span(n), Shorthand: true, Value: val}, nil

	case "pair_pattern":
		key := n.ChildByFieldName("key")
		if key == nil {
			return nil, fmt.Errorf("parser: property without a key at %s", position(n))
		}
		val, err := c.pattern(n.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		k := c.expr(key)
		return &ast.PropertyPattern{
			Loc:      span(n),
			Key:      &k,
			Computed: key.Type() == "computed_property_name",
			Value:    val,
		}, nil

	case "rest_pattern":
		arg, err := c.pattern(n.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return &ast.PropertyPattern{Loc: span(n), Rest: true, Value: arg}, nil
	}
	return nil, fmt.Errorf("parser: unsupported object pattern entry %s at %s", n.Type(), position(n))
}

func (c *converter) importDecl(n *sitter.Node, base ast.ItemBase) (ast.Item, error) {
	imp := &ast.ImportDecl{ItemBase: base}
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		switch ch.Type() {
		case "type", "typeof", "import_require_clause":
			return &ast.UnsupportedDecl{ItemBase: base, Kind: "type_import"}, nil
		case "import_clause":
			if err := c.importClause(ch, imp); errors.Is(err, errTypeOnly) {
				return &ast.UnsupportedDecl{ItemBase: base, Kind: "type_import"}, nil
			} else if err != nil {
				return nil, err
			}
		case "import_attribute":
			imp.Attributes = span(ch)
		}
	}
	src := n.ChildByFieldName("source")
	if src == nil {
		return nil, fmt.Errorf("parser: import without a source at %s", position(n))
	}
	imp.Source = span(src)
	if imp.Attributes.IsEmpty() {
		imp.Attributes = c.trailingClause(src, n)
	}
	return imp, nil
}

func (c *converter) importClause(n *sitter.Node, imp *ast.ImportDecl) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "identifier":
			imp.Specifiers = append(imp.Specifiers, &ast.ImportSpecifier{
				Kind: ast.SpecDefault, Local: c.ident(ch), Loc: span(ch),
			})
		case "namespace_import":
			id := lastNamed(ch, "identifier")
			if id == nil {
				return fmt.Errorf("parser: namespace import without a name at %s", position(ch))
			}
			imp.Specifiers = append(imp.Specifiers, &ast.ImportSpecifier{
				Kind: ast.SpecNamespace, Local: c.ident(id), Loc: span(ch),
			})
		case "named_imports":
			imp.HadBraces = true
			for j := 0; j < int(ch.NamedChildCount()); j++ {
				s := ch.NamedChild(j)
				if s.Type() != "import_specifier" {
					continue
				}
				if hasChild(s, "type") {
					return errTypeOnly
				}
				local := s.ChildByFieldName("alias")
				if local == nil {
					local = s.ChildByFieldName("name")
				}
				imp.Specifiers = append(imp.Specifiers, &ast.ImportSpecifier{
					Kind: ast.SpecNamed, Local: c.ident(local), Loc: span(s),
				})
			}
		}
	}
	return nil
}

var errTypeOnly = errors.New("type-only import specifiers are not supported")

// trailingClause returns the span after the module source up to the
// statement end, minus the semicolon (an assert/with clause in grammar
// versions that do not name it).
func (c *converter) trailingClause(src, stmt *sitter.Node) ast.Range {
	end := stmt.EndByte()
	text := strings.TrimRight(string(c.src[src.EndByte():end]), " \t\r\n;")
	if strings.TrimSpace(text) == "" {
		return ast.Range{}
	}
	start := src.EndByte() + uint32(len(text)-len(strings.TrimLeft(text, " \t\r\n")))
	return ast.Range{Start: start, End: src.EndByte() + uint32(len(text))}
}

func (c *converter) exportStatement(n *sitter.Node, base ast.ItemBase) (ast.Item, error) {
	var isDefault, isStar, isType bool
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "default":
			isDefault = true
		case "*":
			isStar = true
		case "type", "=", "namespace":
			isType = true
		}
	}
	if isType {
		return &ast.UnsupportedDecl{ItemBase: base, Kind: "type_export"}, nil
	}

	decl := n.ChildByFieldName("declaration")
	if isDefault {
		if decl != nil {
			name := decl.ChildByFieldName("name")
			switch decl.Type() {
			case "function_declaration", "generator_function_declaration",
				"class_declaration", "abstract_class_declaration":
			default:
				return &ast.UnsupportedDecl{ItemBase: base, Kind: decl.Type()}, nil
			}
			out := &ast.ExportDefault{ItemBase: base, Value: c.expr(decl)}
			if name != nil {
				id := c.ident(name)
				out.Name = &id
			}
			return out, nil
		}
		val := n.ChildByFieldName("value")
		if val == nil {
			return nil, fmt.Errorf("parser: export default without a value at %s", position(n))
		}
		return &ast.ExportDefault{ItemBase: base, Value: c.expr(val)}, nil
	}

	if decl != nil {
		return c.declaration(decl, base, true)
	}

	source := n.ChildByFieldName("source")
	if isStar {
		if source == nil {
			return nil, fmt.Errorf("parser: export * without a source at %s", position(n))
		}
		all := &ast.ExportAll{ItemBase: base, Source: span(source)}
		if ns := firstNamed(n, "namespace_export"); ns != nil {
			if id := ns.NamedChild(0); id != nil {
				name := c.exportName(id, false)
				all.Namespace = &name
			}
		} else if id := firstNamed(n, "identifier"); id != nil {
			name := c.exportName(id, false)
			all.Namespace = &name
		}
		return all, nil
	}
	if ns := firstNamed(n, "namespace_export"); ns != nil {
		if source == nil {
			return nil, fmt.Errorf("parser: export * without a source at %s", position(n))
		}
		all := &ast.ExportAll{ItemBase: base, Source: span(source)}
		if id := ns.NamedChild(0); id != nil {
			name := c.exportName(id, false)
			all.Namespace = &name
		}
		return all, nil
	}

	clause := firstNamed(n, "export_clause")
	if clause == nil {
		return &ast.UnsupportedDecl{ItemBase: base, Kind: "export_statement"}, nil
	}
	out := &ast.ExportNamed{ItemBase: base}
	if source != nil {
		s := span(source)
		out.Source = &s
		out.Attributes = c.trailingClause(source, n)
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		s := clause.NamedChild(i)
		if s.Type() != "export_specifier" {
			continue
		}
		if hasChild(s, "type") {
			return &ast.UnsupportedDecl{ItemBase: base, Kind: "type_export"}, nil
		}
		name := s.ChildByFieldName("name")
		if name == nil {
			return nil, fmt.Errorf("parser: export specifier without a name at %s", position(s))
		}
		spec := &ast.ExportSpecifier{Kind: ast.SpecNamed, Loc: span(s), Local: c.exportName(name, source == nil)}
		if alias := s.ChildByFieldName("alias"); alias != nil {
			a := c.exportName(alias, false)
			spec.Alias = &a
		}
		out.Specifiers = append(out.Specifiers, spec)
	}
	return out, nil
}

// exportName converts an identifier or string module export name. local
// marks names that refer to a binding of this module.
func (c *converter) exportName(n *sitter.Node, local bool) ast.ExportName {
	if n.Type() == "string" {
		return ast.ExportName{Name: cook(n.Content(c.src)), IsString: true, Loc: span(n)}
	}
	out := ast.ExportName{Name: n.Content(c.src), Loc: span(n)}
	if local && n.Type() == "identifier" {
		id := c.ident(n)
		out.Ident = &id
	}
	return out
}

// cook returns the value of a string literal.
func cook(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	inner := lit[1 : len(lit)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(inner); i++ {
		switch ch := inner[i]; {
		case ch == '\\' && i+1 < len(inner) && inner[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case ch == '\\' && i+1 < len(inner):
			b.WriteByte(ch)
			b.WriteByte(inner[i+1])
			i++
		case ch == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	if s, err := strconv.Unquote(b.String()); err == nil {
		return s
	}
	return inner
}

func firstNamed(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func lastNamed(n *sitter.Node, typ string) *sitter.Node {
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

func position(n *sitter.Node) string {
	pt := n.StartPoint()
	return fmt.Sprintf("%d:%d", pt.Row+1, pt.Column+1)
}
