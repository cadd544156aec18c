package parser

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/unexport/internal/ast"
)

// scope is one lexical scope. fn marks scopes that receive hoisted var
// declarations (the module and every function body).
type scope struct {
	id     ast.ScopeID
	parent *scope
	names  map[string]struct{}
	fn     bool
}

func (s *scope) declare(name string) {
	if name == "" {
		return
	}
	s.names[name] = struct{}{}
}

func (s *scope) lookup(name string) ast.Ref {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.names[name]; ok {
			return ast.Ref{Name: name, Scope: cur.id}
		}
	}
	return ast.Ref{Name: name, Scope: ast.UnboundScope}
}

// resolver walks a tree-sitter tree once and records, for every identifier
// occurrence, the binding it denotes. Occurrences are keyed by start byte so
// the converter can collect all identifiers inside any span.
type resolver struct {
	src    []byte
	nextID ast.ScopeID
	occ    []ast.Ident
	byPos  map[uint32]ast.Ref
}

func newResolver(src []byte) *resolver {
	return &resolver{
		src:    src,
		nextID: ast.ModuleScope,
		byPos:  make(map[uint32]ast.Ref),
	}
}

func (r *resolver) newScope(parent *scope, fn bool) *scope {
	s := &scope{id: r.nextID, parent: parent, names: make(map[string]struct{}), fn: fn}
	r.nextID++
	return s
}

// resolveModule resolves the whole program and returns the module scope.
func (r *resolver) resolveModule(root *sitter.Node) *scope {
	mod := r.newScope(nil, true)
	r.hoistVars(root, mod)
	r.declareStatements(root, mod)
	r.walkChildren(root, mod)
	sort.Slice(r.occ, func(i, j int) bool { return r.occ[i].Loc.Start < r.occ[j].Loc.Start })
	return mod
}

// ref returns the binding recorded for the identifier node n.
func (r *resolver) ref(n *sitter.Node) ast.Ref {
	if ref, ok := r.byPos[n.StartByte()]; ok {
		return ref
	}
	return ast.Ref{Name: n.Content(r.src)}
}

// within returns the identifier occurrences whose start lies in [start, end).
func (r *resolver) within(start, end uint32) []ast.Ident {
	lo := sort.Search(len(r.occ), func(i int) bool { return r.occ[i].Loc.Start >= start })
	hi := sort.Search(len(r.occ), func(i int) bool { return r.occ[i].Loc.Start >= end })
	if lo >= hi {
		return nil
	}
	return r.occ[lo:hi:hi]
}

func (r *resolver) record(n *sitter.Node, sc *scope) {
	if _, seen := r.byPos[n.StartByte()]; seen {
		return
	}
	ref := sc.lookup(n.Content(r.src))
	r.byPos[n.StartByte()] = ref
	r.occ = append(r.occ, ast.Ident{Ref: ref, Loc: span(n)})
}

// skippedTypes never contain value-level references.
var skippedTypes = map[string]bool{
	"comment":                     true,
	"property_identifier":         true,
	"private_property_identifier": true,
	"statement_identifier":        true,
	"type_identifier":             true,
	"type_annotation":             true,
	"type_arguments":              true,
	"type_parameters":             true,
	"type_predicate_annotation":   true,
	"asserts_annotation":          true,
	"omitting_type_annotation":    true,
	"opting_type_annotation":      true,
	"type_query":                  true,
	"accessibility_modifier":      true,
	"regex":                       true,
	"string_fragment":             true,
	"escape_sequence":             true,
}

var functionTypes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

func (r *resolver) walkChildren(n *sitter.Node, sc *scope) {
	for i := 0; i < int(n.ChildCount()); i++ {
		r.walk(n.Child(i), sc)
	}
}

func (r *resolver) walk(n *sitter.Node, sc *scope) {
	if n == nil || !n.IsNamed() {
		return
	}
	typ := n.Type()
	if skippedTypes[typ] {
		return
	}

	switch typ {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		if r.isIntrinsicTag(n) {
			return
		}
		r.record(n, sc)

	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.record(name, sc)
		}
		r.walkFunction(n, r.newScope(sc, true), sc)

	case "function_expression", "function", "generator_function":
		fn := r.newScope(sc, true)
		if name := n.ChildByFieldName("name"); name != nil {
			fn.declare(name.Content(r.src))
			r.record(name, fn)
		}
		r.walkFunction(n, fn, sc)

	case "arrow_function", "method_definition":
		r.walkFunction(n, r.newScope(sc, true), sc)

	case "class_declaration", "abstract_class_declaration":
		// TypeScript spells the name as a type_identifier.
		if name := n.ChildByFieldName("name"); name != nil {
			r.record(name, sc)
		}
		r.walkChildren(n, sc)

	case "class":
		cls := r.newScope(sc, false)
		if name := n.ChildByFieldName("name"); name != nil {
			cls.declare(name.Content(r.src))
		}
		r.walkChildren(n, cls)

	case "class_static_block":
		blk := r.newScope(sc, true)
		body := n.ChildByFieldName("body")
		if body == nil {
			body = n
		}
		r.hoistVars(body, blk)
		r.declareStatements(body, blk)
		r.walkChildren(body, blk)

	case "statement_block", "switch_body":
		blk := r.newScope(sc, false)
		r.declareStatements(n, blk)
		r.walkChildren(n, blk)

	case "for_statement", "for_in_statement":
		loop := r.newScope(sc, false)
		if init := n.ChildByFieldName("initializer"); init != nil && init.Type() == "lexical_declaration" {
			r.declareDeclarators(init, loop)
		}
		if kind := n.ChildByFieldName("kind"); kind != nil && kind.Content(r.src) != "var" {
			r.declarePattern(n.ChildByFieldName("left"), loop)
		}
		r.walkChildren(n, loop)

	case "catch_clause":
		c := r.newScope(sc, false)
		r.declarePattern(n.ChildByFieldName("parameter"), c)
		r.walkChildren(n, c)

	case "pair", "pair_pattern":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			r.walk(key, sc)
		}
		r.walk(n.ChildByFieldName("value"), sc)

	case "import_specifier", "export_specifier":
		// Only the local side is a binding occurrence; the other side names
		// something in the other module or the export surface.
		name := n.ChildByFieldName("name")
		alias := n.ChildByFieldName("alias")
		if typ == "import_specifier" && alias != nil {
			name = alias
		}
		if name != nil && name.Type() == "identifier" {
			r.record(name, sc)
		}

	case "export_statement":
		if n.ChildByFieldName("source") != nil {
			return
		}
		r.walkChildren(n, sc)

	default:
		r.walkChildren(n, sc)
	}
}

// walkFunction declares parameters before resolving anything, so defaults see
// every parameter, then resolves the body in the same scope.
func (r *resolver) walkFunction(n *sitter.Node, fn, outer *scope) {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		params = n.ChildByFieldName("parameter")
	}
	if params != nil {
		if params.Type() == "formal_parameters" {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				r.declarePattern(params.NamedChild(i), fn)
			}
		} else {
			r.declarePattern(params, fn)
		}
	}

	body := n.ChildByFieldName("body")
	if body != nil && body.Type() == "statement_block" {
		r.hoistVars(body, fn)
		r.declareStatements(body, fn)
	}

	name := n.ChildByFieldName("name")
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case sameNode(c, name):
			if c.Type() == "computed_property_name" {
				r.walk(c, outer)
			}
		case sameNode(c, body) && body.Type() == "statement_block":
			r.walkChildren(body, fn)
		case c.Type() == "decorator":
			r.walk(c, outer)
		default:
			r.walk(c, fn)
		}
	}
}

// hoistVars declares every var binding under n into fn, stopping at nested
// functions and classes.
func (r *resolver) hoistVars(n *sitter.Node, fn *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch typ := c.Type(); {
		case typ == "variable_declaration":
			r.declareDeclarators(c, fn)
		case typ == "for_in_statement":
			if kind := c.ChildByFieldName("kind"); kind != nil && kind.Content(r.src) == "var" {
				r.declarePattern(c.ChildByFieldName("left"), fn)
			}
			r.hoistVars(c, fn)
		case functionTypes[typ], typ == "class", typ == "class_declaration",
			typ == "abstract_class_declaration", typ == "class_body", typ == "class_static_block":
		default:
			r.hoistVars(c, fn)
		}
	}
}

// declareStatements declares the lexically scoped bindings of the statements
// directly inside n: let/const, functions, classes and imports.
func (r *resolver) declareStatements(n *sitter.Node, sc *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "switch_case", "switch_default":
			r.declareStatements(c, sc)
		case "export_statement":
			if decl := c.ChildByFieldName("declaration"); decl != nil {
				r.declareDeclaration(decl, sc)
			}
		case "import_statement":
			r.declareImports(c, sc)
		default:
			r.declareDeclaration(c, sc)
		}
	}
}

func (r *resolver) declareDeclaration(n *sitter.Node, sc *scope) {
	switch n.Type() {
	case "lexical_declaration":
		r.declareDeclarators(n, sc)
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"abstract_class_declaration", "enum_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			sc.declare(name.Content(r.src))
		}
	}
}

func (r *resolver) declareImports(n *sitter.Node, sc *scope) {
	var visit func(c *sitter.Node)
	visit = func(c *sitter.Node) {
		switch c.Type() {
		case "import_clause", "named_imports":
			for i := 0; i < int(c.NamedChildCount()); i++ {
				visit(c.NamedChild(i))
			}
		case "identifier":
			sc.declare(c.Content(r.src))
		case "namespace_import":
			for i := 0; i < int(c.NamedChildCount()); i++ {
				if id := c.NamedChild(i); id.Type() == "identifier" {
					sc.declare(id.Content(r.src))
				}
			}
		case "import_specifier":
			local := c.ChildByFieldName("alias")
			if local == nil {
				local = c.ChildByFieldName("name")
			}
			if local != nil && local.Type() == "identifier" {
				sc.declare(local.Content(r.src))
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i))
	}
}

func (r *resolver) declareDeclarators(n *sitter.Node, sc *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "variable_declarator" {
			r.declarePattern(c.ChildByFieldName("name"), sc)
		}
	}
}

// declarePattern declares every name bound by a binding pattern or
// parameter node.
func (r *resolver) declarePattern(n *sitter.Node, sc *scope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		sc.declare(n.Content(r.src))
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			r.declarePattern(n.NamedChild(i), sc)
		}
	case "pair_pattern":
		r.declarePattern(n.ChildByFieldName("value"), sc)
	case "assignment_pattern", "object_assignment_pattern":
		r.declarePattern(n.ChildByFieldName("left"), sc)
	case "required_parameter", "optional_parameter":
		r.declarePattern(n.ChildByFieldName("pattern"), sc)
	}
}

// isIntrinsicTag reports lowercase JSX tag names, which name host elements
// rather than bindings.
func (r *resolver) isIntrinsicTag(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "jsx_opening_element", "jsx_closing_element", "jsx_self_closing_element":
	default:
		return false
	}
	name := n.Content(r.src)
	return name != "" && name[0] >= 'a' && name[0] <= 'z'
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func span(n *sitter.Node) ast.Range {
	return ast.Range{Start: n.StartByte(), End: n.EndByte()}
}
