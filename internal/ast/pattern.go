package ast

// Pattern is a binding target of a declarator: a plain identifier or a
// (possibly nested) destructuring pattern.
type Pattern interface {
	Span() Range
}

// BindingIdent binds a single name.
type BindingIdent struct {
	Ident
}

// ArrayPattern is `[a, , b = 1, ...rest]`. A nil element is a hole.
type ArrayPattern struct {
	Loc   Range
	Elems []Pattern
}

// ObjectPattern is `{ a, b: c, d = 1, ...rest }`.
type ObjectPattern struct {
	Loc   Range
	Props []*PropertyPattern
}

// PropertyPattern is one entry of an object pattern. For the shorthand form
// Key is nil and Value is the bound identifier (possibly wrapped in an
// AssignPattern). For rest entries Rest is set and Key is nil. A computed
// key keeps its references in Key.
type PropertyPattern struct {
	Loc       Range
	Key       *Expr
	Computed  bool
	Value     Pattern
	Shorthand bool
	Rest      bool
}

// AssignPattern is `target = default`.
type AssignPattern struct {
	Loc     Range
	Left    Pattern
	Default Expr
}

// RestPattern is `...target` inside an array pattern.
type RestPattern struct {
	Loc Range
	Arg Pattern
}

func (p *BindingIdent) Span() Range  { return p.Loc }
func (p *ArrayPattern) Span() Range  { return p.Loc }
func (p *ObjectPattern) Span() Range { return p.Loc }
func (p *AssignPattern) Span() Range { return p.Loc }
func (p *RestPattern) Span() Range   { return p.Loc }

// Binding is one name introduced by a pattern together with the references
// that belong to it alone: defaults and computed keys found on the path from
// the pattern root down to the name.
type Binding struct {
	Ident Ident
	Refs  []Ref
}

// Bindings returns every name bound by p, in source order.
func Bindings(p Pattern) []Binding {
	var out []Binding
	walkBindings(p, nil, &out)
	return out
}

// BindingRefs returns only the refs of the names bound by p.
func BindingRefs(p Pattern) []Ref {
	bs := Bindings(p)
	refs := make([]Ref, len(bs))
	for i, b := range bs {
		refs[i] = b.Ident.Ref
	}
	return refs
}

func walkBindings(p Pattern, path []Ref, out *[]Binding) {
	switch p := p.(type) {
	case nil:
	case *BindingIdent:
		refs := make([]Ref, len(path))
		copy(refs, path)
		*out = append(*out, Binding{Ident: p.Ident, Refs: refs})
	case *ArrayPattern:
		for _, el := range p.Elems {
			walkBindings(el, path, out)
		}
	case *ObjectPattern:
		for _, prop := range p.Props {
			next := path
			if prop.Computed {
				next = appendRefs(path, prop.Key.Refs())
			}
			walkBindings(prop.Value, next, out)
		}
	case *AssignPattern:
		walkBindings(p.Left, appendRefs(path, p.Default.Refs()), out)
	case *RestPattern:
		walkBindings(p.Arg, path, out)
	}
}

// appendRefs never aliases path so sibling branches keep independent paths.
func appendRefs(path, extra []Ref) []Ref {
	if len(extra) == 0 {
		return path
	}
	next := make([]Ref, 0, len(path)+len(extra))
	next = append(next, path...)
	return append(next, extra...)
}

// IsEmpty reports whether a pattern binds nothing after pruning. A nil
// pattern is empty.
func IsEmpty(p Pattern) bool {
	switch p := p.(type) {
	case nil:
		return true
	case *BindingIdent:
		return false
	case *ArrayPattern:
		for _, el := range p.Elems {
			if el != nil {
				return false
			}
		}
		return true
	case *ObjectPattern:
		return len(p.Props) == 0
	case *AssignPattern:
		return IsEmpty(p.Left)
	case *RestPattern:
		return IsEmpty(p.Arg)
	}
	return true
}
