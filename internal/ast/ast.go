// Package ast defines the module model the export remover works on: the
// top-level items of an ECMAScript module, their binding patterns, and opaque
// expression spans whose identifier occurrences carry resolved bindings.
//
// Bodies and initializers are not modelled node by node. An Expr keeps the
// source span plus every identifier occurrence inside it, which is all the
// reference graph needs and all the printer needs to reproduce the text.
package ast

import "fmt"

// ScopeID identifies one lexical scope assigned by the resolver.
type ScopeID uint32

const (
	// UnboundScope marks identifiers that resolve to no declaration
	// (globals such as console or undeclared names).
	UnboundScope ScopeID = 0

	// ModuleScope is the top-level scope of every module.
	ModuleScope ScopeID = 1
)

// Ref is the hygienic identity of one binding: its surface name plus the
// scope that declared it. Two bindings with the same name in different
// scopes never compare equal.
type Ref struct {
	Name  string
	Scope ScopeID
}

// IsBound reports whether the identifier resolved to a declaration.
func (r Ref) IsBound() bool { return r.Scope != UnboundScope }

// IsTopLevel reports whether the binding was declared in the module scope.
func (r Ref) IsTopLevel() bool { return r.Scope == ModuleScope }

func (r Ref) String() string {
	if !r.IsBound() {
		return r.Name
	}
	return fmt.Sprintf("%s#%d", r.Name, r.Scope)
}

// Range is a half-open byte span into Module.Source.
type Range struct {
	Start uint32
	End   uint32
}

// Text returns the source text covered by r.
func (r Range) Text(src []byte) string {
	if int(r.End) > len(src) || r.Start > r.End {
		return ""
	}
	return string(src[r.Start:r.End])
}

// IsEmpty reports whether the span covers no bytes.
func (r Range) IsEmpty() bool { return r.End <= r.Start }

// Ident is one identifier occurrence together with the binding it denotes.
type Ident struct {
	Ref Ref
	Loc Range
}

// Expr is an opaque source span with its resolved identifier occurrences.
// A nil *Expr stands for an absent expression.
type Expr struct {
	Loc    Range
	Idents []Ident
}

// Refs returns the bindings referenced inside the expression, in source
// order and with duplicates.
func (e *Expr) Refs() []Ref {
	if e == nil {
		return nil
	}
	refs := make([]Ref, len(e.Idents))
	for i, id := range e.Idents {
		refs[i] = id.Ref
	}
	return refs
}

// Module is a parsed module. Items are in source order.
type Module struct {
	Source []byte
	Items  []Item
}

// Item is one top-level statement or module declaration.
type Item interface {
	Base() *ItemBase
}

// ItemBase carries what every item has: its span, attached comments and
// whether a transform edited it (edited items are re-rendered by the
// printer instead of copied from the source).
type ItemBase struct {
	Loc      Range
	Leading  []Range
	Trailing []Range
	Modified bool
}

func (b *ItemBase) Base() *ItemBase { return b }

// Touch marks the item as edited.
func (b *ItemBase) Touch() { b.Modified = true }

// SpecKind distinguishes import and export specifier forms.
type SpecKind uint8

const (
	SpecNamed SpecKind = iota
	SpecDefault
	SpecNamespace
)

func (k SpecKind) String() string {
	switch k {
	case SpecDefault:
		return "default"
	case SpecNamespace:
		return "namespace"
	default:
		return "named"
	}
}

// ImportDecl is `import ... from "m"` or the side-effect form `import "m"`.
type ImportDecl struct {
	ItemBase
	Specifiers []*ImportSpecifier
	// HadBraces records `import {} from "m"`, which has no specifiers but
	// is not the bare form.
	HadBraces  bool
	Source     Range
	Attributes Range
}

// ImportSpecifier binds one local name. Loc covers the specifier text
// (`a`, `a as b`, `* as ns`, or the default identifier).
type ImportSpecifier struct {
	Kind  SpecKind
	Local Ident
	Loc   Range
}

// ExportName is the name side of an export specifier. Ident is set when the
// name is an identifier that the resolver bound to a declaration.
type ExportName struct {
	Name     string
	IsString bool
	Ident    *Ident
	Loc      Range
}

// ExportSpecifier is one entry of an export clause.
type ExportSpecifier struct {
	Kind  SpecKind
	Local ExportName
	Alias *ExportName
	Loc   Range
}

// ExportedName returns the name the specifier is visible under outside the
// module: the alias when present, the local name otherwise.
func (s *ExportSpecifier) ExportedName() string {
	if s.Alias != nil {
		return s.Alias.Name
	}
	return s.Local.Name
}

// ExportNamed is `export { a, b as c }`, optionally with `from "m"`.
type ExportNamed struct {
	ItemBase
	Specifiers []*ExportSpecifier
	// Source is nil for local exports.
	Source     *Range
	Attributes Range
}

// ExportAll is `export * from "m"` or `export * as ns from "m"`.
type ExportAll struct {
	ItemBase
	Namespace *ExportName
	Source    Range
}

// ExportDefault is `export default <expr>` or `export default <decl>`.
// Name is set for named function and class declarations, which also bind
// their name in the module scope.
type ExportDefault struct {
	ItemBase
	Name  *Ident
	Value Expr
}

// FuncDecl is a function or generator declaration.
type FuncDecl struct {
	ItemBase
	Exported bool
	Name     Ident
	Body     Expr
}

// ClassDecl is a class declaration.
type ClassDecl struct {
	ItemBase
	Exported bool
	Name     Ident
	Body     Expr
}

// VarDecl is a var, let or const statement.
type VarDecl struct {
	ItemBase
	Exported bool
	Kind     string
	Decls    []*Declarator
}

// Declarator is one `pattern = init` entry of a VarDecl. TypeAnn covers a
// TypeScript annotation (`: T`) when present. Modified is set when pruning
// changed the binding pattern.
type Declarator struct {
	Loc      Range
	Binding  Pattern
	TypeAnn  Range
	Init     *Expr
	Modified bool
}

// Stmt is any other top-level statement. It is never removed and every
// binding it references stays alive.
type Stmt struct {
	ItemBase
	Body Expr
}

// UnsupportedDecl is a construct the transform has no value-level meaning
// for, such as TypeScript interfaces, type aliases or ambient declarations.
type UnsupportedDecl struct {
	ItemBase
	Kind string
}

var (
	_ Item = (*ImportDecl)(nil)
	_ Item = (*ExportNamed)(nil)
	_ Item = (*ExportAll)(nil)
	_ Item = (*ExportDefault)(nil)
	_ Item = (*FuncDecl)(nil)
	_ Item = (*ClassDecl)(nil)
	_ Item = (*VarDecl)(nil)
	_ Item = (*Stmt)(nil)
	_ Item = (*UnsupportedDecl)(nil)
)
