// Package graph builds the reference graph of a module's top-level bindings:
// which declarations reference which, what the module's other statements and
// default export keep alive, and which local binding each export name
// denotes.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jward/unexport/internal/ast"
)

var (
	// ErrContract marks input a well-formed module never contains: default or
	// namespace specifiers in a local export clause, string local names, or
	// export names that resolve to no top-level binding.
	ErrContract = errors.New("contract violation")

	// ErrUnsupported marks declarations the transform has no value-level
	// meaning for (type-only and ambient declarations).
	ErrUnsupported = errors.New("unsupported declaration")
)

// RefSet is a set of bindings.
type RefSet map[ast.Ref]struct{}

// Add inserts r.
func (s RefSet) Add(r ast.Ref) { s[r] = struct{}{} }

// Has reports whether r is in the set.
func (s RefSet) Has(r ast.Ref) bool {
	_, ok := s[r]
	return ok
}

// Sorted returns the members ordered by name, then scope.
func (s RefSet) Sorted() []ast.Ref {
	out := make([]ast.Ref, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sortRefs(out)
	return out
}

func sortRefs(refs []ast.Ref) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].Scope < refs[j].Scope
	})
}

// Graph is the reference graph of one module.
type Graph struct {
	// DeclRefs maps every top-level binding to the top-level bindings its
	// body or initializer references, itself excluded.
	DeclRefs map[ast.Ref]RefSet

	// GlobalRefs holds bindings referenced from statements that are never
	// removed.
	GlobalRefs RefSet

	// ExportDefaultRefs holds bindings referenced from the default export.
	ExportDefaultRefs RefSet

	// ExportDecls maps each local export name to the binding it exports.
	// Re-exports from other modules are not included.
	ExportDecls map[string]ast.Ref

	// DeclExports marks export names introduced by a declaration
	// (`export function f`, `export const x`, `export default function f`)
	// as opposed to an export clause.
	DeclExports map[string]bool
}

func newGraph() *Graph {
	return &Graph{
		DeclRefs:          make(map[ast.Ref]RefSet),
		GlobalRefs:        make(RefSet),
		ExportDefaultRefs: make(RefSet),
		ExportDecls:       make(map[string]ast.Ref),
		DeclExports:       make(map[string]bool),
	}
}

// ExportNames returns the local export names in sorted order.
func (g *Graph) ExportNames() []string {
	names := make([]string, 0, len(g.ExportDecls))
	for name := range g.ExportDecls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Targets returns the sorted out-edges of ref.
func (g *Graph) Targets(ref ast.Ref) []ast.Ref {
	return g.DeclRefs[ref].Sorted()
}

// Decls returns every declared binding in sorted order.
func (g *Graph) Decls() []ast.Ref {
	out := make([]ast.Ref, 0, len(g.DeclRefs))
	for r := range g.DeclRefs {
		out = append(out, r)
	}
	sortRefs(out)
	return out
}

// builder accumulates a Graph over one pass of the module items.
type builder struct {
	g     *Graph
	specs []*ast.ExportSpecifier
}

// Build constructs the reference graph of m. It validates the module and
// returns an error wrapping ErrContract or ErrUnsupported instead of a
// graph when the module cannot be transformed.
func Build(m *ast.Module) (*Graph, error) {
	b := &builder{g: newGraph()}
	for _, item := range m.Items {
		if err := b.item(item); err != nil {
			return nil, err
		}
	}
	if err := b.resolveExports(); err != nil {
		return nil, err
	}
	return b.g, nil
}

func (b *builder) item(item ast.Item) error {
	switch it := item.(type) {
	case *ast.ImportDecl:
		for _, s := range it.Specifiers {
			b.declare(s.Local.Ref)
		}

	case *ast.FuncDecl:
		b.decl(it.Name.Ref, it.Body.Refs())
		if it.Exported {
			b.exportDecl(it.Name.Ref.Name, it.Name.Ref)
		}

	case *ast.ClassDecl:
		b.decl(it.Name.Ref, it.Body.Refs())
		if it.Exported {
			b.exportDecl(it.Name.Ref.Name, it.Name.Ref)
		}

	case *ast.VarDecl:
		for _, d := range it.Decls {
			init := d.Init.Refs()
			for _, bnd := range ast.Bindings(d.Binding) {
				ref := bnd.Ident.Ref
				b.decl(ref, init)
				b.edges(ref, bnd.Refs)
				if it.Exported {
					b.exportDecl(ref.Name, ref)
				}
			}
		}

	case *ast.ExportNamed:
		// Re-exports name bindings of another module.
		if it.Source != nil {
			return nil
		}
		for _, s := range it.Specifiers {
			if s.Kind != ast.SpecNamed {
				return fmt.Errorf("graph: %w: %s specifier in local export at %d", ErrContract, s.Kind, s.Loc.Start)
			}
			if s.Local.IsString {
				return fmt.Errorf("graph: %w: string local name %q in local export", ErrContract, s.Local.Name)
			}
			b.specs = append(b.specs, s)
		}

	case *ast.ExportDefault:
		refs := it.Value.Refs()
		if it.Name != nil {
			self := it.Name.Ref
			b.decl(self, refs)
			b.exportDecl("default", self)
			for _, r := range refs {
				if r != self && r.IsTopLevel() {
					b.g.ExportDefaultRefs.Add(r)
				}
			}
			return nil
		}
		for _, r := range refs {
			if r.IsTopLevel() {
				b.g.ExportDefaultRefs.Add(r)
			}
		}

	case *ast.ExportAll:
		// Nothing local.

	case *ast.Stmt:
		for _, r := range it.Body.Refs() {
			if r.IsTopLevel() {
				b.g.GlobalRefs.Add(r)
			}
		}

	case *ast.UnsupportedDecl:
		return fmt.Errorf("graph: %w: %s at %d", ErrUnsupported, it.Kind, it.Loc.Start)

	default:
		return fmt.Errorf("graph: %w: unknown item %T", ErrUnsupported, item)
	}
	return nil
}

// declare ensures ref has an entry, possibly empty.
func (b *builder) declare(ref ast.Ref) RefSet {
	set, ok := b.g.DeclRefs[ref]
	if !ok {
		set = make(RefSet)
		b.g.DeclRefs[ref] = set
	}
	return set
}

func (b *builder) decl(ref ast.Ref, refs []ast.Ref) {
	b.declare(ref)
	b.edges(ref, refs)
}

// edges adds ref -> target for every top-level target other than ref.
func (b *builder) edges(ref ast.Ref, targets []ast.Ref) {
	set := b.declare(ref)
	for _, t := range targets {
		if t == ref || !t.IsTopLevel() {
			continue
		}
		set.Add(t)
	}
}

func (b *builder) exportDecl(name string, ref ast.Ref) {
	b.g.ExportDecls[name] = ref
	b.g.DeclExports[name] = true
}

// resolveExports binds export clause entries once every declaration is
// known, so clauses may precede the declarations they name.
func (b *builder) resolveExports() error {
	for _, s := range b.specs {
		var ref ast.Ref
		if s.Local.Ident != nil {
			ref = s.Local.Ident.Ref
		} else {
			ref = ast.Ref{Name: s.Local.Name, Scope: ast.ModuleScope}
		}
		if _, ok := b.g.DeclRefs[ref]; !ok || !ref.IsTopLevel() {
			return fmt.Errorf("graph: %w: export %q names no top-level binding %q", ErrContract, s.ExportedName(), s.Local.Name)
		}
		name := s.ExportedName()
		b.g.ExportDecls[name] = ref
		delete(b.g.DeclExports, name)
	}
	return nil
}
