// Package prune deletes removed bindings and exports from a module in place.
package prune

import (
	"github.com/jward/unexport/internal/ast"
	"github.com/jward/unexport/internal/liveness"
)

// Options tunes how emptied statements are handled.
type Options struct {
	// CollapseImports keeps an import whose specifiers were all removed as
	// a bare side-effect import (`import "m"`) instead of deleting it.
	CollapseImports bool
}

// Stats counts what Apply removed.
type Stats struct {
	Items      int
	Specifiers int
	Bindings   int
}

// Apply removes from m every declaration whose binding is in set and every
// export whose name is in req. It never fails: all validation happens when
// the graph is built.
func Apply(m *ast.Module, set liveness.Set, req liveness.Request, opts Options) Stats {
	p := &pruner{set: set, req: req, opts: opts}
	kept := m.Items[:0]
	for _, item := range m.Items {
		if p.keep(item) {
			kept = append(kept, item)
		} else {
			p.stats.Items++
		}
	}
	for i := len(kept); i < len(m.Items); i++ {
		m.Items[i] = nil
	}
	m.Items = kept
	return p.stats
}

type pruner struct {
	set   liveness.Set
	req   liveness.Request
	opts  Options
	stats Stats
}

func (p *pruner) keep(item ast.Item) bool {
	switch it := item.(type) {
	case *ast.FuncDecl:
		return !p.set.Has(it.Name.Ref)

	case *ast.ClassDecl:
		return !p.set.Has(it.Name.Ref)

	case *ast.VarDecl:
		return p.varDecl(it)

	case *ast.ExportNamed:
		if len(it.Specifiers) == 0 {
			return true
		}
		kept := it.Specifiers[:0:0]
		for _, s := range it.Specifiers {
			if p.req.Has(s.ExportedName()) {
				p.stats.Specifiers++
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == len(it.Specifiers) {
			return true
		}
		it.Specifiers = kept
		it.Touch()
		return len(kept) > 0

	case *ast.ExportAll:
		return it.Namespace == nil || !p.req.Has(it.Namespace.Name)

	case *ast.ExportDefault:
		return !p.req.Has(liveness.DefaultExport)

	case *ast.ImportDecl:
		if len(it.Specifiers) == 0 {
			return true
		}
		kept := it.Specifiers[:0:0]
		for _, s := range it.Specifiers {
			if p.set.Has(s.Local.Ref) {
				p.stats.Specifiers++
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == len(it.Specifiers) {
			return true
		}
		it.Specifiers = kept
		it.Touch()
		if len(kept) == 0 {
			it.HadBraces = false
			return p.opts.CollapseImports
		}
		return true
	}
	return true
}

func (p *pruner) varDecl(v *ast.VarDecl) bool {
	kept := v.Decls[:0:0]
	for _, d := range v.Decls {
		pat, changed := p.pattern(d.Binding)
		if !changed {
			kept = append(kept, d)
			continue
		}
		v.Touch()
		if ast.IsEmpty(pat) {
			continue
		}
		d.Binding = pat
		d.Modified = true
		kept = append(kept, d)
	}
	v.Decls = kept
	return len(kept) > 0
}

// pattern returns the pruned pattern (nil when nothing survives) and
// whether anything changed.
func (p *pruner) pattern(pat ast.Pattern) (ast.Pattern, bool) {
	switch pt := pat.(type) {
	case *ast.BindingIdent:
		if p.set.Has(pt.Ref) {
			p.stats.Bindings++
			return nil, true
		}
		return pt, false

	case *ast.ArrayPattern:
		changed := false
		for i, el := range pt.Elems {
			if el == nil {
				continue
			}
			next, ch := p.pattern(el)
			if !ch {
				continue
			}
			changed = true
			if ast.IsEmpty(next) {
				pt.Elems[i] = nil
			} else {
				pt.Elems[i] = next
			}
		}
		return pt, changed

	case *ast.ObjectPattern:
		changed := false
		props := pt.Props[:0:0]
		for _, prop := range pt.Props {
			next, ch := p.pattern(prop.Value)
			if ch {
				changed = true
				if ast.IsEmpty(next) {
					continue
				}
				prop.Value = next
			}
			props = append(props, prop)
		}
		pt.Props = props
		return pt, changed

	case *ast.AssignPattern:
		left, ch := p.pattern(pt.Left)
		if !ch {
			return pt, false
		}
		if ast.IsEmpty(left) {
			return nil, true
		}
		pt.Left = left
		return pt, true

	case *ast.RestPattern:
		arg, ch := p.pattern(pt.Arg)
		if !ch {
			return pt, false
		}
		if ast.IsEmpty(arg) {
			return nil, true
		}
		pt.Arg = arg
		return pt, true
	}
	return pat, false
}
