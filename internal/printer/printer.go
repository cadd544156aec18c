// Package printer renders an ast.Module back to source text. Items nobody
// edited are copied byte for byte, so formatting survives; edited items are
// rebuilt from their parts, reusing the source text of every expression.
package printer

import (
	"bytes"
	"strings"

	"github.com/jward/unexport/internal/ast"
)

// Print renders m. Items are separated by newlines and non-empty output
// ends with one.
func Print(m *ast.Module) []byte {
	p := &printer{src: m.Source}
	for i, item := range m.Items {
		if i > 0 {
			p.buf.WriteByte('\n')
		}
		p.item(item)
	}
	if p.buf.Len() > 0 {
		p.buf.WriteByte('\n')
	}
	return p.buf.Bytes()
}

type printer struct {
	src []byte
	buf bytes.Buffer
}

func (p *printer) text(r ast.Range) string { return r.Text(p.src) }

func (p *printer) item(item ast.Item) {
	b := item.Base()
	if !b.Modified {
		// Copy from the first leading comment through the last trailing
		// one, keeping the original spacing in between.
		r := b.Loc
		if len(b.Leading) > 0 {
			r.Start = b.Leading[0].Start
		}
		if len(b.Trailing) > 0 {
			r.End = b.Trailing[len(b.Trailing)-1].End
		}
		p.buf.WriteString(p.text(r))
		return
	}

	for _, c := range b.Leading {
		p.buf.WriteString(p.text(c))
		p.buf.WriteByte('\n')
	}
	switch it := item.(type) {
	case *ast.ImportDecl:
		p.importDecl(it)
	case *ast.ExportNamed:
		p.exportNamed(it)
	case *ast.VarDecl:
		p.varDecl(it)
	default:
		p.buf.WriteString(p.text(b.Loc))
	}
	for _, c := range b.Trailing {
		p.buf.WriteByte(' ')
		p.buf.WriteString(p.text(c))
	}
}

func (p *printer) importDecl(it *ast.ImportDecl) {
	p.buf.WriteString("import ")
	if len(it.Specifiers) > 0 || it.HadBraces {
		var (
			parts []string
			named []string
		)
		for _, s := range it.Specifiers {
			switch s.Kind {
			case ast.SpecNamed:
				named = append(named, p.text(s.Loc))
			default:
				parts = append(parts, p.text(s.Loc))
			}
		}
		if len(named) > 0 || it.HadBraces {
			parts = append(parts, braces(named))
		}
		p.buf.WriteString(strings.Join(parts, ", "))
		p.buf.WriteString(" from ")
	}
	p.buf.WriteString(p.text(it.Source))
	if !it.Attributes.IsEmpty() {
		p.buf.WriteByte(' ')
		p.buf.WriteString(p.text(it.Attributes))
	}
	p.buf.WriteByte(';')
}

func (p *printer) exportNamed(it *ast.ExportNamed) {
	names := make([]string, len(it.Specifiers))
	for i, s := range it.Specifiers {
		names[i] = p.text(s.Loc)
	}
	p.buf.WriteString("export ")
	p.buf.WriteString(braces(names))
	if it.Source != nil {
		p.buf.WriteString(" from ")
		p.buf.WriteString(p.text(*it.Source))
		if !it.Attributes.IsEmpty() {
			p.buf.WriteByte(' ')
			p.buf.WriteString(p.text(it.Attributes))
		}
	}
	p.buf.WriteByte(';')
}

func braces(items []string) string {
	if len(items) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(items, ", ") + " }"
}

func (p *printer) varDecl(it *ast.VarDecl) {
	if it.Exported {
		p.buf.WriteString("export ")
	}
	p.buf.WriteString(it.Kind)
	p.buf.WriteByte(' ')
	for i, d := range it.Decls {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		if !d.Modified {
			p.buf.WriteString(p.text(d.Loc))
			continue
		}
		p.pattern(d.Binding)
		if !d.TypeAnn.IsEmpty() {
			p.buf.WriteString(p.text(d.TypeAnn))
		}
		if d.Init != nil {
			p.buf.WriteString(" = ")
			p.buf.WriteString(p.text(d.Init.Loc))
		}
	}
	p.buf.WriteByte(';')
}

func (p *printer) pattern(pat ast.Pattern) {
	switch pt := pat.(type) {
	case *ast.BindingIdent:
		p.buf.WriteString(p.text(pt.Loc))

	case *ast.ArrayPattern:
		p.buf.WriteByte('[')
		for i, el := range pt.Elems {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			if el != nil {
				p.pattern(el)
			}
		}
		// A trailing hole needs its own comma or it would be read as a
		// trailing comma.
		if n := len(pt.Elems); n > 0 && pt.Elems[n-1] == nil {
			p.buf.WriteByte(',')
		}
		p.buf.WriteByte(']')

	case *ast.ObjectPattern:
		if len(pt.Props) == 0 {
			p.buf.WriteString("{}")
			return
		}
		p.buf.WriteString("{ ")
		for i, prop := range pt.Props {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			switch {
			case prop.Rest:
				p.buf.WriteString("...")
				p.pattern(prop.Value)
			case prop.Key != nil:
				p.buf.WriteString(p.text(prop.Key.Loc))
				p.buf.WriteString(": ")
				p.pattern(prop.Value)
			default:
				p.pattern(prop.Value)
			}
		}
		p.buf.WriteString(" }")

	case *ast.AssignPattern:
		p.pattern(pt.Left)
		p.buf.WriteString(" = ")
		p.buf.WriteString(p.text(pt.Default.Loc))

	case *ast.RestPattern:
		p.buf.WriteString("...")
		p.pattern(pt.Arg)
	}
}
