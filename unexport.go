package unexport

import (
	"context"
	"fmt"
	"sort"

	"github.com/jward/unexport/internal/ast"
	"github.com/jward/unexport/internal/graph"
	"github.com/jward/unexport/internal/liveness"
	"github.com/jward/unexport/internal/parser"
	"github.com/jward/unexport/internal/printer"
	"github.com/jward/unexport/internal/prune"
)

// Version is recorded with every cached result. Bump it whenever the
// transform output can change for the same input.
const Version = "0.4.0"

// Errors returned by RemoveExports and Transform. Check with errors.Is.
var (
	ErrContract    = graph.ErrContract
	ErrUnsupported = graph.ErrUnsupported
	ErrSyntax      = parser.ErrSyntax
)

// Report describes what a transform removed.
type Report struct {
	// Requested is the normalised removal request.
	Requested []string `json:"requested"`
	// RemovedExports lists the requested names the module actually exported.
	RemovedExports []string `json:"removed_exports"`
	// RemovedBindings lists the top-level bindings that were deleted.
	RemovedBindings []string `json:"removed_bindings"`
	Items           int      `json:"items"`
	Specifiers      int      `json:"specifiers"`
	Bindings        int      `json:"bindings"`
}

// Result is the outcome of RemoveExports.
type Result struct {
	Module *ast.Module
	Report Report
}

// Output is the outcome of Transform.
type Output struct {
	Code   []byte
	Report Report
}

type removeConfig struct {
	collapseImports bool
}

// RemoveOption tunes a single transform.
type RemoveOption func(*removeConfig)

// CollapseImports keeps imports whose every specifier was removed as bare
// side-effect imports instead of deleting them.
func CollapseImports(collapse bool) RemoveOption {
	return func(c *removeConfig) {
		c.collapseImports = collapse
	}
}

// RemoveExports deletes the exports named in removals from m, together with
// every top-level declaration that only they kept alive. "default" names the
// default export. Names m does not export are ignored.
//
// m is modified in place. On error m is left untouched.
func RemoveExports(m *ast.Module, removals []string, opts ...RemoveOption) (*Result, error) {
	var cfg removeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	g, err := graph.Build(m)
	if err != nil {
		return nil, fmt.Errorf("unexport: %w", err)
	}
	req := liveness.NewRequest(removals...)
	present := Exports(m)

	set := liveness.Solve(g, req)
	stats := prune.Apply(m, set, req, prune.Options{CollapseImports: cfg.collapseImports})

	var removed []string
	for _, name := range present {
		if req.Has(name) {
			removed = append(removed, name)
		}
	}
	return &Result{
		Module: m,
		Report: Report{
			Requested:       req.Names(),
			RemovedExports:  removed,
			RemovedBindings: set.Names(),
			Items:           stats.Items,
			Specifiers:      stats.Specifiers,
			Bindings:        stats.Bindings,
		},
	}, nil
}

// Transform parses src, removes the requested exports and prints the
// result.
func Transform(ctx context.Context, src []byte, lang parser.Language, removals []string, opts ...RemoveOption) (*Output, error) {
	m, err := parser.Parse(ctx, src, lang)
	if err != nil {
		return nil, fmt.Errorf("unexport: %w", err)
	}
	res, err := RemoveExports(m, removals, opts...)
	if err != nil {
		return nil, err
	}
	return &Output{Code: printer.Print(res.Module), Report: res.Report}, nil
}

// Exports returns the sorted, deduplicated names m exports, including
// re-exports and "default". `export * from` contributes no names.
func Exports(m *ast.Module) []string {
	seen := make(map[string]bool)
	add := func(name string) {
		seen[name] = true
	}
	for _, item := range m.Items {
		switch it := item.(type) {
		case *ast.FuncDecl:
			if it.Exported {
				add(it.Name.Ref.Name)
			}
		case *ast.ClassDecl:
			if it.Exported {
				add(it.Name.Ref.Name)
			}
		case *ast.VarDecl:
			if !it.Exported {
				continue
			}
			for _, d := range it.Decls {
				for _, b := range ast.Bindings(d.Binding) {
					add(b.Ident.Ref.Name)
				}
			}
		case *ast.ExportNamed:
			for _, s := range it.Specifiers {
				add(s.ExportedName())
			}
		case *ast.ExportAll:
			if it.Namespace != nil {
				add(it.Namespace.Name)
			}
		case *ast.ExportDefault:
			add(liveness.DefaultExport)
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
