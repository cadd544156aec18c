package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/unexport"
	"github.com/jward/unexport/internal/ast"
	"github.com/jward/unexport/internal/graph"
)

var exportsCmd = &cobra.Command{
	Use:   "exports FILE",
	Short: "List the export names of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runExports,
}

var graphCmd = &cobra.Command{
	Use:   "graph FILE",
	Short: "Print the reference graph of a module",
	Long:  "Prints every top-level binding with the bindings it references, the bindings kept alive by statements and the default export, and the binding behind each export name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	exportsCmd.Flags().StringVar(&flagLanguage, "language", "", "javascript|typescript|tsx (default: from the file extension)")
	graphCmd.Flags().StringVar(&flagLanguage, "language", "", "javascript|typescript|tsx (default: from the file extension)")
}

func runExports(cmd *cobra.Command, args []string) error {
	m, err := parseFile(cmd.Context(), args[0])
	if err != nil {
		return outputError(cmd, "exports", err)
	}
	out := CLIExports{Path: args[0], Exports: nonNil(unexport.Exports(m))}
	if flagFormat == "text" {
		formatExportsText(cmd.OutOrStdout(), out)
		return nil
	}
	return outputResult(cmd, CLIResult{Command: "exports", Results: out})
}

func runGraph(cmd *cobra.Command, args []string) error {
	m, err := parseFile(cmd.Context(), args[0])
	if err != nil {
		return outputError(cmd, "graph", err)
	}
	g, err := graph.Build(m)
	if err != nil {
		return outputError(cmd, "graph", err)
	}
	out := toCLIGraph(args[0], g)
	if flagFormat == "text" {
		formatGraphText(cmd.OutOrStdout(), out)
		return nil
	}
	return outputResult(cmd, CLIResult{Command: "graph", Results: out})
}

func toCLIGraph(path string, g *graph.Graph) CLIGraph {
	out := CLIGraph{
		Path:        path,
		Decls:       []CLIDecl{},
		GlobalRefs:  refNames(g.GlobalRefs.Sorted()),
		DefaultRefs: refNames(g.ExportDefaultRefs.Sorted()),
		Exports:     []CLIGraphExport{},
	}
	for _, d := range g.Decls() {
		out.Decls = append(out.Decls, CLIDecl{Name: d.Name, Refs: refNames(g.Targets(d))})
	}
	for _, name := range g.ExportNames() {
		out.Exports = append(out.Exports, CLIGraphExport{
			Name:        name,
			Binding:     g.ExportDecls[name].Name,
			Declaration: g.DeclExports[name],
		})
	}
	return out
}

// refNames drops scopes: every node of the graph is a top-level binding.
func refNames(refs []ast.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}
