package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// outputResult writes a result envelope as indented JSON.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	_ = outputResult(cmd, CLIResult{Command: command, Error: err.Error()})
	return err
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tOUT\tREMOVED\tBINDINGS\tCACHED\tERROR")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			f.Path, dash(f.Out), dashList(f.RemovedExports), dashList(f.RemovedBindings), f.Cached, dash(f.Error))
	}
	tw.Flush()
}

// formatExportsText prints one export name per line.
func formatExportsText(w io.Writer, out CLIExports) {
	for _, name := range out.Exports {
		fmt.Fprintln(w, name)
	}
}

// formatGraphText formats a CLIGraph as readable text.
func formatGraphText(w io.Writer, g CLIGraph) {
	fmt.Fprintf(w, "Module: %s\n", g.Path)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BINDING\tREFERENCES")
	for _, d := range g.Decls {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, dashList(d.Refs))
	}
	tw.Flush()

	if len(g.GlobalRefs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Kept by statements: %s\n", strings.Join(g.GlobalRefs, ", "))
	}
	if len(g.DefaultRefs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Kept by default export: %s\n", strings.Join(g.DefaultRefs, ", "))
	}

	if len(g.Exports) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "EXPORT\tBINDING\tFORM")
		for _, e := range g.Exports {
			form := "clause"
			if e.Declaration {
				form = "declaration"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Binding, form)
		}
		tw.Flush()
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dashList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
