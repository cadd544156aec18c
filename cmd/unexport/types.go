package main

import "github.com/jward/unexport"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIFile is the outcome of transforming one file. Code is set only when the
// result was not written to Out.
type CLIFile struct {
	Path            string   `json:"path"`
	Out             string   `json:"out,omitempty"`
	Code            *string  `json:"code,omitempty"`
	Requested       []string `json:"requested"`
	RemovedExports  []string `json:"removed_exports"`
	RemovedBindings []string `json:"removed_bindings"`
	Cached          bool     `json:"cached"`
	DurationMS      float64  `json:"duration_ms"`
	Error           string   `json:"error,omitempty"`
}

// CLIExports lists the export names of one module.
type CLIExports struct {
	Path    string   `json:"path"`
	Exports []string `json:"exports"`
}

// CLIGraph is a JSON-friendly reference graph.
type CLIGraph struct {
	Path        string           `json:"path"`
	Decls       []CLIDecl        `json:"decls"`
	GlobalRefs  []string         `json:"global_refs"`
	DefaultRefs []string         `json:"default_refs"`
	Exports     []CLIGraphExport `json:"exports"`
}

// CLIDecl is one top-level binding and the bindings it references.
type CLIDecl struct {
	Name string   `json:"name"`
	Refs []string `json:"refs"`
}

// CLIGraphExport maps an export name to its local binding.
type CLIGraphExport struct {
	Name        string `json:"name"`
	Binding     string `json:"binding"`
	Declaration bool   `json:"declaration"`
}

func toCLIFile(r unexport.FileResult) CLIFile {
	f := CLIFile{
		Path:            r.Path,
		Out:             r.Out,
		Requested:       nonNil(r.Report.Requested),
		RemovedExports:  nonNil(r.Report.RemovedExports),
		RemovedBindings: nonNil(r.Report.RemovedBindings),
		Cached:          r.Cached,
		DurationMS:      float64(r.Duration.Microseconds()) / 1000,
	}
	if r.Err != nil {
		f.Error = r.Err.Error()
		return f
	}
	if r.Out == "" {
		code := string(r.Code)
		f.Code = &code
	}
	return f
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
