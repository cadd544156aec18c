package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/rs/zerolog"
)

// Runtime embeds a Risor VM and runs removal policy scripts. A policy sees
// the module it is about to transform and evaluates to the list of export
// names to remove.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     zerolog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger routes the scripts' log global to logger.
func WithRuntimeLogger(logger zerolog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime that loads policies from scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PolicyInput is what a policy script can see about the module.
type PolicyInput struct {
	Path      string
	Language  string
	Exports   []string
	Requested []string
}

// RunPolicy loads and evaluates the policy script at scriptPath.
func (r *Runtime) RunPolicy(ctx context.Context, scriptPath string, in PolicyInput) ([]string, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, in)
}

// RunPolicySource evaluates policy source directly. Useful for inline
// policies and tests.
func (r *Runtime) RunPolicySource(ctx context.Context, source string, in PolicyInput) ([]string, error) {
	return r.eval(ctx, source, "<inline>", in)
}

func (r *Runtime) eval(ctx context.Context, source, label string, in PolicyInput) ([]string, error) {
	globals := r.buildGlobals(in)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	names, err := namesFromResult(result)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return names, nil
}

// namesFromResult accepts a list of strings, a single string, or nil (no
// removals).
func namesFromResult(result object.Object) ([]string, error) {
	switch v := result.(type) {
	case nil, *object.NilType:
		return nil, nil
	case *object.String:
		return []string{v.Value()}, nil
	case *object.List:
		items := v.Value()
		names := make([]string, 0, len(items))
		for i, item := range items {
			s, ok := item.(*object.String)
			if !ok {
				return nil, fmt.Errorf("result item %d: expected string, got %s", i, item.Type())
			}
			names = append(names, s.Value())
		}
		return names, nil
	}
	return nil, fmt.Errorf("expected a list of export names, got %s", result.Type())
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the globals exposed to policy scripts.
func (r *Runtime) buildGlobals(in PolicyInput) map[string]any {
	return map[string]any{
		"path":       in.Path,
		"language":   in.Language,
		"exports":    stringList(in.Exports),
		"requested":  stringList(in.Requested),
		"has_export": makeHasExportFn(in.Exports),
		"glob_match": makeGlobMatchFn(),
		"log":        mustProxy(&logObject{logger: r.logger.With().Str("policy", in.Path).Logger()}),
	}
}

func stringList(items []string) *object.List {
	objs := make([]object.Object, len(items))
	for i, s := range items {
		objs[i] = object.NewString(s)
	}
	return object.NewList(objs)
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
