package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/unexport"
	"github.com/jward/unexport/internal/parser"
	"github.com/jward/unexport/policies"
)

// builtinPrefix selects an embedded policy, e.g. builtin:remix-client.
const builtinPrefix = "builtin:"

var (
	flagRemove   []string
	flagPolicy   string
	flagOut      string
	flagLanguage string
	flagCache    string
	flagCollapse bool
)

var stripCmd = &cobra.Command{
	Use:   "strip FILE",
	Short: "Remove exports from one module",
	Long: "Removes the named exports from FILE along with every top-level declaration only they kept alive. " +
		"The result is printed to stdout unless -o is given. Use \"default\" to remove the default export.",
	Args: cobra.ExactArgs(1),
	RunE: runStrip,
}

func init() {
	stripCmd.Flags().StringSliceVar(&flagRemove, "remove", nil, "comma-separated export names to remove")
	stripCmd.Flags().StringVar(&flagPolicy, "policy", "", "Risor script that chooses the exports to remove, or builtin:remix-client|builtin:qwik-client")
	stripCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the result to this path")
	stripCmd.Flags().StringVar(&flagLanguage, "language", "", "javascript|typescript|tsx (default: from the file extension)")
	stripCmd.Flags().StringVar(&flagCache, "cache", "", "SQLite cache path")
	stripCmd.Flags().BoolVar(&flagCollapse, "collapse-imports", false, "keep emptied imports as side-effect imports")
}

func runStrip(cmd *cobra.Command, args []string) error {
	if len(flagRemove) == 0 && flagPolicy == "" {
		return outputError(cmd, "strip", errors.New("one of --remove or --policy is required"))
	}

	job := unexport.Job{Path: args[0], Remove: flagRemove, Out: flagOut}
	lang, err := languageFlag()
	if err != nil {
		return outputError(cmd, "strip", err)
	}
	job.Language = lang

	opts := []unexport.Option{
		unexport.WithLogger(logger),
		unexport.WithParallel(false),
		unexport.WithCollapseImports(flagCollapse),
	}
	switch {
	case strings.HasPrefix(flagPolicy, builtinPrefix):
		job.Policy = strings.TrimPrefix(flagPolicy, builtinPrefix) + ".risor"
		opts = append(opts, unexport.WithPolicyFS(policies.FS))
	case flagPolicy != "":
		abs, err := filepath.Abs(flagPolicy)
		if err != nil {
			return outputError(cmd, "strip", fmt.Errorf("resolving policy path %q: %w", flagPolicy, err))
		}
		job.Policy = abs
	}
	if flagCache != "" {
		opts = append(opts, unexport.WithCache(flagCache))
	}
	engine, err := unexport.New(opts...)
	if err != nil {
		return outputError(cmd, "strip", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	results, err := engine.ProcessFiles(cmd.Context(), []unexport.Job{job})
	if err != nil {
		if len(results) == 1 && results[0].Err != nil {
			err = results[0].Err
		}
		return outputError(cmd, "strip", err)
	}
	res := results[0]

	if flagFormat == "text" && res.Out == "" {
		_, err := cmd.OutOrStdout().Write(res.Code)
		return err
	}
	if flagFormat == "text" {
		formatFilesText(cmd.OutOrStdout(), []CLIFile{toCLIFile(res)})
		return nil
	}
	return outputResult(cmd, CLIResult{Command: "strip", Results: toCLIFile(res)})
}

// languageFlag returns the --language override, or "" for detection by
// extension.
func languageFlag() (unexport.Language, error) {
	if flagLanguage == "" {
		return "", nil
	}
	lang, ok := unexport.ParseLanguage(flagLanguage)
	if !ok {
		return "", fmt.Errorf("unknown language %q", flagLanguage)
	}
	return lang, nil
}

// parseFile reads and parses path, honoring --language.
func parseFile(ctx context.Context, path string) (*unexport.Module, error) {
	lang, err := languageFlag()
	if err != nil {
		return nil, err
	}
	if lang == "" {
		var ok bool
		lang, ok = unexport.LanguageForFile(path)
		if !ok {
			return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parser.Parse(ctx, src, lang)
}
