package unexport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format. Each directory under testdata/golden holds one
// input.{js,ts,tsx}, a golden.json and, unless an error is expected, the
// expected output.{js,ts,tsx}.
type goldenFile struct {
	Remove          []string `json:"remove"`
	RemovedBindings []string `json:"removed_bindings,omitempty"`
	CollapseImports bool     `json:"collapse_imports,omitempty"`
	// Error is one of "contract", "unsupported" or "syntax".
	Error string `json:"error,omitempty"`
}

var goldenErrors = map[string]error{
	"contract":    ErrContract,
	"unsupported": ErrUnsupported,
	"syntax":      ErrSyntax,
}

// TestGolden walks testdata/golden and runs every case through Transform.
func TestGolden(t *testing.T) {
	dirs, err := os.ReadDir(filepath.Join("testdata", "golden"))
	require.NoError(t, err)

	ran := 0
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		ran++
		dir := filepath.Join("testdata", "golden", d.Name())
		t.Run(d.Name(), func(t *testing.T) {
			t.Parallel()
			runGoldenCase(t, dir)
		})
	}
	require.NotZero(t, ran, "no golden cases found")
}

func runGoldenCase(t *testing.T, dir string) {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "golden.json"))
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(data, &golden))

	inputs, err := filepath.Glob(filepath.Join(dir, "input.*"))
	require.NoError(t, err)
	require.Len(t, inputs, 1, "expected exactly one input file in %s", dir)
	input := inputs[0]

	lang, ok := LanguageForFile(input)
	require.True(t, ok, "unsupported input %s", input)
	src, err := os.ReadFile(input)
	require.NoError(t, err)

	out, err := Transform(context.Background(), src, lang, golden.Remove, CollapseImports(golden.CollapseImports))
	if golden.Error != "" {
		want, ok := goldenErrors[golden.Error]
		require.True(t, ok, "unknown error kind %q", golden.Error)
		require.ErrorIs(t, err, want)
		return
	}
	require.NoError(t, err)

	ext := filepath.Ext(input)
	expected, err := os.ReadFile(filepath.Join(dir, "output"+ext))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(out.Code))

	if golden.RemovedBindings != nil {
		assert.ElementsMatch(t, golden.RemovedBindings, out.Report.RemovedBindings)
	}

	// A second pass with the same request must change nothing.
	again, err := Transform(context.Background(), out.Code, lang, golden.Remove, CollapseImports(golden.CollapseImports))
	require.NoError(t, err)
	assert.Equal(t, string(out.Code), string(again.Code), "transform is not idempotent")
	assert.Empty(t, again.Report.RemovedBindings)
}
