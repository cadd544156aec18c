package unexport

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/unexport/internal/parser"
)

func parse(t *testing.T, src string) *Module {
	t.Helper()
	m, err := parser.Parse(context.Background(), []byte(src), JavaScript)
	require.NoError(t, err)
	return m
}

func transform(t *testing.T, src string, removals ...string) *Output {
	t.Helper()
	out, err := Transform(context.Background(), []byte(src), JavaScript, removals)
	require.NoError(t, err)
	return out
}

func TestRemoveExports_Report(t *testing.T) {
	m := parse(t, `import { db } from "db";
const id = 1;
export const loader = () => db(id);
export function action() {}
export { id as ident };
`)
	res, err := RemoveExports(m, []string{"loader", "missing", "loader"})
	require.NoError(t, err)

	assert.Same(t, m, res.Module)
	assert.Equal(t, []string{"loader", "missing"}, res.Report.Requested)
	assert.Equal(t, []string{"loader"}, res.Report.RemovedExports)
	assert.Equal(t, []string{"db", "loader"}, res.Report.RemovedBindings)
	assert.Equal(t, 2, res.Report.Items)
	assert.Len(t, m.Items, 3)
}

func TestRemoveExports_ErrorLeavesModuleUntouched(t *testing.T) {
	m := parse(t, `export const a = 1;
export { missing };
`)
	before := len(m.Items)
	_, err := RemoveExports(m, []string{"a"})
	require.ErrorIs(t, err, ErrContract)
	assert.Len(t, m.Items, before)
	for _, item := range m.Items {
		assert.False(t, item.Base().Modified)
	}
}

func TestRemoveExports_Unsupported(t *testing.T) {
	m, err := parser.Parse(context.Background(), []byte("export type A = string;\nexport const a = 1;\n"), TypeScript)
	require.NoError(t, err)
	_, err = RemoveExports(m, []string{"a"})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestTransform_SyntaxError(t *testing.T) {
	_, err := Transform(context.Background(), []byte("export const = ;"), JavaScript, nil)
	require.ErrorIs(t, err, ErrSyntax)
}

func TestTransform_UnknownLanguage(t *testing.T) {
	_, err := Transform(context.Background(), []byte("x;"), Language("cobol"), nil)
	require.Error(t, err)
}

func TestTransform_CollapseImports(t *testing.T) {
	src := `import a, { b } from "m";
export const x = () => a + b;
`
	out, err := Transform(context.Background(), []byte(src), JavaScript, []string{"x"}, CollapseImports(true))
	require.NoError(t, err)
	assert.Equal(t, "import \"m\";\n", string(out.Code))

	out, err = Transform(context.Background(), []byte(src), JavaScript, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "", string(out.Code))
}

func TestExports(t *testing.T) {
	m := parse(t, `import { x } from "x";
export function f() {}
export class C {}
export const { a, b: [c] } = {};
const local = 1;
export { local, local as "string name" };
export { r as renamed } from "other";
export * as ns from "ns";
export * from "all";
export default x;
`)
	assert.Equal(t, []string{"C", "a", "c", "default", "f", "local", "ns", "renamed", "string name"}, Exports(m))
}

func TestLanguageHelpers(t *testing.T) {
	lang, ok := LanguageForFile("app/routes/index.tsx")
	require.True(t, ok)
	assert.Equal(t, TSX, lang)

	lang, ok = ParseLanguage("typescript")
	require.True(t, ok)
	assert.Equal(t, TypeScript, lang)

	_, ok = LanguageForFile("main.go")
	assert.False(t, ok)
}

// Properties every transform must satisfy.

func TestProperty_Idempotent(t *testing.T) {
	src := `import { a, b } from "m";
const shared = a;
export const [x, , y = shared] = b;
export function z() {
  return shared;
}
`
	once := transform(t, src, "y", "z")
	twice := transform(t, string(once.Code), "y", "z")
	assert.Equal(t, string(once.Code), string(twice.Code))
	assert.Empty(t, twice.Report.RemovedBindings)
}

func TestProperty_SelfReferenceDoesNotKeepAlive(t *testing.T) {
	out := transform(t, `function tick() {
  setTimeout(tick, 10);
}
export function start() {
  tick();
}
`, "start")
	assert.Equal(t, "", string(out.Code))
}

func TestProperty_MutualRecursion(t *testing.T) {
	src := `function even(n) {
  return n === 0 || odd(n - 1);
}
function odd(n) {
  return n !== 0 && even(n - 1);
}
export { even, odd };
`
	partial := transform(t, src, "even")
	assert.Equal(t, `function even(n) {
  return n === 0 || odd(n - 1);
}
function odd(n) {
  return n !== 0 && even(n - 1);
}
export { odd };
`, string(partial.Code))

	full := transform(t, src, "even", "odd")
	assert.Equal(t, "", string(full.Code))
}

func TestProperty_ShadowedNamesDoNotKeepAlive(t *testing.T) {
	out := transform(t, `const config = load();
export function handler() {
  return config.value;
}
export function render(config) {
  {
    const load = () => config;
    return load();
  }
}
`, "handler")
	assert.Equal(t, `export function render(config) {
  {
    const load = () => config;
    return load();
  }
}
`, string(out.Code))
	assert.Equal(t, []string{"config", "handler"}, out.Report.RemovedBindings)
}

func TestProperty_ShadowedNamesDoNotCauseRemoval(t *testing.T) {
	out := transform(t, `import { db } from "db";
export const query = () => db();
export function other() {
  const db = 1;
  return db;
}
`, "other")
	assert.Equal(t, `import { db } from "db";
export const query = () => db();
`, string(out.Code))
}

func TestProperty_DestructuringPartialRemoval(t *testing.T) {
	out := transform(t, "export var [foo, , bar = 233, ...baz] = [];\n", "bar")
	assert.Equal(t, "export var [foo, , , ...baz] = [];\n", string(out.Code))
}

func TestProperty_ImportRetainedWhileReferenced(t *testing.T) {
	out := transform(t, `import { a, b } from "m";
export const x = () => a;
export const y = () => a + b;
`, "y")
	assert.Equal(t, `import { a } from "m";
export const x = () => a;
`, string(out.Code))
}

// randomModule builds a module of functions and constants with random
// references between them, plus the export names it defines. Every binding
// is exported at most once so removals never leave dangling specifiers.
type randomModule struct {
	src     string
	exports []string
	// edges, roots and exportOf describe the module for reachability checks.
	edges    map[string][]string
	roots    []string
	exportOf map[string]string // export name -> binding
	declared map[string]bool   // export names introduced by a declaration
	defaults []string          // bindings referenced from the default export
}

func genModule(rng *rand.Rand) randomModule {
	m := randomModule{
		edges:    make(map[string][]string),
		exportOf: make(map[string]string),
		declared: make(map[string]bool),
	}
	var lines []string

	numImports := rng.Intn(3)
	var imported []string
	for i := 0; i < numImports; i++ {
		imported = append(imported, fmt.Sprintf("i%d", i))
	}
	if len(imported) > 0 {
		lines = append(lines, fmt.Sprintf("import { %s } from \"mod\";", strings.Join(imported, ", ")))
	}

	numDecls := 3 + rng.Intn(6)
	var names []string
	for i := 0; i < numDecls; i++ {
		names = append(names, fmt.Sprintf("d%d", i))
	}
	all := append(append([]string(nil), names...), imported...)
	pick := func(max int) []string {
		var out []string
		seen := make(map[string]bool)
		for j := rng.Intn(max + 1); j > 0; j-- {
			n := all[rng.Intn(len(all))]
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		return out
	}

	var clause []string
	for _, name := range names {
		refs := pick(3)
		m.edges[name] = refs
		list := strings.Join(refs, ", ")

		prefix := ""
		switch rng.Intn(3) {
		case 1:
			prefix = "export "
			m.exportOf[name] = name
			m.declared[name] = true
		case 2:
			alias := name
			if rng.Intn(2) == 0 {
				alias = "e" + name[1:]
				clause = append(clause, name+" as "+alias)
			} else {
				clause = append(clause, name)
			}
			m.exportOf[alias] = name
		}
		if rng.Intn(2) == 0 {
			lines = append(lines, fmt.Sprintf("%sfunction %s() {\n  return [%s];\n}", prefix, name, list))
		} else {
			lines = append(lines, fmt.Sprintf("%sconst %s = () => [%s];", prefix, name, list))
		}
	}

	if rng.Intn(3) == 0 {
		roots := pick(2)
		if len(roots) > 0 {
			m.roots = roots
			lines = append(lines, fmt.Sprintf("use(%s);", strings.Join(roots, ", ")))
		}
	}
	if rng.Intn(2) == 0 {
		m.defaults = pick(2)
		m.exportOf["default"] = ""
		lines = append(lines, fmt.Sprintf("export default () => [%s];", strings.Join(m.defaults, ", ")))
	}
	if len(clause) > 0 {
		lines = append(lines, fmt.Sprintf("export { %s };", strings.Join(clause, ", ")))
	}

	for name := range m.exportOf {
		m.exports = append(m.exports, name)
	}
	sort.Strings(m.exports)
	m.src = strings.Join(lines, "\n") + "\n"
	return m
}

// mustSurvive returns the bindings reachable from a root that is kept
// through bindings that are not removed outright.
func (m randomModule) mustSurvive(removals []string) map[string]bool {
	req := make(map[string]bool)
	for _, r := range removals {
		req[r] = true
	}
	forced := make(map[string]bool)
	var stack []string
	for name, binding := range m.exportOf {
		if name == "default" {
			continue
		}
		if req[name] {
			if m.declared[name] {
				forced[binding] = true
			}
			continue
		}
		stack = append(stack, binding)
	}
	stack = append(stack, m.roots...)
	if !req["default"] {
		stack = append(stack, m.defaults...)
	}

	live := make(map[string]bool)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if live[n] || forced[n] {
			continue
		}
		live[n] = true
		stack = append(stack, m.edges[n]...)
	}
	return live
}

func randomRequest(rng *rand.Rand, exports []string) (first, second []string) {
	for _, name := range exports {
		switch rng.Intn(4) {
		case 0:
			first = append(first, name)
		case 1:
			second = append(second, name)
		}
	}
	return first, second
}

// TestProperty_SequentialRemovalMatchesUnion checks that removing a set of
// exports at once gives the same module as removing it in two steps.
func TestProperty_SequentialRemovalMatchesUnion(t *testing.T) {
	rng := rand.New(rand.NewSource(20240601))
	for i := 0; i < 300; i++ {
		m := genModule(rng)
		first, second := randomRequest(rng, m.exports)
		union := append(append([]string(nil), first...), second...)

		whole, err := Transform(context.Background(), []byte(m.src), JavaScript, union)
		require.NoError(t, err, "module:\n%s", m.src)

		step, err := Transform(context.Background(), []byte(m.src), JavaScript, first)
		require.NoError(t, err, "module:\n%s", m.src)
		step, err = Transform(context.Background(), step.Code, JavaScript, second)
		require.NoError(t, err, "module:\n%s", m.src)

		require.Equal(t, string(whole.Code), string(step.Code),
			"module:\n%s\nfirst: %v\nsecond: %v", m.src, first, second)
	}
}

// TestProperty_RemovalNeverTouchesLiveCode checks that requested exports
// are gone and that nothing still reachable from a kept root was deleted.
func TestProperty_RemovalNeverTouchesLiveCode(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		m := genModule(rng)
		first, second := randomRequest(rng, m.exports)
		removals := append(first, second...)

		out, err := Transform(context.Background(), []byte(m.src), JavaScript, removals)
		require.NoError(t, err, "module:\n%s", m.src)

		removed := make(map[string]bool)
		for _, b := range out.Report.RemovedBindings {
			removed[b] = true
		}
		for name := range m.mustSurvive(removals) {
			assert.False(t, removed[name], "live binding %s removed\nmodule:\n%s\nremovals: %v", name, m.src, removals)
		}

		left := Exports(parse(t, string(out.Code)))
		for _, name := range removals {
			assert.NotContains(t, left, name, "module:\n%s", m.src)
		}
	}
}
