// Package unexport removes named exports from an ECMAScript module and
// deletes every top-level declaration that existed only to serve them. It is
// a single-module dead-code pass driven by an explicit request, used as a
// build-time transform: strip `loader` and `action` from a route module
// before it ships to the browser, and whatever only they used goes too.
//
// # Pipeline
//
// A transform runs in four steps:
//
//  1. Parse: tree-sitter parses the source and a resolver gives every
//     identifier a hygienic binding (name plus declaring scope), so a
//     shadowed local never keeps a top-level binding alive.
//
//  2. Graph: every top-level binding gets the set of top-level bindings its
//     body or initializer references. Statements that are not declarations
//     and the default export are recorded as roots.
//
//  3. Solve: references are counted, the requested exports are discounted,
//     and every binding whose count reaches zero is removed, transitively.
//     Cycles that lose all outside references are removed as a whole.
//
//  4. Prune and print: declarations are deleted, destructuring patterns
//     and specifier lists are edited in place, and the module is printed.
//     Untouched statements keep their original text.
//
// # Usage
//
// Transform a single module:
//
//	out, err := unexport.Transform(ctx, src, unexport.TSX, []string{"loader", "default"})
//	if err != nil { ... }
//	os.Stdout.Write(out.Code)
//
// Or run many files through an Engine with a result cache:
//
//	e, err := unexport.New(unexport.WithCache(".unexport.db"), unexport.WithPolicyDir("policies"))
//	if err != nil { ... }
//	defer e.Close()
//	results, err := e.ProcessFiles(ctx, jobs)
//
// # Policies
//
// A Job may name a Risor policy script instead of a fixed removal list. The
// script sees the module's path, language and export names and evaluates to
// the list of names to remove:
//
//	result := []
//	for _, name := range exports {
//	    if name == "loader" || name == "action" {
//	        result.append(name)
//	    }
//	}
//	result
//
// The policies package embeds ready-made scripts for Remix and Qwik route
// modules; pass policies.FS to WithPolicyFS to use them.
//
// See the internal/runtime package for the globals exposed to policies.
package unexport
