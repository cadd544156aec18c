// Package liveness computes which top-level bindings die when a set of
// exports is removed.
//
// The solver counts, for every binding, the references that keep it alive:
// edges from other declarations, module statements, the default export and
// every export name that is not being removed. Removed declarations are
// propagated through a worklist; whatever reaches zero dies. Cycles that lose
// every external reference are found with a trial-deletion pass over the
// bindings whose counts dropped but stayed positive.
package liveness

import (
	"sort"

	"github.com/jward/unexport/internal/ast"
	"github.com/jward/unexport/internal/graph"
)

// DefaultExport is the request name for the default export.
const DefaultExport = "default"

// Request is the set of export names to remove.
type Request map[string]struct{}

// NewRequest builds a request from names. Duplicates collapse.
func NewRequest(names ...string) Request {
	r := make(Request, len(names))
	for _, n := range names {
		r[n] = struct{}{}
	}
	return r
}

// Has reports whether name is requested.
func (r Request) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Names returns the requested names in sorted order.
func (r Request) Names() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Set is the set of bindings to delete.
type Set map[ast.Ref]struct{}

// Has reports whether ref is to be deleted.
func (s Set) Has(ref ast.Ref) bool {
	_, ok := s[ref]
	return ok
}

// Names returns the surface names of the set in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out
}

// solver holds the state of one Solve call.
type solver struct {
	g        *graph.Graph
	counts   map[ast.Ref]uint32
	removed  Set
	queue    []ast.Ref
	done     map[ast.Ref]bool
	suspects []ast.Ref
}

// Solve returns the bindings of g that must be deleted to remove the exports
// named in req. Names that g does not export are ignored.
func Solve(g *graph.Graph, req Request) Set {
	s := &solver{
		g:       g,
		counts:  make(map[ast.Ref]uint32, len(g.DeclRefs)),
		removed: make(Set),
		done:    make(map[ast.Ref]bool),
	}
	s.count(req)
	s.seed(req)
	s.drain()
	s.collectCycles()
	return s.removed
}

func (s *solver) count(req Request) {
	for ref := range s.g.DeclRefs {
		s.counts[ref] = 0
	}
	for _, targets := range s.g.DeclRefs {
		for t := range targets {
			s.inc(t)
		}
	}
	for t := range s.g.GlobalRefs {
		s.inc(t)
	}
	for t := range s.g.ExportDefaultRefs {
		s.inc(t)
	}
	// Every export name holds its binding. Requested declaration exports
	// are removed outright, so only their names are left uncounted.
	for name, ref := range s.g.ExportDecls {
		if req.Has(name) && s.g.DeclExports[name] {
			continue
		}
		s.inc(ref)
	}
}

func (s *solver) inc(ref ast.Ref) {
	if _, ok := s.counts[ref]; ok {
		s.counts[ref]++
	}
}

// seed applies the request in sorted order so the result never depends on
// map iteration.
func (s *solver) seed(req Request) {
	for _, name := range s.g.ExportNames() {
		if !req.Has(name) {
			continue
		}
		ref := s.g.ExportDecls[name]
		if s.g.DeclExports[name] {
			s.remove(ref)
			continue
		}
		s.discount(ref)
	}
	if req.Has(DefaultExport) {
		for _, t := range s.g.ExportDefaultRefs.Sorted() {
			s.discount(t)
		}
	}
}

func (s *solver) remove(ref ast.Ref) {
	if s.removed.Has(ref) {
		return
	}
	s.removed[ref] = struct{}{}
	if !s.done[ref] {
		s.done[ref] = true
		s.queue = append(s.queue, ref)
	}
}

// discount drops one reference from ref. A binding whose count is already
// zero is left alone.
func (s *solver) discount(ref ast.Ref) {
	c, ok := s.counts[ref]
	if !ok || c == 0 {
		return
	}
	c--
	s.counts[ref] = c
	if c == 0 {
		s.remove(ref)
		return
	}
	s.suspects = append(s.suspects, ref)
}

func (s *solver) drain() {
	for len(s.queue) > 0 {
		ref := s.queue[0]
		s.queue = s.queue[1:]
		for _, t := range s.g.Targets(ref) {
			s.discount(t)
		}
	}
}

// collectCycles finds bindings that survived the worklist only because they
// reference each other. Starting from every binding whose count dropped, it
// subtracts the references that come from inside the reachable region; a
// binding still holding a reference is alive, and so is everything it
// reaches. The rest is removed.
func (s *solver) collectCycles() {
	trial := make(map[ast.Ref]uint32)
	var order []ast.Ref
	var stack []ast.Ref
	for _, ref := range s.suspects {
		if s.removed.Has(ref) {
			continue
		}
		if _, seen := trial[ref]; seen {
			continue
		}
		trial[ref] = s.counts[ref]
		order = append(order, ref)
		stack = append(stack, ref)
	}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range s.g.Targets(ref) {
			if s.removed.Has(t) {
				continue
			}
			if _, seen := trial[t]; !seen {
				trial[t] = s.counts[t]
				order = append(order, t)
				stack = append(stack, t)
			}
		}
	}
	if len(order) == 0 {
		return
	}

	for _, ref := range order {
		for _, t := range s.g.Targets(ref) {
			if c, ok := trial[t]; ok && c > 0 {
				trial[t] = c - 1
			}
		}
	}

	live := make(map[ast.Ref]bool)
	for _, ref := range order {
		if trial[ref] == 0 || live[ref] {
			continue
		}
		live[ref] = true
		stack = append(stack, ref)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, t := range s.g.Targets(cur) {
				if _, gray := trial[t]; gray && !live[t] {
					live[t] = true
					stack = append(stack, t)
				}
			}
		}
	}

	for _, ref := range order {
		if !live[ref] {
			s.removed[ref] = struct{}{}
		}
	}
}
