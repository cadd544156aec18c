package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func top(name string) Ref { return Ref{Name: name, Scope: ModuleScope} }

func bind(name string) *BindingIdent {
	return &BindingIdent{Ident: Ident{Ref: top(name)}}
}

func exprOf(names ...string) Expr {
	var e Expr
	for _, n := range names {
		e.Idents = append(e.Idents, Ident{Ref: top(n)})
	}
	return e
}

func TestBindings_DefaultsAttributedToOwnBinding(t *testing.T) {
	t.Parallel()

	// { a = x, b: [c = y, ...d] }
	p := &ObjectPattern{Props: []*PropertyPattern{
		{Shorthand: true, Value: &AssignPattern{Left: bind("a"), Default: exprOf("x")}},
		{Key: &Expr{}, Value: &ArrayPattern{Elems: []Pattern{
			&AssignPattern{Left: bind("c"), Default: exprOf("y")},
			&RestPattern{Arg: bind("d")},
		}}},
	}}

	bs := Bindings(p)
	require.Len(t, bs, 3)
	assert.Equal(t, "a", bs[0].Ident.Ref.Name)
	assert.Equal(t, []Ref{top("x")}, bs[0].Refs)
	assert.Equal(t, "c", bs[1].Ident.Ref.Name)
	assert.Equal(t, []Ref{top("y")}, bs[1].Refs)
	assert.Equal(t, "d", bs[2].Ident.Ref.Name)
	assert.Empty(t, bs[2].Refs)
}

func TestBindings_ComputedKeyAppliesToNestedNames(t *testing.T) {
	t.Parallel()

	key := exprOf("k")
	p := &ObjectPattern{Props: []*PropertyPattern{
		{Key: &key, Computed: true, Value: &AssignPattern{Left: bind("v"), Default: exprOf("z")}},
	}}

	bs := Bindings(p)
	require.Len(t, bs, 1)
	assert.Equal(t, []Ref{top("k"), top("z")}, bs[0].Refs)
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(&ArrayPattern{Elems: []Pattern{nil, nil}}))
	assert.True(t, IsEmpty(&ObjectPattern{}))
	assert.True(t, IsEmpty(&RestPattern{Arg: &ArrayPattern{}}))
	assert.False(t, IsEmpty(&ArrayPattern{Elems: []Pattern{nil, bind("a")}}))
	assert.False(t, IsEmpty(&AssignPattern{Left: bind("a")}))
}

func TestExprRefs_NilSafe(t *testing.T) {
	t.Parallel()

	var e *Expr
	assert.Nil(t, e.Refs())

	e2 := exprOf("a", "b", "a")
	assert.Equal(t, []Ref{top("a"), top("b"), top("a")}, e2.Refs())
}

func TestRef(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, Ref{Name: "a", Scope: 1}, Ref{Name: "a", Scope: 2})
	assert.True(t, top("a").IsTopLevel())
	assert.False(t, Ref{Name: "console"}.IsBound())
	assert.Equal(t, "a#1", top("a").String())
	assert.Equal(t, "console", Ref{Name: "console"}.String())
}
