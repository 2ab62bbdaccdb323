// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthErrors(t *testing.T) {
	c := NewCircuit("narrow",
		NewConstant("one", True, "x"),
		NewOutputPin("wide", 8, "x"),
		NewInputPin("a", 4, "a"),
		NewOutputPin("b", 4, "a"),
	)
	errs := c.WidthErrors()
	require.Len(t, errs, 1)
	we := errs[0]
	assert.Equal(t, Location("x"), we.Loc)
	assert.Equal(t, []int{1, 8}, we.Widths)
	assert.Equal(t, []Location{"x"}, we.Points)
	assert.EqualError(t, we, "evsim: narrow: incompatible widths at x: 1, 8")

	// memoized until the next edit
	again := c.WidthErrors()
	assert.Same(t, we, again[0])

	p := newPropagator(t, c)
	r := p.Propagate()
	assert.False(t, r.Unstable)
	assert.Len(t, r.WidthErrors, 1)
	assert.Equal(t, CreateError(8), p.Root().GetValue("x"), "mismatched nets carry Error")
	assert.Equal(t, CreateKnown(4, 0), p.Root().GetValue("a"), "simulation goes on")

	c.Connect("x", "y")
	c.Add(NewOutputPin("y", 8, "y"))
	errs = c.WidthErrors()
	require.Len(t, errs, 1)
	assert.NotSame(t, we, errs[0])
	assert.Equal(t, []Location{"x", "y"}, errs[0].Points)
}

func TestWidthErrorsHierarchy(t *testing.T) {
	bad := NewCircuit("bad",
		NewInputPin("in", 2, "in"),
		NewOutputPin("out", 1, "in"),
	)
	u1, err := NewSubcircuit("u1", bad, W{"in": "a", "out": "y"})
	require.NoError(t, err)
	u2, err := NewSubcircuit("u2", bad, W{"in": "b", "out": "z"})
	require.NoError(t, err)
	top := NewCircuit("top", u1, u2)

	assert.Empty(t, top.WidthErrors())
	errs := WidthErrors(top)
	require.Len(t, errs, 1, "each circuit is reported once")
	assert.Equal(t, "bad", errs[0].Circuit)
	assert.Equal(t, []int{1, 2}, errs[0].Widths)
}
