// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdder(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Adder("add", hl.AdderConfig{Width: 8}, "")))
	f := func(a, b uint8, cin bool) bool {
		c := uint64(0)
		if cin {
			c = 1
		}
		h.Set("a", uint64(a))
		h.Set("b", uint64(b))
		h.Set("cin", c)
		h.Settle()
		sum := uint64(a) + uint64(b) + c
		return h.Uint("out") == sum&0xff && h.Uint("cout") == sum>>8
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestAdder64(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Adder("add", hl.AdderConfig{Width: 64}, "")))
	h.Set("a", math.MaxUint64)
	h.Set("b", 1)
	h.Settle()
	assert.Equal(t, uint64(0), h.Uint("out"))
	assert.Equal(t, uint64(1), h.Uint("cout"))
}

func TestAdderUndefined(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Adder("add", hl.AdderConfig{Width: 4}, "")))
	h.Set("a", 3)
	h.Set("b", 4)
	h.SetValue("cin", evsim.Unknown)
	h.Settle()
	assert.Equal(t, uint64(7), h.Uint("out"), "unknown carry in counts as 0")

	h.SetValue("a", evsim.CreateUnknown(4))
	h.Settle()
	assert.Equal(t, evsim.CreateUnknown(4), h.Get("out"))
	assert.Equal(t, evsim.Unknown, h.Get("cout"))

	h.SetValue("b", evsim.CreateError(4))
	h.Settle()
	assert.Equal(t, evsim.CreateError(4), h.Get("out"))
	assert.Equal(t, evsim.Error, h.Get("cout"))
}

// fullAdder builds a one bit full adder out of gates, with the same interface
// as a one bit Adder.
func fullAdder(t *testing.T) evsim.Component {
	c := evsim.NewCircuit("full_adder",
		evsim.NewInputPin("a", 1, "a"),
		evsim.NewInputPin("b", 1, "b"),
		evsim.NewInputPin("cin", 1, "cin"),
		hl.Must(hl.Xor("x0", hl.GateConfig{}, "in0=a, in1=b, out=s0")),
		hl.Must(hl.Xor("x1", hl.GateConfig{}, "in0=s0, in1=cin, out=s")),
		hl.Must(hl.And("a0", hl.GateConfig{}, "in0=a, in1=b, out=c0")),
		hl.Must(hl.And("a1", hl.GateConfig{}, "in0=s0, in1=cin, out=c1")),
		hl.Must(hl.Or("o0", hl.GateConfig{}, "in0=c0, in1=c1, out=c")),
		evsim.NewOutputPin("out", 1, "s"),
		evsim.NewOutputPin("cout", 1, "c"),
	)
	fa, err := evsim.NewSubcircuit("fa", c, nil)
	require.NoError(t, err)
	return fa
}

func TestFullAdder(t *testing.T) {
	hwtest.ComparePart(t, hl.Must(hl.Adder("add", hl.AdderConfig{Width: 1}, "")), fullAdder(t))
}
