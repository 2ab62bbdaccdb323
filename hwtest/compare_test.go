// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest_test

import (
	"testing"

	"github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparePart(t *testing.T) {
	nand := hl.GateConfig{Delay: 1}
	or := evsim.NewCircuit("custom_or",
		evsim.NewInputPin("in0", 1, "a"),
		evsim.NewInputPin("in1", 1, "b"),
		hl.Must(hl.Nand("n0", nand, "in0=a, in1=a, out=notA")),
		hl.Must(hl.Nand("n1", nand, "in0=b, in1=b, out=notB")),
		hl.Must(hl.Nand("n2", nand, "in0=notA, in1=notB, out=o")),
		evsim.NewOutputPin("out", 1, "o"),
	)
	sub, err := evsim.NewSubcircuit("or", or, nil)
	require.NoError(t, err)
	hwtest.ComparePart(t, hl.Must(hl.Or("or", hl.GateConfig{}, "")), sub)
}

func TestCompareClocked(t *testing.T) {
	// a DFF built from a one bit register with enable and clear left floating
	reg := evsim.NewCircuit("reg_dff",
		evsim.NewInputPin("in", 1, "d"),
		evsim.NewInputPin("clk", 1, "clk"),
		hl.Must(hl.Register("r", hl.RegisterConfig{}, "in=d, clk=clk, out=q")),
		evsim.NewOutputPin("out", 1, "q"),
	)
	sub, err := evsim.NewSubcircuit("dff", reg, nil)
	require.NoError(t, err)
	hwtest.ComparePart(t, hl.Must(hl.DFF("dff", hl.DFFConfig{}, "")), sub)
}

func TestHarness(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Counter("cnt", hl.CounterConfig{Width: 4}, "")))
	assert.True(t, h.Clocked())
	h.Set("en", 1)
	for i := 0; i < 3; i++ {
		h.TickTock()
	}
	assert.Equal(t, uint64(3), h.Uint("out"))
	assert.Equal(t, uint64(3), h.Propagator().Ticks()/2)
}
