// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"testing"

	"github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFn func(name string, cfg hl.GateConfig, conns string) (*hl.Part, error)

func TestGates(t *testing.T) {
	// results for in1, in0 = 00, 01, 10, 11
	td := []struct {
		name string
		fn   gateFn
		out  [4]uint64
	}{
		{"AND", hl.And, [4]uint64{0, 0, 0, 1}},
		{"NAND", hl.Nand, [4]uint64{1, 1, 1, 0}},
		{"OR", hl.Or, [4]uint64{0, 1, 1, 1}},
		{"NOR", hl.Nor, [4]uint64{1, 0, 0, 0}},
		{"XOR", hl.Xor, [4]uint64{0, 1, 1, 0}},
		{"XNOR", hl.Xnor, [4]uint64{1, 0, 0, 1}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			h := hwtest.New(t, hl.Must(d.fn("g", hl.GateConfig{}, "")))
			for i := uint64(0); i < 4; i++ {
				h.Set("in0", i&1)
				h.Set("in1", i>>1)
				h.Settle()
				assert.Equal(t, d.out[i], h.Uint("out"), "in1, in0 = %d, %d", i>>1, i&1)
			}
		})
	}
}

func TestGatesWide(t *testing.T) {
	cfg := hl.GateConfig{Inputs: 3, Width: 4}
	td := []struct {
		name string
		fn   gateFn
		out  uint64
	}{
		{"AND", hl.And, 0x2},
		{"OR", hl.Or, 0xf},
		{"XOR", hl.Xor, 0x3},
		{"NOR", hl.Nor, 0x0},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			h := hwtest.New(t, hl.Must(d.fn("g", cfg, "")))
			h.Set("in0", 0xe)
			h.Set("in1", 0x6)
			h.Set("in2", 0xb)
			h.Settle()
			assert.Equal(t, d.out, h.Uint("out"))
		})
	}
}

func TestGatesUndefined(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.And("and", hl.GateConfig{}, "")))
	h.SetValue("in0", evsim.Unknown)
	h.Set("in1", 0)
	h.Settle()
	assert.Equal(t, evsim.False, h.Get("out"), "0 dominates")
	h.Set("in1", 1)
	h.Settle()
	assert.Equal(t, evsim.Unknown, h.Get("out"))

	h = hwtest.New(t, hl.Must(hl.Or("or", hl.GateConfig{}, "")))
	h.SetValue("in0", evsim.Error)
	h.Set("in1", 1)
	h.Settle()
	assert.Equal(t, evsim.True, h.Get("out"), "1 dominates")
	h.Set("in1", 0)
	h.Settle()
	assert.Equal(t, evsim.Error, h.Get("out"))
}

func TestGateDelay(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.And("and", hl.GateConfig{Delay: 3}, "")))
	start := h.Propagator().Now()
	h.Set("in0", 1)
	h.Set("in1", 1)
	r := h.Settle()
	assert.Equal(t, start+3, r.Time)
	assert.Equal(t, uint64(1), h.Uint("out"))
}

func TestUnary(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Not("not", hl.UnaryConfig{Width: 8}, "")))
	h.Set("in", 0x5a)
	h.Settle()
	assert.Equal(t, uint64(0xa5), h.Uint("out"))

	h = hwtest.New(t, hl.Must(hl.Buffer("buf", hl.UnaryConfig{Width: 8}, "")))
	h.Set("in", 0x5a)
	h.Settle()
	assert.Equal(t, uint64(0x5a), h.Uint("out"))
}

func TestControlledBuffer(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.ControlledBuffer("tri", hl.UnaryConfig{Width: 4}, "")))
	h.Set("in", 0x9)
	h.Set("en", 1)
	h.Settle()
	assert.Equal(t, uint64(0x9), h.Uint("out"))

	h.Set("en", 0)
	h.Settle()
	assert.Equal(t, evsim.CreateUnknown(4), h.Get("out"), "floating")
}

func TestTristateBus(t *testing.T) {
	// two tri-state buffers sharing one bus
	c := evsim.NewCircuit("bus",
		evsim.NewInputPin("a", 4, "a"),
		evsim.NewInputPin("b", 4, "b"),
		evsim.NewInputPin("sel", 1, "sel"),
		hl.Must(hl.Not("inv", hl.UnaryConfig{}, "in=sel, out=nsel")),
		hl.Must(hl.ControlledBuffer("ta", hl.UnaryConfig{Width: 4}, "in=a, en=nsel, out=bus")),
		hl.Must(hl.ControlledBuffer("tb", hl.UnaryConfig{Width: 4}, "in=b, en=sel, out=bus")),
		evsim.NewOutputPin("out", 4, "bus"),
	)
	p, err := evsim.NewPropagator(c)
	require.NoError(t, err)
	root := p.Root()
	require.NoError(t, root.SetPin("a", evsim.CreateKnown(4, 3)))
	require.NoError(t, root.SetPin("b", evsim.CreateKnown(4, 12)))
	require.False(t, p.Propagate().Unstable)
	assert.Equal(t, evsim.CreateKnown(4, 3), root.GetValue("bus"))

	require.NoError(t, root.SetPin("sel", evsim.True))
	require.False(t, p.Propagate().Unstable)
	assert.Equal(t, evsim.CreateKnown(4, 12), root.GetValue("bus"))
}

func TestGateErrors(t *testing.T) {
	_, err := hl.And("and", hl.GateConfig{Inputs: 1}, "")
	assert.Error(t, err)
	_, err = hl.Or("or", hl.GateConfig{Width: evsim.MaxWidth + 1}, "")
	assert.Error(t, err)
	_, err = hl.Xor("xor", hl.GateConfig{Delay: -1}, "")
	assert.Error(t, err)
	_, err = hl.Nand("nand", hl.GateConfig{}, "in0=a, a=b")
	assert.EqualError(t, err, "NAND: invalid pin name a for part nand")
	_, err = hl.Nor("nor", hl.GateConfig{}, "in0")
	assert.Error(t, err)
	assert.Panics(t, func() { hl.Must(hl.Not("not", hl.UnaryConfig{Width: evsim.MaxWidth + 1}, "")) })
}

func TestPart(t *testing.T) {
	p, err := hl.Xnor("x", hl.GateConfig{Inputs: 3, Delay: 2}, "in0=a, out=y")
	require.NoError(t, err)
	assert.Equal(t, "x", p.Name())
	assert.Equal(t, "XNOR", p.Kind())
	assert.Equal(t, evsim.Time(2), p.Delay())
	assert.Equal(t, []evsim.Port{
		{Name: "in0", Loc: "a", Width: 1, Dir: evsim.Input},
		{Name: "in1", Loc: "x#in1", Width: 1, Dir: evsim.Input},
		{Name: "in2", Loc: "x#in2", Width: 1, Dir: evsim.Input},
		{Name: "out", Loc: "y", Width: 1, Dir: evsim.Output},
	}, p.Ports())
}
