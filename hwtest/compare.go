// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/evsim"
	"github.com/stretchr/testify/require"
)

const pClk = "clk"

// A Harness wraps a single part in a circuit with a root Pin on each of its
// ports. An input port named "clk" is driven by a Clock instead.
//
type Harness struct {
	tb      testing.TB
	part    evsim.Component
	p       *evsim.Propagator
	ports   map[string]evsim.Port
	clocked bool
}

// New returns a new harness for part. The initial state is settled.
//
func New(tb testing.TB, part evsim.Component, opts ...evsim.Option) *Harness {
	tb.Helper()
	h := &Harness{tb: tb, part: part, ports: make(map[string]evsim.Port)}
	c := evsim.NewCircuit("harness " + part.Name())
	for _, pt := range part.Ports() {
		h.ports[pt.Name] = pt
		switch {
		case pt.Name == pClk && pt.Dir == evsim.Input && pt.Width == 1:
			c.Add(evsim.NewClock(pClk, pt.Loc, 1, 1))
			h.clocked = true
		case pt.Dir&evsim.Output != 0:
			c.Add(evsim.NewOutputPin(pt.Name, pt.Width, pt.Loc))
		default:
			c.Add(evsim.NewInputPin(pt.Name, pt.Width, pt.Loc))
		}
	}
	c.Add(part)
	p, err := evsim.NewPropagator(c, opts...)
	require.NoError(tb, err)
	h.p = p
	h.Settle()
	return h
}

// Propagator returns the harness propagator.
//
func (h *Harness) Propagator() *evsim.Propagator { return h.p }

// Clocked returns true if the part is driven by a clock.
//
func (h *Harness) Clocked() bool { return h.clocked }

// Set sets input pin name to the integer v. Changes are not propagated until
// the next call to Settle or TickTock.
//
func (h *Harness) Set(name string, v uint64) {
	h.tb.Helper()
	pt, ok := h.ports[name]
	require.True(h.tb, ok, "no pin %s", name)
	h.SetValue(name, evsim.CreateKnown(pt.Width, v))
}

// SetValue sets input pin name to v.
//
func (h *Harness) SetValue(name string, v evsim.Value) {
	h.tb.Helper()
	require.NoError(h.tb, h.p.Root().SetPin(name, v))
}

// Get returns the value of the named pin.
//
func (h *Harness) Get(name string) evsim.Value {
	h.tb.Helper()
	v, err := h.p.Root().PinValue(name)
	require.NoError(h.tb, err)
	return v
}

// Uint returns the value of the named pin as an integer. It fails the test if
// the value is not fully defined.
//
func (h *Harness) Uint(name string) uint64 {
	h.tb.Helper()
	u, err := h.Get(name).ToLong()
	require.NoError(h.tb, err, "pin %s", name)
	return u
}

// Settle propagates until the circuit is stable. It fails the test if the
// circuit oscillates.
//
func (h *Harness) Settle() *evsim.StepResult {
	h.tb.Helper()
	r := h.p.Propagate()
	require.False(h.tb, r.Unstable, "circuit is oscillating: %v", r.Err)
	return r
}

// TickTock runs a full clock cycle: a rising edge, then a falling edge, each
// followed by a propagation.
//
func (h *Harness) TickTock() {
	h.tb.Helper()
	for i := 0; i < 2; i++ {
		r := h.p.Tick()
		require.False(h.tb, r.Unstable, "circuit is oscillating: %v", r.Err)
	}
}

// inputs returns the settable input ports, in part order.
func (h *Harness) inputs() []evsim.Port {
	var r []evsim.Port
	for _, pt := range h.part.Ports() {
		if pt.Dir&evsim.Output == 0 && !(h.clocked && pt.Name == pClk) {
			r = append(r, pt)
		}
	}
	return r
}

func (h *Harness) outputs() []evsim.Port {
	var r []evsim.Port
	for _, pt := range h.part.Ports() {
		if pt.Dir&evsim.Output != 0 {
			r = append(r, pt)
		}
	}
	return r
}

func sameInterface(a, b []evsim.Port) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Width != b[i].Width {
			return false
		}
	}
	return true
}

func portList(ps []evsim.Port) string {
	var b strings.Builder
	for _, p := range ps {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
	}
	return b.String()
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface. If the total number of
// input bits is small enough, all input combinations are tried, otherwise
// random inputs are used. Clocked parts get a full clock cycle per input
// vector.
//
func ComparePart(t *testing.T, part1, part2 evsim.Component) {
	t.Helper()

	h1, h2 := New(t, part1), New(t, part2)
	in, out := h1.inputs(), h1.outputs()
	require.True(t, sameInterface(in, h2.inputs()), "inputs differ: %s vs. %s", portList(in), portList(h2.inputs()))
	require.True(t, sameInterface(out, h2.outputs()), "outputs differ: %s vs. %s", portList(out), portList(h2.outputs()))
	require.Equal(t, h1.clocked, h2.clocked, "only one part is clocked")

	bits := 0
	for _, p := range in {
		bits += p.Width
	}
	exhaustive := bits <= 12
	iter := 1 << 12
	if exhaustive {
		iter = 1 << uint(bits)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()
	for i := 0; i < iter; i++ {
		vec := make([]uint64, len(in))
		if exhaustive {
			n := uint64(i)
			for k, p := range in {
				vec[k] = n & (1<<uint(p.Width) - 1)
				n >>= uint(p.Width)
			}
		} else {
			for k := range vec {
				vec[k] = rnd.Uint64()
			}
		}
		for _, h := range []*Harness{h1, h2} {
			for k, p := range in {
				h.Set(p.Name, vec[k])
			}
			if h.clocked {
				h.TickTock()
			} else {
				h.Settle()
			}
		}
		for _, p := range out {
			v1, v2 := h1.Get(p.Name), h2.Get(p.Name)
			if v1 != v2 {
				var b strings.Builder
				for k, ip := range in {
					if k > 0 {
						b.WriteString(", ")
					}
					b.WriteString(ip.Name + "=" + evsim.CreateKnown(ip.Width, vec[k]).String())
				}
				t.Fatalf("\nInputs %s\n%s: %s = %s, %s = %s", b.String(), p.Name, part1.Name(), v1, part2.Name(), v2)
			}
		}
	}
	t.Logf("%d input vectors in %v", iter, time.Since(start))
}
