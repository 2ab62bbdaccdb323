// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// DFFConfig configures a data flip flop.
//
type DFFConfig struct {
	Delay evsim.Time
}

// RegisterConfig configures a register.
//
type RegisterConfig struct {
	Width int // 1 if 0
	Delay evsim.Time
}

// CounterConfig configures a counter.
//
type CounterConfig struct {
	Width int    // 1 if 0
	Max   uint64 // wrap value, all ones if 0
	Delay evsim.Time
}

// sequential part state, kept per instance.
type seqState struct {
	edge
	q evsim.Value
}

func getSeqState(s *evsim.InstanceState, width int) *seqState {
	if d, ok := s.Data().(*seqState); ok {
		return d
	}
	d := &seqState{edge: edge{evsim.Unknown}, q: evsim.CreateKnown(width, 0)}
	s.SetData(d)
	return d
}

// DFF returns a clocked data flip flop. Its output starts at 0.
//
//	Inputs: in, clk
//	Outputs: out
//	Function: out = in on the rising edge of clk
//
func DFF(name string, cfg DFFConfig, conns string) (*Part, error) {
	return (&partSpec{
		Kind:  "DFF",
		Pins:  append(inputs(1, pIn, pClk), outputs(1, pOut)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			d := getSeqState(s, 1)
			if d.rising(s.Get(1)) {
				d.q = s.Get(0)
			}
			s.Set(2, d.q)
		},
	}).newPart(name, conns)
}

// Register returns a register. Its output starts at 0.
//
//	Inputs: in, clk, en, clr
//	Outputs: out
//	Function: if clr == 1 { out = 0 } else if en != 0 { out = in on the rising edge of clk }
//
// Clear is asynchronous. An unconnected enable enables the register.
//
func Register(name string, cfg RegisterConfig, conns string) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	zero := evsim.CreateKnown(width, 0)
	return (&partSpec{
		Kind:  "REGISTER",
		Pins:  append(append(inputs(width, pIn), inputs(1, pClk, pEn, pClr)...), outputs(width, pOut)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			d := getSeqState(s, width)
			rising := d.rising(s.Get(1))
			switch {
			case s.Get(3) == evsim.True:
				d.q = zero
			case rising && s.Get(2) != evsim.False:
				d.q = s.Get(0)
			}
			s.Set(4, d.q)
		},
	}).newPart(name, conns)
}

// Counter returns an up counter. Its output starts at 0.
//
//	Inputs: clk, en, clr
//	Outputs: out, carry
//	Function: if clr == 1 { out = 0 } else if en != 0 { out = out == max ? 0 : out+1 on the rising edge of clk }
//	          carry = out == max
//
func Counter(name string, cfg CounterConfig, conns string) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	if width > evsim.MaxWidth {
		return nil, errors.Errorf("COUNTER %s: invalid width %d", name, width)
	}
	top, _ := evsim.Repeat(evsim.True, width).ToLong()
	wrap := cfg.Max
	if wrap == 0 {
		wrap = top
	}
	if wrap > top {
		return nil, errors.Errorf("COUNTER %s: max %d does not fit in %d bits", name, wrap, width)
	}
	zero := evsim.CreateKnown(width, 0)
	return (&partSpec{
		Kind:  "COUNTER",
		Pins:  append(append(inputs(1, pClk, pEn, pClr), outputs(width, pOut)...), outputs(1, pCarry)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			d := getSeqState(s, width)
			rising := d.rising(s.Get(0))
			switch {
			case s.Get(2) == evsim.True:
				d.q = zero
			case rising && s.Get(1) != evsim.False:
				if v, _ := d.q.ToLong(); v >= wrap {
					d.q = zero
				} else {
					d.q = evsim.CreateKnown(width, v+1)
				}
			}
			s.Set(3, d.q)
			v, _ := d.q.ToLong()
			s.Set(4, boolValue(v == wrap))
		},
	}).newPart(name, conns)
}

func boolValue(b bool) evsim.Value {
	if b {
		return evsim.True
	}
	return evsim.False
}
