// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// MuxConfig configures multiplexers and demultiplexers.
//
type MuxConfig struct {
	Width  int // data width, 1 if 0
	Select int // select width, 1 if 0
	Delay  evsim.Time
}

func (c *MuxConfig) check(kind, name string) (width, sel int, err error) {
	width, sel = orDefault(c.Width, 1), orDefault(c.Select, 1)
	if sel > 5 {
		return 0, 0, errors.Errorf("%s %s: select width %d too large", kind, name, sel)
	}
	return width, sel, nil
}

// Mux returns a multiplexer with 2^Select data inputs.
//
//	Inputs: in0..inN-1, sel
//	Outputs: out
//	Function: out = in[sel]
//
// An undefined select yields an Unknown output, or Error if it holds an E
// bit.
//
func Mux(name string, cfg MuxConfig, conns string) (*Part, error) {
	width, sel, err := cfg.check("MUX", name)
	if err != nil {
		return nil, err
	}
	n := 1 << uint(sel)
	return (&partSpec{
		Kind:  "MUX",
		Pins:  append(append(inputs(width, bus(n, pIn)...), inputs(sel, pSel)...), outputs(width, pOut)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			sv := s.Get(n)
			k, err := sv.ToLong()
			if err != nil {
				s.Set(n+1, undefined(sv, width))
				return
			}
			s.Set(n+1, s.Get(int(k)))
		},
	}).newPart(name, conns)
}

// Demux returns a demultiplexer with 2^Select outputs.
//
//	Inputs: in, sel
//	Outputs: out0..outN-1
//	Function: out[sel] = in, other outputs are 0
//
func Demux(name string, cfg MuxConfig, conns string) (*Part, error) {
	width, sel, err := cfg.check("DEMUX", name)
	if err != nil {
		return nil, err
	}
	n := 1 << uint(sel)
	zero := evsim.CreateKnown(width, 0)
	return (&partSpec{
		Kind:  "DEMUX",
		Pins:  append(append(inputs(width, pIn), inputs(sel, pSel)...), outputs(width, bus(n, pOut)...)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			in, sv := s.Get(0), s.Get(1)
			k, err := sv.ToLong()
			for i := 0; i < n; i++ {
				switch {
				case err != nil:
					s.Set(2+i, undefined(sv, width))
				case uint64(i) == k:
					s.Set(2+i, in)
				default:
					s.Set(2+i, zero)
				}
			}
		},
	}).newPart(name, conns)
}
