// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"math/bits"

	"github.com/db47h/evsim"
)

// AdderConfig configures an adder.
//
type AdderConfig struct {
	Width int // 1 if 0
	Delay evsim.Time
}

// Adder returns a N-bits adder.
//
//	Inputs: a, b, cin
//	Outputs: out, cout
//	Function: out = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
// An unknown carry in counts as 0. If a or b is not fully defined, the
// outputs are Unknown, or Error if an input holds an E bit.
//
func Adder(name string, cfg AdderConfig, conns string) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	return (&partSpec{
		Kind:  "ADDER",
		Pins:  append(append(inputs(width, pA, pB), inputs(1, pCin)...), append(outputs(width, pOut), outputs(1, pCout)...)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			a, b, cin := s.Get(0), s.Get(1), s.Get(2)
			if cin.IsUnknown() {
				cin = evsim.False
			}
			va, errA := a.ToLong()
			vb, errB := b.ToLong()
			vc, errC := cin.ToLong()
			if errA != nil || errB != nil || errC != nil {
				bad := evsim.Unknown
				if a.IsErrorValue() || b.IsErrorValue() || cin.IsErrorValue() {
					bad = evsim.Error
				}
				s.Set(3, undefined(bad, width))
				s.Set(4, undefined(bad, 1))
				return
			}
			sum, c := bits.Add64(va, vb, vc)
			if width < evsim.MaxWidth {
				c = sum >> uint(width)
			}
			s.Set(3, evsim.CreateKnown(width, sum))
			s.Set(4, boolValue(c != 0))
		},
	}).newPart(name, conns)
}
