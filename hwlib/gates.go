// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// GateConfig configures the logic gates.
//
type GateConfig struct {
	Inputs int        // number of inputs, 2 if 0
	Width  int        // bit width of all pins, 1 if 0
	Delay  evsim.Time // propagation delay
}

// UnaryConfig configures NOT gates and buffers.
//
type UnaryConfig struct {
	Width int // 1 if 0
	Delay evsim.Time
}

type binop func(a, b evsim.Value) evsim.Value

func newGate(kind string, op binop, negate bool, name string, cfg GateConfig, conns string) (*Part, error) {
	n, width := orDefault(cfg.Inputs, 2), orDefault(cfg.Width, 1)
	if n < 2 {
		return nil, errors.Errorf("%s %s: need at least 2 inputs, got %d", kind, name, n)
	}
	spec := &partSpec{
		Kind:  kind,
		Pins:  append(inputs(width, bus(n, pIn)...), outputs(width, pOut)...),
		Delay: cfg.Delay,
		Eval: func(s *evsim.InstanceState) {
			v := s.Get(0)
			for i := 1; i < n; i++ {
				v = op(v, s.Get(i))
			}
			if negate {
				v = v.Not()
			}
			s.Set(n, v)
		},
	}
	return spec.newPart(name, conns)
}

var (
	and = func(a, b evsim.Value) evsim.Value { return a.And(b) }
	or  = func(a, b evsim.Value) evsim.Value { return a.Or(b) }
	xor = func(a, b evsim.Value) evsim.Value { return a.Xor(b) }
)

// And returns a AND gate.
//
//	Inputs: in0..inN-1
//	Outputs: out
//	Function: out = in0 & in1 & ...
//
// A 0 on any input forces a 0 output even if other inputs are X or E.
//
func And(name string, cfg GateConfig, conns string) (*Part, error) {
	return newGate("AND", and, false, name, cfg, conns)
}

// Nand returns a NAND gate.
//
//	Inputs: in0..inN-1
//	Outputs: out
//	Function: out = !(in0 & in1 & ...)
//
func Nand(name string, cfg GateConfig, conns string) (*Part, error) {
	return newGate("NAND", and, true, name, cfg, conns)
}

// Or returns a OR gate.
//
//	Inputs: in0..inN-1
//	Outputs: out
//	Function: out = in0 | in1 | ...
//
// A 1 on any input forces a 1 output even if other inputs are X or E.
//
func Or(name string, cfg GateConfig, conns string) (*Part, error) {
	return newGate("OR", or, false, name, cfg, conns)
}

// Nor returns a NOR gate.
//
//	Inputs: in0..inN-1
//	Outputs: out
//	Function: out = !(in0 | in1 | ...)
//
func Nor(name string, cfg GateConfig, conns string) (*Part, error) {
	return newGate("NOR", or, true, name, cfg, conns)
}

// Xor returns a XOR gate. With more than two inputs, it computes the odd
// parity of its inputs.
//
//	Inputs: in0..inN-1
//	Outputs: out
//	Function: out = in0 ^ in1 ^ ...
//
func Xor(name string, cfg GateConfig, conns string) (*Part, error) {
	return newGate("XOR", xor, false, name, cfg, conns)
}

// Xnor returns a XNOR gate.
//
//	Inputs: in0..inN-1
//	Outputs: out
//	Function: out = !(in0 ^ in1 ^ ...)
//
func Xnor(name string, cfg GateConfig, conns string) (*Part, error) {
	return newGate("XNOR", xor, true, name, cfg, conns)
}

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(name string, cfg UnaryConfig, conns string) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	return (&partSpec{
		Kind:  "NOT",
		Pins:  append(inputs(width, pIn), outputs(width, pOut)...),
		Delay: cfg.Delay,
		Eval:  func(s *evsim.InstanceState) { s.Set(1, s.Get(0).Not()) },
	}).newPart(name, conns)
}

// Buffer returns a buffer.
//
//	Inputs: in
//	Outputs: out
//	Function: out = in
//
func Buffer(name string, cfg UnaryConfig, conns string) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	return (&partSpec{
		Kind:  "BUFFER",
		Pins:  append(inputs(width, pIn), outputs(width, pOut)...),
		Delay: cfg.Delay,
		Eval:  func(s *evsim.InstanceState) { s.Set(1, s.Get(0)) },
	}).newPart(name, conns)
}

// ControlledBuffer returns a tri-state buffer.
//
//	Inputs: in, en
//	Outputs: out
//	Function: if en == 1 { out = in } else { out floats }
//
// A floating output does not drive its net: other drivers on the same net
// win. An unconnected enable lets the input through.
//
func ControlledBuffer(name string, cfg UnaryConfig, conns string) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	return (&partSpec{
		Kind:  "TRISTATE",
		Pins:  append(append(inputs(width, pIn), inputs(1, pEn)...), outputs(width, pOut)...),
		Delay: cfg.Delay,
		Eval:  func(s *evsim.InstanceState) { s.Set(2, s.Get(1).Controls(s.Get(0))) },
	}).newPart(name, conns)
}
