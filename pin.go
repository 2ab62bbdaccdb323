// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// A Pin is an input or output of a circuit. When the circuit is instantiated
// as a Subcircuit, its pins become the ports of the instance.
//
// Root level input pins drive the value set with CircuitState.SetPin, 0 by
// default. Input pins of a subcircuit instance are driven by the parent
// circuit. A change on an output pin of a subcircuit instance schedules the
// evaluation of the Subcircuit component in the parent state.
//
type Pin struct {
	Label string
	Loc   Location
	Width int
	Dir   Direction // Input or Output

	ports []Port
}

// NewInputPin returns a new input pin.
//
func NewInputPin(label string, width int, loc Location) *Pin {
	return newPin(label, width, loc, Input)
}

// NewOutputPin returns a new output pin.
//
func NewOutputPin(label string, width int, loc Location) *Pin {
	return newPin(label, width, loc, Output)
}

func newPin(label string, width int, loc Location, dir Direction) *Pin {
	p := &Pin{Label: label, Loc: loc, Width: width, Dir: dir}
	// an input pin drives its net, an output pin reads it
	pd := Output
	if dir == Output {
		pd = Input
	}
	p.ports = []Port{{Name: label, Loc: loc, Width: width, Dir: pd}}
	return p
}

// Name implements Component.
//
func (p *Pin) Name() string { return p.Label }

// Ports implements Component.
//
func (p *Pin) Ports() []Port { return p.ports }

// Delay implements Component.
//
func (p *Pin) Delay() Time { return 0 }

// Propagate implements Component.
//
func (p *Pin) Propagate(s *InstanceState) {
	st := s.State()
	if p.Dir == Input {
		if !st.IsRoot() {
			return
		}
		v, ok := s.Data().(Value)
		if !ok {
			v = CreateKnown(p.Width, 0)
		}
		s.Set(0, v)
		return
	}
	if parent := st.ParentState(); parent != nil {
		s.p.markDirty(parent, st.parentComp)
	}
}
