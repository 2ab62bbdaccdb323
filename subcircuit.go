// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// A Subcircuit is an instance of a circuit inside another one. Its ports are
// the Pins of the instantiated circuit, connected to locations of the host
// circuit. Each Subcircuit component gets its own child CircuitState, created
// on first evaluation.
//
type Subcircuit struct {
	Label   string
	Circuit *Circuit
	Conns   W // pin label to host location

	version uint64
	binds   []binding
	ports   []Port
}

// a binding ties a port of the instance to a Pin of the child circuit.
type binding struct {
	comp int // Pin component index in the child circuit
	pin  *Pin
}

// NewSubcircuit returns a new instance of circuit c. Keys of conns must be pin
// labels of c; pins left out are not connected.
//
func NewSubcircuit(label string, c *Circuit, conns W) (*Subcircuit, error) {
	pins := c.Pins()
	names := make([]string, len(pins))
	for i, p := range pins {
		names[i] = p.Label
	}
	w, err := conns.Check(label, names...)
	if err != nil {
		return nil, err
	}
	return &Subcircuit{Label: label, Circuit: c, Conns: w}, nil
}

func (x *Subcircuit) bindings() []binding {
	if x.binds != nil && x.version == x.Circuit.version {
		return x.binds
	}
	x.binds = x.binds[:0]
	x.ports = x.ports[:0]
	for i, c := range x.Circuit.comps {
		p, ok := c.(*Pin)
		if !ok {
			continue
		}
		loc, ok := x.Conns[p.Label]
		if !ok {
			loc = Location(x.Label + "#" + p.Label)
		}
		x.binds = append(x.binds, binding{comp: i, pin: p})
		x.ports = append(x.ports, Port{Name: p.Label, Loc: loc, Width: p.Width, Dir: p.Dir})
	}
	if x.binds == nil {
		x.binds = []binding{}
	}
	x.version = x.Circuit.version
	return x.binds
}

// Name implements Component.
//
func (x *Subcircuit) Name() string { return x.Label }

// Ports implements Component. Input pins of the circuit are input ports of
// the instance, output pins are output ports.
//
func (x *Subcircuit) Ports() []Port {
	x.bindings()
	return x.ports
}

// Delay implements Component.
//
func (x *Subcircuit) Delay() Time { return 0 }

// Propagate implements Component. It copies the host values of the input
// ports into the child state and the child values of output pins to the host.
//
func (x *Subcircuit) Propagate(s *InstanceState) {
	binds := x.bindings()
	child := s.Child()
	if child == nil {
		for i, b := range binds {
			if b.pin.Dir == Output {
				s.Set(i, CreateError(b.pin.Width))
			}
		}
		return
	}
	for i, b := range binds {
		if b.pin.Dir == Input {
			child.setValue(b.pin.Loc, s.Get(i), b.comp, 0)
		} else {
			s.Set(i, child.GetValue(b.pin.Loc))
		}
	}
}
