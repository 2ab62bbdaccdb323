// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/pkg/errors"
)

// A Wire joins two locations into the same net.
//
type Wire struct {
	A, B Location
}

// A Circuit is the static description of a circuit: its components and the
// wires between their ports.
//
// A Circuit is not safe for concurrent use. Once handed to a Simulator, edits
// must go through Simulator.Do. Every edit bumps the structural version which
// invalidates cached nets and width diagnostics, and resets simulation state
// built on the circuit.
//
type Circuit struct {
	name    string
	comps   []Component
	wires   []Wire
	version uint64

	nl *netlist // cached nets for version
}

// NewCircuit returns a new circuit with the given components.
//
func NewCircuit(name string, parts ...Component) *Circuit {
	c := &Circuit{name: name}
	c.Add(parts...)
	return c
}

// Name returns the circuit name.
//
func (c *Circuit) Name() string { return c.name }

// Version returns the structural version of the circuit.
//
func (c *Circuit) Version() uint64 { return c.version }

// Add adds components to the circuit.
//
func (c *Circuit) Add(parts ...Component) {
	if len(parts) == 0 {
		return
	}
	c.comps = append(c.comps, parts...)
	c.version++
}

// Remove removes component p from the circuit. It returns false if p is not
// part of the circuit.
//
func (c *Circuit) Remove(p Component) bool {
	for i, x := range c.comps {
		if x == p {
			c.comps = append(c.comps[:i], c.comps[i+1:]...)
			c.version++
			return true
		}
	}
	return false
}

// Connect joins locations a and b with a wire.
//
func (c *Circuit) Connect(a, b Location) {
	c.wires = append(c.wires, Wire{a, b})
	c.version++
}

// Disconnect removes a wire between a and b. It returns false if there is no
// such wire.
//
func (c *Circuit) Disconnect(a, b Location) bool {
	for i, w := range c.wires {
		if w.A == a && w.B == b || w.A == b && w.B == a {
			c.wires = append(c.wires[:i], c.wires[i+1:]...)
			c.version++
			return true
		}
	}
	return false
}

// Components returns the circuit components. The returned slice must not be
// modified.
//
func (c *Circuit) Components() []Component { return c.comps }

// Wires returns the circuit wires. The returned slice must not be modified.
//
func (c *Circuit) Wires() []Wire { return c.wires }

// Pins returns the Pin components of the circuit in the order they were added.
//
func (c *Circuit) Pins() []*Pin {
	var pins []*Pin
	for _, x := range c.comps {
		if p, ok := x.(*Pin); ok {
			pins = append(pins, p)
		}
	}
	return pins
}

// pinIndex returns the index of the Pin component with the given label.
//
func (c *Circuit) pinIndex(label string) (int, *Pin, error) {
	for i, x := range c.comps {
		if p, ok := x.(*Pin); ok && p.Label == label {
			return i, p, nil
		}
	}
	return -1, nil, errors.New("no pin " + label + " in circuit " + c.name)
}

// Check performs structural sanity checks: ports must have a width between 1
// and MaxWidth, pin labels must be unique and subcircuits must not
// instantiate themselves, directly or not.
//
func (c *Circuit) Check() error {
	return c.check(nil)
}

func (c *Circuit) check(stack []*Circuit) error {
	for _, s := range stack {
		if s == c {
			return errors.New("circuit " + c.name + " instantiates itself")
		}
	}
	stack = append(stack, c)
	labels := make(map[string]struct{})
	for _, x := range c.comps {
		for _, pt := range x.Ports() {
			if pt.Width <= 0 || pt.Width > MaxWidth {
				return errors.Errorf("%s: %s.%s: invalid width %d", c.name, x.Name(), pt.Name, pt.Width)
			}
		}
		switch p := x.(type) {
		case *Pin:
			if _, ok := labels[p.Label]; ok {
				return errors.New(c.name + ": duplicate pin label " + p.Label)
			}
			labels[p.Label] = struct{}{}
		case *Subcircuit:
			if err := p.Circuit.check(stack); err != nil {
				return errors.Wrap(err, c.name+": "+p.Name())
			}
		}
	}
	return nil
}

func (c *Circuit) netlist() *netlist {
	if c.nl == nil || c.nl.version != c.version {
		c.nl = buildNetlist(c)
	}
	return c.nl
}
