// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// Time is a point or an interval in simulated time. Units are symbolic.
//
type Time int64

// A Location is an opaque connection point identity. Locations joined by wires
// form a net.
//
type Location string

// Direction of a port, seen from its component.
//
type Direction uint8

// Port directions.
//
const (
	Input Direction = 1 << iota
	Output
	InOut = Input | Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	case InOut:
		return "inout"
	}
	return "?"
}

// A Port is a connection of a component to a location.
//
type Port struct {
	Name  string
	Loc   Location
	Width int
	Dir   Direction
}

// A Component is a unit of a circuit with a fixed propagation delay.
//
// Propagate is called whenever a net attached to one of its input ports
// changes. It reads its inputs and schedules its outputs through the
// InstanceState. Sequential components keep their private state in the
// InstanceState's data so that each instance of a subcircuit gets its own.
//
// Ports must return the same ports for the life of the component.
//
type Component interface {
	Name() string
	Ports() []Port
	Delay() Time
	Propagate(s *InstanceState)
}

// InstanceState is the view of one component instance in one CircuitState
// handed to Component.Propagate. It must not be retained after Propagate
// returns.
//
type InstanceState struct {
	p     *Propagator
	st    *CircuitState
	comp  int
	c     Component
	ports []Port
}

// Get returns the value of the net attached to port i. A value whose width
// does not match the port's is returned as Error, an undriven net as Unknown.
//
func (s *InstanceState) Get(i int) Value {
	pt := s.ports[i]
	v := s.st.GetValue(pt.Loc)
	switch {
	case v.Width() == pt.Width:
		return v
	case v == Nil:
		return CreateUnknown(pt.Width)
	}
	return CreateError(pt.Width)
}

// Set schedules v on port i after the component's delay.
//
func (s *InstanceState) Set(i int, v Value) {
	s.SetDelayed(i, v, s.c.Delay())
}

// SetDelayed schedules v on port i after delay. A negative delay is a
// programming error.
//
func (s *InstanceState) SetDelayed(i int, v Value, delay Time) {
	pt := s.ports[i]
	if v.Width() != pt.Width && v != Nil {
		v = v.Extend(pt.Width, Error)
	}
	s.p.schedule(s.st, pt.Loc, s.comp, v, delay)
}

// Data returns the private data of this instance.
//
func (s *InstanceState) Data() interface{} { return s.st.compData[s.comp] }

// SetData sets the private data of this instance.
//
func (s *InstanceState) SetData(d interface{}) { s.st.compData[s.comp] = d }

// Now returns the current simulated time.
//
func (s *InstanceState) Now() Time { return s.p.now }

// Ticks returns the number of clock ticks since the last reset.
//
func (s *InstanceState) Ticks() uint64 { return s.p.ticks }

// State returns the CircuitState the instance lives in.
//
func (s *InstanceState) State() *CircuitState { return s.st }

// Parent returns the state of the circuit instance enclosing the one this
// component lives in, or nil at the root.
//
func (s *InstanceState) Parent() *CircuitState { return s.st.ParentState() }

// Child returns the child state of a Subcircuit instance, creating it on first
// use. It returns nil for other components.
//
func (s *InstanceState) Child() *CircuitState { return s.st.GetOrCreateChildState(s.comp) }

// Port returns port i.
//
func (s *InstanceState) Port(i int) Port { return s.ports[i] }
