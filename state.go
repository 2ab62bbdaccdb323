// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"sort"

	"github.com/pkg/errors"
)

// StateID is the handle of a CircuitState in its Propagator's arena.
//
type StateID int32

// NoState is the parent of the root state.
//
const NoState StateID = -1

// A Point is a location in a given circuit state.
//
type Point struct {
	State StateID
	Loc   Location
}

// A CircuitState holds the live simulation state of one instantiation of a
// circuit: net values, per component data, child states for subcircuit
// instances and the set of oscillating points.
//
// States live in an arena owned by the Propagator; the parent link is a
// StateID. A Reset of the Propagator invalidates every state it created: an
// invalid state reads Nil everywhere.
//
// CircuitState is not safe for concurrent use. Readers on other goroutines
// should use Simulator.Snapshot.
//
type CircuitState struct {
	p          *Propagator
	id         StateID
	gen        uint64
	parent     StateID
	parentComp int // index of the Subcircuit component in the parent circuit

	circuit  *Circuit
	nl       *netlist
	values   []Value               // per net
	drivers  []map[driverKey]Value // per net
	compData []interface{}         // per component
	children map[int]StateID       // by Subcircuit component index

	oscillating map[Location]struct{}
	reentries   []int // per net, reset at each burst
}

func (p *Propagator) newState(c *Circuit, parent StateID, parentComp int) *CircuitState {
	nl := c.netlist()
	st := &CircuitState{
		p:           p,
		id:          StateID(len(p.states)),
		gen:         p.gen,
		parent:      parent,
		parentComp:  parentComp,
		circuit:     c,
		nl:          nl,
		values:      make([]Value, len(nl.nets)),
		drivers:     make([]map[driverKey]Value, len(nl.nets)),
		compData:    make([]interface{}, len(c.comps)),
		children:    make(map[int]StateID),
		oscillating: make(map[Location]struct{}),
		reentries:   make([]int, len(nl.nets)),
	}
	for i, n := range nl.nets {
		st.values[i] = st.netValue(n)
	}
	p.states = append(p.states, st)
	for i := range c.comps {
		p.markDirty(st, i)
	}
	return st
}

// ID returns the state handle.
//
func (st *CircuitState) ID() StateID { return st.id }

// Circuit returns the circuit this state is an instance of.
//
func (st *CircuitState) Circuit() *Circuit { return st.circuit }

// Valid returns false once the state has been discarded by a reset or a
// structural edit.
//
func (st *CircuitState) Valid() bool {
	return st != nil && st.p != nil && st.gen == st.p.gen
}

// GetValue returns the value of the net at loc, or Nil if loc is not part of
// the circuit.
//
func (st *CircuitState) GetValue(loc Location) Value {
	if !st.Valid() {
		return Nil
	}
	n, ok := st.nl.netOf(loc)
	if !ok {
		return Nil
	}
	return st.values[n.id]
}

// setValue schedules value on loc on behalf of component cause after delay.
// Reserved to the engine.
func (st *CircuitState) setValue(loc Location, v Value, cause int, delay Time) {
	st.p.schedule(st, loc, cause, v, delay)
}

// ParentState returns the state of the enclosing circuit instance, or nil for
// the root state.
//
func (st *CircuitState) ParentState() *CircuitState {
	if st.parent == NoState || !st.Valid() {
		return nil
	}
	return st.p.states[st.parent]
}

// IsRoot returns true for the root state.
//
func (st *CircuitState) IsRoot() bool { return st.parent == NoState }

// GetOrCreateChildState returns the state of the subcircuit instance at
// component index key, creating it on first use. It returns nil if key is not
// a Subcircuit or if instantiating it would recurse.
//
func (st *CircuitState) GetOrCreateChildState(key int) *CircuitState {
	if !st.Valid() {
		return nil
	}
	if id, ok := st.children[key]; ok {
		return st.p.states[id]
	}
	if key < 0 || key >= len(st.circuit.comps) {
		return nil
	}
	sub, ok := st.circuit.comps[key].(*Subcircuit)
	if !ok {
		return nil
	}
	for a := st; a != nil; a = a.ParentState() {
		if a.circuit == sub.Circuit {
			st.p.log.Error("recursive subcircuit", "circuit", st.circuit.name, "subcircuit", sub.Name())
			return nil
		}
	}
	child := st.p.newState(sub.Circuit, st.id, key)
	st.children[key] = child.id
	return child
}

// ChildState returns the existing state of the subcircuit instance at
// component index key.
//
func (st *CircuitState) ChildState(key int) (*CircuitState, bool) {
	if !st.Valid() {
		return nil, false
	}
	id, ok := st.children[key]
	if !ok {
		return nil, false
	}
	return st.p.states[id], true
}

// Children returns the child states ordered by component index.
//
func (st *CircuitState) Children() []*CircuitState {
	if !st.Valid() {
		return nil
	}
	keys := make([]int, 0, len(st.children))
	for k := range st.children {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	r := make([]*CircuitState, len(keys))
	for i, k := range keys {
		r[i] = st.p.states[st.children[k]]
	}
	return r
}

// Path returns the component indices of the subcircuit instances leading from
// the root state to st.
//
func (st *CircuitState) Path() []int {
	var path []int
	for s := st; s != nil && !s.IsRoot(); s = s.ParentState() {
		path = append([]int{s.parentComp}, path...)
	}
	return path
}

// SetPin sets the value of the input Pin labelled label. Only root level pins
// can be set: pins of subcircuit instances are driven by the parent circuit.
// The new value is seen by the next step.
//
func (st *CircuitState) SetPin(label string, v Value) error {
	if !st.Valid() {
		return errors.New("invalid circuit state")
	}
	if !st.IsRoot() {
		return errors.New("cannot set pin " + label + " of a subcircuit instance")
	}
	i, pin, err := st.circuit.pinIndex(label)
	if err != nil {
		return err
	}
	if pin.Dir != Input {
		return errors.New("pin " + label + " is not an input")
	}
	if v.Width() != pin.Width {
		return errors.Errorf("pin %s: expected a %d bits value, got %d", label, pin.Width, v.Width())
	}
	st.compData[i] = v
	st.p.markDirty(st, i)
	return nil
}

// Drive sets a persistent external driver on loc, effective at the next step.
// See Propagator.Drive.
//
func (st *CircuitState) Drive(loc Location, v Value) error {
	if !st.Valid() {
		return errors.New("invalid circuit state")
	}
	return st.p.Drive(st, loc, v, 0)
}

// PinValue returns the value seen by the Pin labelled label.
//
func (st *CircuitState) PinValue(label string) (Value, error) {
	if !st.Valid() {
		return Nil, errors.New("invalid circuit state")
	}
	_, pin, err := st.circuit.pinIndex(label)
	if err != nil {
		return Nil, err
	}
	return st.GetValue(pin.Loc), nil
}

func (st *CircuitState) markOscillating(loc Location) {
	st.oscillating[loc] = struct{}{}
}

func (st *CircuitState) clearOscillating() {
	for k := range st.oscillating {
		delete(st.oscillating, k)
	}
}

// OscillatingPoints returns the locations found oscillating by the last
// propagation burst, sorted.
//
func (st *CircuitState) OscillatingPoints() []Location {
	r := make([]Location, 0, len(st.oscillating))
	for l := range st.oscillating {
		r = append(r, l)
	}
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
	return r
}

// Snapshot returns a copy of the values of all locations of the circuit.
//
func (st *CircuitState) Snapshot() map[Location]Value {
	m := make(map[Location]Value, len(st.nl.byLoc))
	if !st.Valid() {
		return m
	}
	for l, id := range st.nl.byLoc {
		m[l] = st.values[id]
	}
	return m
}

// driverValue returns the value currently applied by a driver.
func (st *CircuitState) driverValue(loc Location, cause int) Value {
	n, ok := st.nl.netOf(loc)
	if !ok {
		return Nil
	}
	return st.drivers[n.id][driverKey{st.id, loc, cause}]
}

// applyDriver records a driver value and recomputes the net value, and those
// of the nets joined to it by splitters. It returns the nets whose value
// changed.
func (st *CircuitState) applyDriver(loc Location, cause int, v Value) []*net {
	n, ok := st.nl.netOf(loc)
	if !ok {
		return nil
	}
	m := st.drivers[n.id]
	if m == nil {
		m = make(map[driverKey]Value)
		st.drivers[n.id] = m
	}
	k := driverKey{st.id, loc, cause}
	if v == Nil {
		delete(m, k)
	} else {
		m[k] = v
	}
	if n.group != nil {
		return st.updateGroup(n.group)
	}
	nv := st.netValue(n)
	if nv == st.values[n.id] {
		return nil
	}
	st.values[n.id] = nv
	return []*net{n}
}

// updateGroup recomputes every net of g bit by bit. Each thread merges the
// matching bit of all drivers of its nets.
func (st *CircuitState) updateGroup(g *netGroup) []*net {
	tv := make([]Value, len(g.threads))
	for t, th := range g.threads {
		v := Nil
		for _, nb := range th {
			for _, d := range st.drivers[nb.net] {
				if nb.bit < d.Width() {
					v = v.Combine(d.Get(nb.bit))
				}
			}
		}
		if v == Nil {
			v = Unknown
		}
		tv[t] = v
	}
	var changed []*net
	for _, id := range g.nets {
		n := st.nl.nets[id]
		nv := CreateError(n.width)
		if !n.incompatible() {
			bs := make([]Value, n.width)
			for b, t := range n.bits {
				bs[b] = tv[t]
			}
			nv = FromBits(bs...)
		}
		if nv != st.values[id] {
			st.values[id] = nv
			changed = append(changed, n)
		}
	}
	return changed
}

// netValue merges all drivers of n. Nets with conflicting port widths carry
// Error.
func (st *CircuitState) netValue(n *net) Value {
	if n.incompatible() {
		return CreateError(n.width)
	}
	v := Nil
	for _, d := range st.drivers[n.id] {
		v = v.Combine(d)
	}
	switch {
	case v == Nil:
		return CreateUnknown(n.width)
	case v.Width() != n.width:
		return v.Extend(n.width, Error)
	}
	return v
}
