// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"container/heap"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// A Change is the new value of a location after a step.
//
type Change struct {
	Point
	Value Value
}

// StepResult reports the outcome of a Step, Propagate or Tick.
//
type StepResult struct {
	Time   Time   // simulated time after the operation
	Ticks  uint64 // clock ticks since the last reset
	Ticked bool   // clocks were toggled
	Steps  int    // steps run

	// Changes lists the locations whose value changed, ordered by state and
	// location. A location changed several times is reported once with its
	// last value.
	Changes []Change

	Unstable    bool    // the burst was aborted for oscillation
	Oscillating []Point // oscillating points, sorted
	Err         error   // *OscillationError when Unstable

	WidthErrors []*WidthIncompatibility
}

// compRef identifies a component in a circuit state.
type compRef struct {
	state StateID
	comp  int
}

// A Propagator owns the event queue, simulated time and the tree of circuit
// states of a root circuit.
//
// Within one time slot, each step applies all events due at that time, then
// evaluates every component whose inputs changed, ordered by state and
// component index. Outputs are scheduled at now + delay. An output scheduled
// again before its pending event matures supersedes it: only the latest value
// of a driver is ever applied (inertial delay).
//
// A Propagator is not safe for concurrent use. Simulator serializes access
// to one from a dedicated goroutine.
//
type Propagator struct {
	root *Circuit
	opts options
	log  *slog.Logger

	gen    uint64
	states []*CircuitState

	queue  eventQueue
	latest map[driverKey]pending
	seq    uint64
	now    Time
	ticks  uint64
	dirty  map[compRef]struct{}

	changes     map[Point]Value
	inBurst     bool
	burstSteps  int
	hot         bool // a net exceeded the oscillation threshold
	oscillating bool
	lastErr     error
}

// NewPropagator checks root and returns a new propagator for it, with a fresh
// root state. Nothing is evaluated until the first call to Step or Propagate.
//
func NewPropagator(root *Circuit, opts ...Option) (*Propagator, error) {
	if root == nil {
		return nil, errors.New("nil root circuit")
	}
	if err := root.Check(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	p := &Propagator{
		root: root,
		opts: o,
		log:  o.log.With("circuit", root.name),
	}
	p.Reset()
	return p, nil
}

// Circuit returns the root circuit.
//
func (p *Propagator) Circuit() *Circuit { return p.root }

// Root returns the root circuit state.
//
func (p *Propagator) Root() *CircuitState { return p.states[0] }

// State returns the state with the given id, or nil.
//
func (p *Propagator) State(id StateID) *CircuitState {
	if id < 0 || int(id) >= len(p.states) {
		return nil
	}
	return p.states[id]
}

// Now returns the current simulated time.
//
func (p *Propagator) Now() Time { return p.now }

// Ticks returns the number of clock ticks since the last reset.
//
func (p *Propagator) Ticks() uint64 { return p.ticks }

// IsPending returns true if events are queued or components need evaluation.
//
func (p *Propagator) IsPending() bool { return len(p.queue) > 0 || len(p.dirty) > 0 }

// IsOscillating returns true if the last burst was aborted for oscillation.
//
func (p *Propagator) IsOscillating() bool { return p.oscillating }

// Reset discards all circuit states and pending events, and starts over with
// a fresh root state at time 0. States obtained before the reset become
// invalid.
//
func (p *Propagator) Reset() {
	p.gen++
	p.states = nil
	p.queue = nil
	p.latest = make(map[driverKey]pending)
	p.dirty = make(map[compRef]struct{})
	p.changes = make(map[Point]Value)
	p.seq = 0
	p.now = 0
	p.ticks = 0
	p.inBurst = false
	p.burstSteps = 0
	p.hot = false
	p.oscillating = false
	p.lastErr = nil
	p.newState(p.root, NoState, -1)
}

// checkStructure resets the propagator if any live circuit was edited.
func (p *Propagator) checkStructure() {
	for _, st := range p.states {
		if st.nl.version == st.circuit.version {
			continue
		}
		p.log.Info("structure changed, resetting simulation state", "changed", st.circuit.name)
		// ports of subcircuits depend on their child circuit's pins
		seen := make(map[*Circuit]bool)
		var walk func(*Circuit)
		walk = func(c *Circuit) {
			if seen[c] {
				return
			}
			seen[c] = true
			c.nl = nil
			for _, x := range c.comps {
				if s, ok := x.(*Subcircuit); ok {
					walk(s.Circuit)
				}
			}
		}
		walk(p.root)
		p.Reset()
		return
	}
}

// Drive sets a persistent external driver on loc in state st, effective after
// delay. Drive with Nil removes the driver. External drivers combine with the
// circuit's own drivers like any other.
//
func (p *Propagator) Drive(st *CircuitState, loc Location, v Value, delay Time) error {
	if !st.Valid() || st.p != p {
		return errors.New("invalid circuit state")
	}
	if delay < 0 {
		return errors.Errorf("negative delay %d", delay)
	}
	if _, ok := st.nl.netOf(loc); !ok {
		return errors.Errorf("no location %s in circuit %s", loc, st.circuit.name)
	}
	p.schedule(st, loc, externalCause, v, delay)
	return nil
}

func (p *Propagator) markDirty(st *CircuitState, comp int) {
	p.dirty[compRef{st.id, comp}] = struct{}{}
}

// schedule queues v on loc for driver cause at now + delay, superseding any
// pending value for the same driver. Scheduling the value already pending or
// applied is a no-op.
func (p *Propagator) schedule(st *CircuitState, loc Location, cause int, v Value, delay Time) {
	if delay < 0 {
		queuePanic("negative delay %d on %s", delay, loc)
	}
	if !st.Valid() {
		return
	}
	k := driverKey{st.id, loc, cause}
	if pd, ok := p.latest[k]; ok {
		if pd.value == v {
			return
		}
	} else if st.driverValue(loc, cause) == v {
		return
	}
	p.seq++
	p.latest[k] = pending{seq: p.seq, value: v}
	heap.Push(&p.queue, &event{
		time:  p.now + delay,
		seq:   p.seq,
		gen:   p.gen,
		state: st.id,
		loc:   loc,
		cause: cause,
		value: v,
	})
}

// superseded returns true if a newer event was scheduled for the same driver.
func (p *Propagator) superseded(e *event) bool {
	pd, ok := p.latest[driverKey{e.state, e.loc, e.cause}]
	return !ok || pd.seq != e.seq
}

// apply applies a popped event unless superseded.
func (p *Propagator) apply(e *event) {
	if e.gen != p.gen {
		eventsStale.Inc()
		return
	}
	if p.superseded(e) {
		eventsSuperseded.Inc()
		return
	}
	delete(p.latest, driverKey{e.state, e.loc, e.cause})
	eventsApplied.Inc()
	st := p.states[e.state]
	for _, n := range st.applyDriver(e.loc, e.cause, e.value) {
		st.reentries[n.id]++
		if st.reentries[n.id] > p.opts.OscillationThreshold {
			p.hot = true
		}
		v := st.values[n.id]
		for _, l := range n.locs {
			p.changes[Point{st.id, l}] = v
		}
		for _, ci := range n.readers {
			p.markDirty(st, ci)
		}
	}
}

// step runs one step: apply the events of the earliest time slot, then
// evaluate dirty components. Components dirtied during the evaluation are
// left for the next step.
func (p *Propagator) step() {
	p.checkStructure()
	for len(p.queue) > 0 && p.superseded(p.queue[0]) {
		heap.Pop(&p.queue)
		eventsSuperseded.Inc()
	}
	if len(p.queue) > 0 && (len(p.dirty) == 0 || p.queue[0].time == p.now) {
		t := p.queue[0].time
		if t < p.now {
			queuePanic("event at %d is before current time %d", t, p.now)
		}
		p.now = t
		for len(p.queue) > 0 && p.queue[0].time == t {
			p.apply(heap.Pop(&p.queue).(*event))
		}
	}
	p.burstSteps++
	if len(p.dirty) == 0 {
		return
	}
	refs := make([]compRef, 0, len(p.dirty))
	for r := range p.dirty {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].state != refs[j].state {
			return refs[i].state < refs[j].state
		}
		return refs[i].comp < refs[j].comp
	})
	clear(p.dirty)
	for _, r := range refs {
		p.propagateComponent(p.states[r.state], r.comp)
	}
}

func (p *Propagator) propagateComponent(st *CircuitState, ci int) {
	c := st.circuit.comps[ci]
	s := &InstanceState{p: p, st: st, comp: ci, c: c, ports: c.Ports()}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if isQueuePanic(r) {
			panic(r)
		}
		recordComponentPanic()
		p.log.Warn("component failed", "component", c.Name(), "state", st.id, "panic", r)
		d := c.Delay()
		if d < 0 {
			d = 0
		}
		for _, pt := range s.ports {
			if pt.Dir&Output != 0 {
				p.schedule(st, pt.Loc, ci, CreateError(pt.Width), d)
			}
		}
	}()
	c.Propagate(s)
}

func (p *Propagator) beginBurst() {
	p.inBurst = true
	p.burstSteps = 0
	p.hot = false
	p.oscillating = false
	p.lastErr = nil
	for _, st := range p.states {
		st.clearOscillating()
		for i := range st.reentries {
			st.reentries[i] = 0
		}
	}
}

// stepBurst runs one step of the current burst, starting a new one if needed.
// It returns false if the burst was aborted.
func (p *Propagator) stepBurst() bool {
	if !p.inBurst {
		p.beginBurst()
	}
	p.step()
	if p.IsPending() && (p.hot || p.burstSteps >= p.opts.MaxBurstSteps) {
		p.abort()
		return false
	}
	if !p.IsPending() {
		p.inBurst = false
	}
	return true
}

// abort drops all pending work and flags the nets that changed the most
// during the burst as oscillating.
func (p *Propagator) abort() {
	top := 0
	for _, st := range p.states {
		for _, n := range st.reentries {
			if n > top {
				top = n
			}
		}
	}
	cut := top / 2
	if cut < 1 {
		cut = 1
	}
	var pts []Point
	for _, st := range p.states {
		for id, n := range st.reentries {
			if n < cut {
				continue
			}
			for _, l := range st.nl.nets[id].locs {
				st.markOscillating(l)
				pts = append(pts, Point{st.id, l})
			}
		}
	}
	sortPoints(pts)

	p.queue = p.queue[:0]
	clear(p.latest)
	clear(p.dirty)
	p.inBurst = false
	p.oscillating = true
	p.lastErr = &OscillationError{Steps: p.burstSteps, Points: pts}
	recordOscillation()
	p.log.Warn("circuit is oscillating", "steps", p.burstSteps, "points", len(pts), "time", p.now)
}

// Step runs a single step.
//
func (p *Propagator) Step() *StepResult {
	p.checkStructure()
	if !p.IsPending() {
		return p.result(0)
	}
	p.stepBurst()
	return p.result(1)
}

// Propagate runs steps until no event is pending or the burst is aborted for
// oscillation. It always starts a new burst, clearing the oscillation state
// of the previous one.
//
func (p *Propagator) Propagate() *StepResult {
	p.checkStructure()
	start := time.Now()
	p.beginBurst()
	steps := 0
	for p.IsPending() {
		steps++
		if !p.stepBurst() {
			break
		}
	}
	p.inBurst = false
	recordBurst(start, steps)
	return p.result(steps)
}

// ToggleClocks advances the tick count and schedules the evaluation of every
// Clock in every live state. It returns false if the design has no clock.
//
func (p *Propagator) ToggleClocks() bool {
	p.checkStructure()
	p.ticks++
	recordTick()
	found := false
	for _, st := range p.states {
		for ci, c := range st.circuit.comps {
			if _, ok := c.(*Clock); ok {
				p.markDirty(st, ci)
				found = true
			}
		}
	}
	return found
}

// Tick toggles clocks and propagates.
//
func (p *Propagator) Tick() *StepResult {
	found := p.ToggleClocks()
	r := p.Propagate()
	r.Ticked = found
	return r
}

func (p *Propagator) result(steps int) *StepResult {
	r := &StepResult{
		Time:        p.now,
		Ticks:       p.ticks,
		Steps:       steps,
		Unstable:    p.oscillating,
		WidthErrors: WidthErrors(p.root),
	}
	if len(p.changes) > 0 {
		r.Changes = make([]Change, 0, len(p.changes))
		for pt, v := range p.changes {
			r.Changes = append(r.Changes, Change{pt, v})
		}
		sort.Slice(r.Changes, func(i, j int) bool { return pointLess(r.Changes[i].Point, r.Changes[j].Point) })
		clear(p.changes)
	}
	if p.oscillating {
		for _, st := range p.states {
			for _, l := range st.OscillatingPoints() {
				r.Oscillating = append(r.Oscillating, Point{st.id, l})
			}
		}
		r.Err = p.lastErr
	}
	return r
}

func pointLess(a, b Point) bool {
	if a.State != b.State {
		return a.State < b.State
	}
	return a.Loc < b.Loc
}

func sortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool { return pointLess(pts[i], pts[j]) })
}
