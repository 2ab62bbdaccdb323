// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by requests made to a closed Simulator.
//
var ErrClosed = errors.New("evsim: simulator closed")

type reqKind int

const (
	reqStep reqKind = iota
	reqPropagate
	reqTick
	reqReset
	reqDo
)

type request struct {
	kind  reqKind
	fn    func(*Propagator) error
	reply chan reply
}

type reply struct {
	res *StepResult
	err error
}

// A Simulator runs a Propagator on its own goroutine. All operations on the
// circuit and its state are funneled through it, so a Simulator is safe for
// concurrent use.
//
// In auto-propagate mode, every request propagates until the circuit settles;
// otherwise each request runs a single step. An optional clock driver ticks
// the circuit in real time at a given frequency. The result of every
// operation is published to subscribers.
//
type Simulator struct {
	opts options
	log  *slog.Logger
	p    *Propagator

	reqs   chan request
	ticks  chan struct{} // coalesced tick requests
	wake   chan struct{} // driver settings changed
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	mu        sync.Mutex
	subs      map[string]*Subscription
	autoProp  bool
	autoTick  bool
	frequency float64
	counter   TickCounter
}

// NewSimulator returns a new simulator for root and starts it. The initial
// state is propagated first in auto-propagate mode.
//
func NewSimulator(root *Circuit, opts ...Option) (*Simulator, error) {
	p, err := NewPropagator(root, opts...)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	s := &Simulator{
		opts:      o,
		log:       o.log.With("circuit", root.Name()),
		p:         p,
		reqs:      make(chan request),
		ticks:     make(chan struct{}, 1),
		wake:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		g:         g,
		subs:      make(map[string]*Subscription),
		autoProp:  o.AutoPropagate,
		autoTick:  o.AutoTick,
		frequency: o.TickFrequency,
	}
	g.Go(func() error { return s.run(ctx) })
	g.Go(func() error { return s.drive(ctx) })
	return s, nil
}

// Close stops the clock driver and the simulation goroutine. A request being
// processed completes first. Subscription channels are closed.
//
func (s *Simulator) Close() error {
	s.cancel()
	err := s.g.Wait()
	s.closeSubscriptions()
	return err
}

func (s *Simulator) run(ctx context.Context) error {
	if s.isAutoPropagate() {
		s.publish(s.p.Propagate())
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-s.reqs:
			res, err := s.handle(r)
			r.reply <- reply{res, err}
		case <-s.ticks:
			s.tick()
		}
	}
}

func (s *Simulator) handle(r request) (*StepResult, error) {
	var res *StepResult
	var err error
	switch r.kind {
	case reqStep:
		res = s.p.Step()
	case reqPropagate:
		res = s.p.Propagate()
	case reqTick:
		res = s.tick()
		return res, nil
	case reqReset:
		s.p.Reset()
		s.counter.Clear()
		res = s.settle()
	case reqDo:
		err = r.fn(s.p)
		res = s.settle()
	}
	s.publish(res)
	return res, err
}

// settle propagates pending changes in auto-propagate mode.
func (s *Simulator) settle() *StepResult {
	if s.isAutoPropagate() && s.p.IsPending() {
		return s.p.Propagate()
	}
	return s.p.result(0)
}

// tick toggles clocks and propagates, or runs a single step if not in
// auto-propagate mode. A tick on a design without clocks stops the clock
// driver.
func (s *Simulator) tick() *StepResult {
	found := s.p.ToggleClocks()
	var res *StepResult
	if s.isAutoPropagate() {
		res = s.p.Propagate()
	} else {
		res = s.p.Step()
	}
	res.Ticked = found
	s.counter.Record(time.Now())
	if !found && s.IsAutoTicking() {
		s.log.Info("no clock in circuit, auto-tick disabled")
		s.SetAutoTick(false)
	}
	s.publish(res)
	return res
}

func (s *Simulator) submit(ctx context.Context, r request) (*StepResult, error) {
	r.reply = make(chan reply, 1)
	select {
	case s.reqs <- r:
	case <-s.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	rep := <-r.reply
	return rep.res, rep.err
}

// Step runs a single propagation step.
//
func (s *Simulator) Step(ctx context.Context) (*StepResult, error) {
	return s.submit(ctx, request{kind: reqStep})
}

// Propagate runs steps until the circuit settles.
//
func (s *Simulator) Propagate(ctx context.Context) (*StepResult, error) {
	return s.submit(ctx, request{kind: reqPropagate})
}

// Tick toggles the clocks and propagates, or steps once when auto-propagate
// is off.
//
func (s *Simulator) Tick(ctx context.Context) (*StepResult, error) {
	return s.submit(ctx, request{kind: reqTick})
}

// RequestTick asks for a tick without waiting for it. It returns false if a
// tick request is already pending, in which case both are coalesced.
//
func (s *Simulator) RequestTick() bool {
	select {
	case s.ticks <- struct{}{}:
		return true
	default:
		return false
	}
}

// Reset discards all simulation state and starts over.
//
func (s *Simulator) Reset(ctx context.Context) (*StepResult, error) {
	return s.submit(ctx, request{kind: reqReset})
}

// Do runs fn on the simulation goroutine. fn may edit the circuit, set pins or
// read values. Pending changes are then propagated in auto-propagate mode.
//
func (s *Simulator) Do(ctx context.Context, fn func(p *Propagator) error) (*StepResult, error) {
	return s.submit(ctx, request{kind: reqDo, fn: fn})
}

// SetPin sets a root level input pin.
//
func (s *Simulator) SetPin(ctx context.Context, label string, v Value) (*StepResult, error) {
	return s.Do(ctx, func(p *Propagator) error { return p.Root().SetPin(label, v) })
}

// Snapshot returns a copy of the values of the root circuit.
//
func (s *Simulator) Snapshot(ctx context.Context) (map[Location]Value, error) {
	var m map[Location]Value
	_, err := s.Do(ctx, func(p *Propagator) error {
		m = p.Root().Snapshot()
		return nil
	})
	return m, err
}

// SetAutoPropagate switches between auto-propagate and single step modes.
//
func (s *Simulator) SetAutoPropagate(on bool) {
	s.mu.Lock()
	s.autoProp = on
	s.mu.Unlock()
}

func (s *Simulator) isAutoPropagate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoProp
}

// SetAutoTick starts or stops the clock driver.
//
func (s *Simulator) SetAutoTick(on bool) {
	s.mu.Lock()
	changed := s.autoTick != on
	s.autoTick = on
	s.mu.Unlock()
	if changed {
		if !on {
			s.counter.Clear()
		}
		s.notifyDriver()
	}
}

// IsAutoTicking returns true if the clock driver is running.
//
func (s *Simulator) IsAutoTicking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoTick
}

// SetTickFrequency sets the clock driver frequency in Hz.
//
func (s *Simulator) SetTickFrequency(hz float64) error {
	if hz <= 0 {
		return errors.Errorf("invalid tick frequency %g", hz)
	}
	s.mu.Lock()
	changed := s.frequency != hz
	s.frequency = hz
	s.mu.Unlock()
	if changed {
		s.counter.Clear()
		s.notifyDriver()
	}
	return nil
}

// TickFrequency returns the clock driver frequency in Hz.
//
func (s *Simulator) TickFrequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

// TickRate returns the measured tick rate, like "1 kHz".
//
func (s *Simulator) TickRate() string { return s.counter.String() }
