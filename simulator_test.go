// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/db47h/evsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimulator(t *testing.T, c *evsim.Circuit, opts ...evsim.Option) *evsim.Simulator {
	t.Helper()
	s, err := evsim.NewSimulator(c, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func wire() *evsim.Circuit {
	return evsim.NewCircuit("wire",
		evsim.NewInputPin("a", 1, "x"),
		evsim.NewOutputPin("y", 1, "x"),
	)
}

func TestSimulatorPublish(t *testing.T) {
	ctx := context.Background()
	s := newSimulator(t, wire())
	sub := s.Subscribe(-1)

	res, err := s.SetPin(ctx, "a", evsim.True)
	require.NoError(t, err)
	assert.Contains(t, res.Changes, evsim.Change{Point: evsim.Point{State: 0, Loc: "x"}, Value: evsim.True})

	timeout := time.After(time.Second)
	for found := false; !found; {
		select {
		case r := <-sub.C():
			found = r == res
		case <-timeout:
			t.Fatal("result not published")
		}
	}

	m, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, evsim.True, m["x"])
	assert.Zero(t, sub.Dropped())

	assert.True(t, s.Unsubscribe(sub))
	assert.False(t, s.Unsubscribe(sub))
	// the snapshot result may still be buffered
	for range sub.C() {
	}
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestSimulatorDrops(t *testing.T) {
	ctx := context.Background()
	s := newSimulator(t, wire())
	sub := s.Subscribe(0)
	_, err := s.Step(ctx)
	require.NoError(t, err)
	d := sub.Dropped()
	assert.NotZero(t, d)
	_, err = s.Propagate(ctx)
	require.NoError(t, err)
	assert.Equal(t, d+1, sub.Dropped())
}

func TestSimulatorSingleStep(t *testing.T) {
	ctx := context.Background()
	s := newSimulator(t, wire(), evsim.WithAutoPropagate(false))

	_, err := s.SetPin(ctx, "a", evsim.True)
	require.NoError(t, err)
	m, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, evsim.Unknown, m["x"], "nothing propagated yet")

	for i := 0; i < 2; i++ {
		_, err = s.Step(ctx)
		require.NoError(t, err)
	}
	m, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, evsim.True, m["x"])

	s.SetAutoPropagate(true)
	res, err := s.SetPin(ctx, "a", evsim.False)
	require.NoError(t, err)
	assert.False(t, res.Unstable)
	m, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, evsim.False, m["x"])
}

func TestSimulatorDoError(t *testing.T) {
	s := newSimulator(t, wire())
	boom := errors.New("boom")
	_, err := s.Do(context.Background(), func(p *evsim.Propagator) error { return boom })
	assert.Equal(t, boom, err)
	_, err = s.SetPin(context.Background(), "nope", evsim.True)
	assert.Error(t, err)
}

func TestSimulatorAutoTick(t *testing.T) {
	ctx := context.Background()
	c := evsim.NewCircuit("clocked",
		evsim.NewClock("clk", "clk", 1, 1),
		evsim.NewOutputPin("q", 1, "clk"),
	)
	s := newSimulator(t, c, evsim.WithAutoTick(true), evsim.WithTickFrequency(1000))
	assert.True(t, s.IsAutoTicking())
	assert.Equal(t, 1000.0, s.TickFrequency())

	ticks := func() uint64 {
		var n uint64
		_, err := s.Do(ctx, func(p *evsim.Propagator) error {
			n = p.Ticks()
			return nil
		})
		require.NoError(t, err)
		return n
	}
	assert.Eventually(t, func() bool { return ticks() >= 10 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.TickRate() != "" }, 5*time.Second, 10*time.Millisecond)

	s.SetAutoTick(false)
	assert.False(t, s.IsAutoTicking())
	assert.Error(t, s.SetTickFrequency(0))
	require.NoError(t, s.SetTickFrequency(10))
	assert.Equal(t, 10.0, s.TickFrequency())

	res, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, res.Ticked)
}

func TestSimulatorNoClockStopsTicking(t *testing.T) {
	s := newSimulator(t, wire(), evsim.WithAutoTick(true), evsim.WithTickFrequency(100))
	assert.Eventually(t, func() bool { return !s.IsAutoTicking() }, 5*time.Second, 10*time.Millisecond)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Ticked)
}

func TestSimulatorReset(t *testing.T) {
	ctx := context.Background()
	s := newSimulator(t, wire())
	_, err := s.SetPin(ctx, "a", evsim.True)
	require.NoError(t, err)
	res, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, evsim.Time(0), res.Time)
	m, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, evsim.False, m["x"], "pin back to its default")
}

func TestSimulatorClose(t *testing.T) {
	s, err := evsim.NewSimulator(wire())
	require.NoError(t, err)
	sub := s.Subscribe(-1)
	require.NoError(t, s.Close())

	_, err = s.Step(context.Background())
	assert.Equal(t, evsim.ErrClosed, err)
	for range sub.C() {
	}
	_, ok := <-s.Subscribe(1).C()
	assert.False(t, ok)
	assert.NoError(t, s.Close())
}

func TestNewSimulatorError(t *testing.T) {
	c := evsim.NewCircuit("dup", evsim.NewInputPin("a", 1, "a"), evsim.NewInputPin("a", 1, "b"))
	_, err := evsim.NewSimulator(c)
	assert.Error(t, err)
}
