// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// A Clock outputs a 1 bit square wave driven by clock ticks: it stays Low
// ticks at 0, then High ticks at 1. Phase shifts the wave by that many ticks.
// A clock starts low, so that the first tick produces a rising edge with the
// default 1/1 duty cycle.
//
type Clock struct {
	Label     string
	Loc       Location
	High, Low int
	Phase     int

	ports []Port
}

// NewClock returns a new clock with the given high and low durations in
// ticks. Durations less than 1 are set to 1.
//
func NewClock(label string, loc Location, high, low int) *Clock {
	if high < 1 {
		high = 1
	}
	if low < 1 {
		low = 1
	}
	return &Clock{
		Label: label,
		Loc:   loc,
		High:  high,
		Low:   low,
		ports: []Port{{Name: label, Loc: loc, Width: 1, Dir: Output}},
	}
}

// Level returns the clock output after the given number of ticks.
//
func (c *Clock) Level(ticks uint64) Value {
	period := uint64(c.High + c.Low)
	if (ticks+uint64(c.Phase))%period >= uint64(c.Low) {
		return True
	}
	return False
}

// Name implements Component.
//
func (c *Clock) Name() string { return c.Label }

// Ports implements Component.
//
func (c *Clock) Ports() []Port { return c.ports }

// Delay implements Component.
//
func (c *Clock) Delay() Time { return 0 }

// Propagate implements Component.
//
func (c *Clock) Propagate(s *InstanceState) {
	s.Set(0, c.Level(s.Ticks()))
}
