// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/evsim"
)

// ProbeConfig configures a probe.
//
type ProbeConfig struct {
	Width int // 1 if 0
}

// Probe creates a probe. The fn function is called with the current time and
// the value of the probed net every time the net changes.
//
//	Inputs: in
//	Function: fn(now, in)
//
func Probe(name string, cfg ProbeConfig, conns string, fn func(t evsim.Time, v evsim.Value)) (*Part, error) {
	width := orDefault(cfg.Width, 1)
	return (&partSpec{
		Kind: "PROBE",
		Pins: inputs(width, pIn),
		Eval: func(s *evsim.InstanceState) { fn(s.Now(), s.Get(0)) },
	}).newPart(name, conns)
}

// A Trace records the values seen by probes.
//
type Trace struct {
	Samples []Sample
}

// A Sample is a value seen by a probe at a given time.
//
type Sample struct {
	Probe string
	Time  evsim.Time
	Value evsim.Value
}

// Probe returns a probe that records its samples in the trace.
//
func (t *Trace) Probe(name string, cfg ProbeConfig, conns string) (*Part, error) {
	return Probe(name, cfg, conns, func(at evsim.Time, v evsim.Value) {
		t.Samples = append(t.Samples, Sample{name, at, v})
	})
}

// Last returns the last value recorded by the named probe.
//
func (t *Trace) Last(probe string) (evsim.Value, bool) {
	for i := len(t.Samples) - 1; i >= 0; i-- {
		if s := t.Samples[i]; s.Probe == probe {
			return s.Value, true
		}
	}
	return evsim.Nil, false
}
