// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable parts for evsim.
//
// Parts are built from a name, a typed configuration record and a connection
// string mapping their pin names to locations of the host circuit:
//
//	hwlib.And("and0", hwlib.GateConfig{Inputs: 2, Width: 1, Delay: 1}, "in0=a, in1=b, out=c")
//
// Pins left out of the connection string are not connected: inputs read
// Unknown, outputs drive a location private to the part.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// common pin names
const (
	pA     = "a"
	pB     = "b"
	pIn    = "in"
	pSel   = "sel"
	pOut   = "out"
	pClk   = "clk"
	pEn    = "en"
	pClr   = "clr"
	pCin   = "cin"
	pCout  = "cout"
	pCarry = "carry"
)

// make numbered pin names: in0, in1, ...
func bus(n int, name string) []string {
	b := make([]string, n)
	for i := range b {
		b[i] = name + strconv.Itoa(i)
	}
	return b
}

type pin struct {
	name  string
	width int
	dir   evsim.Direction
}

func inputs(width int, names ...string) []pin {
	ps := make([]pin, len(names))
	for i, n := range names {
		ps[i] = pin{n, width, evsim.Input}
	}
	return ps
}

func outputs(width int, names ...string) []pin {
	ps := make([]pin, len(names))
	for i, n := range names {
		ps[i] = pin{n, width, evsim.Output}
	}
	return ps
}

// A partSpec describes a kind of part. Eval reads and sets ports in the order
// of Pins.
type partSpec struct {
	Kind  string
	Pins  []pin
	Delay evsim.Time
	Eval  func(s *evsim.InstanceState)
}

func (ps *partSpec) newPart(name, conns string) (*Part, error) {
	if ps.Delay < 0 {
		return nil, errors.Errorf("%s %s: negative delay %d", ps.Kind, name, ps.Delay)
	}
	names := make([]string, len(ps.Pins))
	for i, p := range ps.Pins {
		if p.width < 1 || p.width > evsim.MaxWidth {
			return nil, errors.Errorf("%s %s: pin %s: invalid width %d", ps.Kind, name, p.name, p.width)
		}
		names[i] = p.name
	}
	w, err := evsim.ParseConnections(conns)
	if err != nil {
		return nil, errors.Wrap(err, ps.Kind+" "+name)
	}
	if w, err = w.Check(name, names...); err != nil {
		return nil, errors.Wrap(err, ps.Kind)
	}
	ports := make([]evsim.Port, len(ps.Pins))
	for i, p := range ps.Pins {
		ports[i] = evsim.Port{Name: p.name, Loc: w[p.name], Width: p.width, Dir: p.dir}
	}
	return &Part{spec: ps, name: name, ports: ports}, nil
}

// A Part is a component of the library.
//
type Part struct {
	spec  *partSpec
	name  string
	ports []evsim.Port
}

// Name implements evsim.Component.
//
func (p *Part) Name() string { return p.name }

// Kind returns the kind of part, like "AND".
//
func (p *Part) Kind() string { return p.spec.Kind }

// Ports implements evsim.Component.
//
func (p *Part) Ports() []evsim.Port { return p.ports }

// Delay implements evsim.Component.
//
func (p *Part) Delay() evsim.Time { return p.spec.Delay }

// Propagate implements evsim.Component.
//
func (p *Part) Propagate(s *evsim.InstanceState) { p.spec.Eval(s) }

// Must is a helper that wraps a call to a part constructor and panics if the
// error is non-nil.
//
func Must(p evsim.Component, err error) evsim.Component {
	if err != nil {
		panic(err)
	}
	return p
}

// undefined returns Error if v holds an E bit, Unknown otherwise, with the
// given width.
func undefined(v evsim.Value, width int) evsim.Value {
	if v.IsErrorValue() {
		return evsim.CreateError(width)
	}
	return evsim.CreateUnknown(width)
}

// edge tracks the previous clock level of sequential parts.
type edge struct {
	clk evsim.Value
}

func (e *edge) rising(clk evsim.Value) bool {
	r := e.clk == evsim.False && clk == evsim.True
	e.clk = clk
	return r
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
