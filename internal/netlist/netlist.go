// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netlist loads circuit designs described in YAML.
//
// A design lists circuits by name. Each circuit has components and wires;
// components reference other circuits of the same design by name with the
// "subcircuit" kind:
//
//	top: main
//	circuits:
//	  - name: main
//	    components:
//	      - {kind: input, name: a, width: 1}
//	      - {kind: not, name: inv, connections: "in=a, out=y"}
//	      - {kind: output, name: y}
//	    wires:
//	      - [y, z]
//
// Pins, clocks, constants and tunnels sit at the location given by loc,
// which defaults to their name (label for tunnels). Library parts, splitters
// and subcircuits are connected with a connection string.
//
package netlist

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultDelay is the propagation delay of library parts whose delay is not
// set.
//
const DefaultDelay = 1

// File is the YAML document of a design.
//
type File struct {
	Top      string    `yaml:"top"`
	Circuits []Circuit `yaml:"circuits"`
}

// Circuit describes one circuit.
//
type Circuit struct {
	Name       string      `yaml:"name"`
	Components []Component `yaml:"components"`
	Wires      [][]string  `yaml:"wires"` // pairs of locations
}

// Component describes a component. Fields that do not apply to its kind are
// ignored.
//
type Component struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Connections string `yaml:"connections"`
	Loc         string `yaml:"loc"`
	Label       string `yaml:"label"`

	Width   int    `yaml:"width"`
	Inputs  int    `yaml:"inputs"`
	Select  int    `yaml:"select"`
	Delay   *int   `yaml:"delay"`
	Max     uint64 `yaml:"max"`
	High    int    `yaml:"high"`
	Low     int    `yaml:"low"`
	Phase   int    `yaml:"phase"`
	Value   string `yaml:"value"`
	Circuit string `yaml:"circuit"`
	// splitters: fanout ends of equal size unless bit_ends maps each bus bit
	// to an end (-1 for none)
	Fanout  int   `yaml:"fanout"`
	BitEnds []int `yaml:"bit_ends"`
}

// A Design is a loaded design.
//
type Design struct {
	Top      *evsim.Circuit
	Circuits map[string]*evsim.Circuit
	// Trace records the samples of probe components.
	Trace *hl.Trace
}

// LoadFile loads a design from a YAML file.
//
func LoadFile(name string) (*Design, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open design")
	}
	defer f.Close()
	d, err := Load(f)
	return d, errors.Wrap(err, name)
}

// Load decodes a YAML design from r and builds its circuits. Unknown keys are
// rejected.
//
func Load(r io.Reader) (*Design, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode design")
	}
	return f.Build()
}

type builder struct {
	defs  map[string]*Circuit
	built map[string]*evsim.Circuit
	busy  map[string]bool
	trace *hl.Trace
}

// Build builds all circuits of the design. If Top is empty, the first circuit
// is the top circuit.
//
func (f *File) Build() (*Design, error) {
	if len(f.Circuits) == 0 {
		return nil, errors.New("no circuit in design")
	}
	b := &builder{
		defs:  make(map[string]*Circuit),
		built: make(map[string]*evsim.Circuit),
		busy:  make(map[string]bool),
		trace: new(hl.Trace),
	}
	for i := range f.Circuits {
		c := &f.Circuits[i]
		if c.Name == "" {
			return nil, errors.Errorf("circuit #%d: missing name", i)
		}
		if _, ok := b.defs[c.Name]; ok {
			return nil, errors.Errorf("duplicate circuit %s", c.Name)
		}
		b.defs[c.Name] = c
	}
	for i := range f.Circuits {
		if _, err := b.circuit(f.Circuits[i].Name); err != nil {
			return nil, err
		}
	}
	top := f.Top
	if top == "" {
		top = f.Circuits[0].Name
	}
	tc, ok := b.built[top]
	if !ok {
		return nil, errors.Errorf("top circuit %s not found", top)
	}
	if err := tc.Check(); err != nil {
		return nil, err
	}
	return &Design{Top: tc, Circuits: b.built, Trace: b.trace}, nil
}

func (b *builder) circuit(name string) (*evsim.Circuit, error) {
	if c, ok := b.built[name]; ok {
		return c, nil
	}
	def, ok := b.defs[name]
	if !ok {
		return nil, errors.Errorf("unknown circuit %s", name)
	}
	if b.busy[name] {
		return nil, errors.Errorf("circuit %s instantiates itself", name)
	}
	b.busy[name] = true
	defer delete(b.busy, name)

	c := evsim.NewCircuit(name)
	for i := range def.Components {
		x := &def.Components[i]
		part, err := b.component(x)
		if err != nil {
			return nil, errors.Wrapf(err, "circuit %s: component #%d", name, i)
		}
		c.Add(part)
	}
	for i, w := range def.Wires {
		if len(w) != 2 || w[0] == "" || w[1] == "" {
			return nil, errors.Errorf("circuit %s: wire #%d: need two locations, got %v", name, i, w)
		}
		c.Connect(evsim.Location(w[0]), evsim.Location(w[1]))
	}
	b.built[name] = c
	return c, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (x *Component) delay() evsim.Time {
	if x.Delay == nil {
		return DefaultDelay
	}
	return evsim.Time(*x.Delay)
}

// loc returns the location of single port components.
func (x *Component) loc(def string) evsim.Location {
	if x.Loc != "" {
		return evsim.Location(x.Loc)
	}
	return evsim.Location(def)
}

type gateFn func(name string, cfg hl.GateConfig, conns string) (*hl.Part, error)
type unaryFn func(name string, cfg hl.UnaryConfig, conns string) (*hl.Part, error)

var gates = map[string]gateFn{
	"and":  hl.And,
	"nand": hl.Nand,
	"or":   hl.Or,
	"nor":  hl.Nor,
	"xor":  hl.Xor,
	"xnor": hl.Xnor,
}

var unaries = map[string]unaryFn{
	"not":      hl.Not,
	"buffer":   hl.Buffer,
	"tristate": hl.ControlledBuffer,
}

// Kinds returns the supported component kinds, sorted.
//
func Kinds() []string {
	ks := []string{"input", "output", "clock", "constant", "tunnel", "subcircuit",
		"mux", "demux", "dff", "register", "counter", "adder", "probe", "splitter"}
	for k := range gates {
		ks = append(ks, k)
	}
	for k := range unaries {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func (b *builder) component(x *Component) (evsim.Component, error) {
	kind := strings.ToLower(x.Kind)
	if x.Name == "" && kind != "tunnel" {
		return nil, errors.Errorf("%s: missing name", x.Kind)
	}
	width := orDefault(x.Width, 1)
	if fn, ok := gates[kind]; ok {
		return fn(x.Name, hl.GateConfig{Inputs: x.Inputs, Width: x.Width, Delay: x.delay()}, x.Connections)
	}
	if fn, ok := unaries[kind]; ok {
		return fn(x.Name, hl.UnaryConfig{Width: x.Width, Delay: x.delay()}, x.Connections)
	}
	switch kind {
	case "input":
		return evsim.NewInputPin(x.Name, width, x.loc(x.Name)), nil
	case "output":
		return evsim.NewOutputPin(x.Name, width, x.loc(x.Name)), nil
	case "clock":
		c := evsim.NewClock(x.Name, x.loc(x.Name), x.High, x.Low)
		c.Phase = x.Phase
		return c, nil
	case "constant":
		v, err := evsim.ParseValue(width, x.Value)
		if err != nil {
			return nil, errors.Wrap(err, x.Name)
		}
		return evsim.NewConstant(x.Name, v, x.loc(x.Name)), nil
	case "tunnel":
		label := x.Label
		if label == "" {
			label = x.Name
		}
		if label == "" {
			return nil, errors.New("tunnel: missing label")
		}
		return evsim.NewTunnel(label, width, x.loc(label)), nil
	case "splitter":
		return splitter(x, width)
	case "subcircuit":
		c, err := b.circuit(x.Circuit)
		if err != nil {
			return nil, errors.Wrap(err, x.Name)
		}
		w, err := evsim.ParseConnections(x.Connections)
		if err != nil {
			return nil, errors.Wrap(err, x.Name)
		}
		return evsim.NewSubcircuit(x.Name, c, w)
	case "mux":
		return hl.Mux(x.Name, hl.MuxConfig{Width: x.Width, Select: x.Select, Delay: x.delay()}, x.Connections)
	case "demux":
		return hl.Demux(x.Name, hl.MuxConfig{Width: x.Width, Select: x.Select, Delay: x.delay()}, x.Connections)
	case "dff":
		return hl.DFF(x.Name, hl.DFFConfig{Delay: x.delay()}, x.Connections)
	case "register":
		return hl.Register(x.Name, hl.RegisterConfig{Width: x.Width, Delay: x.delay()}, x.Connections)
	case "counter":
		return hl.Counter(x.Name, hl.CounterConfig{Width: x.Width, Max: x.Max, Delay: x.delay()}, x.Connections)
	case "adder":
		return hl.Adder(x.Name, hl.AdderConfig{Width: x.Width, Delay: x.delay()}, x.Connections)
	case "probe":
		return b.trace.Probe(x.Name, hl.ProbeConfig{Width: x.Width}, x.Connections)
	}
	return nil, errors.Errorf("%s: unknown component kind %q", x.Name, x.Kind)
}

// splitter builds a splitter connected with "bus=b, end0=x, end1=y...".
func splitter(x *Component, width int) (evsim.Component, error) {
	bitEnds := x.BitEnds
	fanout := x.Fanout
	if bitEnds == nil {
		bitEnds = evsim.EvenSplit(width, orDefault(fanout, 2))
	}
	for _, e := range bitEnds {
		if e >= fanout {
			fanout = e + 1
		}
	}
	w, err := evsim.ParseConnections(x.Connections)
	if err != nil {
		return nil, errors.Wrap(err, x.Name)
	}
	pins := []string{"bus"}
	for k := 0; k < fanout; k++ {
		pins = append(pins, "end"+strconv.Itoa(k))
	}
	if w, err = w.Check(x.Name, pins...); err != nil {
		return nil, errors.Wrap(err, "splitter")
	}
	ends := make([]evsim.Location, fanout)
	for k := range ends {
		ends[k] = w[pins[k+1]]
	}
	return evsim.NewSplitter(x.Name, w["bus"], ends, bitEnds)
}
