// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Splitter connects the bits of a bus to the bits of narrower ends. Like a
// Tunnel, it has no behavior of its own: the connected bits are merged when
// nets are built, so values flow both ways without delay.
//
// BitEnds[i] is the index of the end bit i of the bus is connected to, or -1
// if that bit is left unconnected. Bits going to the same end keep their
// order: the lowest bus bit mapped to an end is bit 0 of that end.
//
type Splitter struct {
	Label   string
	Bus     Location
	Ends    []Location
	BitEnds []int

	ports []Port
	bits  [][]int // bus bits per end
}

// NewSplitter returns a new splitter. The bus width is len(bitEnds) and the
// width of each end is the number of bus bits mapped to it.
//
func NewSplitter(label string, bus Location, ends []Location, bitEnds []int) (*Splitter, error) {
	if len(bitEnds) < 1 || len(bitEnds) > MaxWidth {
		return nil, errors.Errorf("splitter %s: invalid bus width %d", label, len(bitEnds))
	}
	if len(ends) == 0 {
		return nil, errors.Errorf("splitter %s: no ends", label)
	}
	s := &Splitter{
		Label:   label,
		Bus:     bus,
		Ends:    ends,
		BitEnds: bitEnds,
		bits:    make([][]int, len(ends)),
	}
	for i, e := range bitEnds {
		if e < -1 || e >= len(ends) {
			return nil, errors.Errorf("splitter %s: bit %d: invalid end %d", label, i, e)
		}
		if e >= 0 {
			s.bits[e] = append(s.bits[e], i)
		}
	}
	s.ports = append(s.ports, Port{Name: "bus", Loc: bus, Width: len(bitEnds), Dir: InOut})
	for k, l := range ends {
		if len(s.bits[k]) == 0 {
			return nil, errors.Errorf("splitter %s: end %d has no bits", label, k)
		}
		s.ports = append(s.ports, Port{Name: "end" + strconv.Itoa(k), Loc: l, Width: len(s.bits[k]), Dir: InOut})
	}
	return s, nil
}

// EvenSplit returns the bit mapping of a bus of the given width split into
// fanout ends of consecutive bits. The first ends get one more bit when width
// is not a multiple of fanout.
//
func EvenSplit(width, fanout int) []int {
	if width < 1 || fanout < 1 {
		return nil
	}
	r := make([]int, 0, width)
	for k := 0; k < fanout; k++ {
		n := width / fanout
		if k < width%fanout {
			n++
		}
		for i := 0; i < n; i++ {
			r = append(r, k)
		}
	}
	return r
}

// Name implements Component.
//
func (s *Splitter) Name() string { return s.Label }

// Ports implements Component.
//
func (s *Splitter) Ports() []Port { return s.ports }

// Delay implements Component.
//
func (s *Splitter) Delay() Time { return 0 }

// Propagate implements Component. Splitters are resolved when nets are built.
//
func (s *Splitter) Propagate(*InstanceState) {}
