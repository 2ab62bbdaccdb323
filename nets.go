// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"sort"
)

// a net is a maximal set of connected locations.
type net struct {
	id      int
	locs    []Location // sorted
	width   int        // widest attached port, 1 if none
	widths  []int      // distinct port widths, sorted
	readers []int      // indices of components with an input port on the net

	group *netGroup // nets joined bit by bit through splitters, nil if none
	bits  []int     // thread index in group of each bit
}

// a netBit is bit b of net n.
type netBit struct{ net, bit int }

// A netGroup is a set of nets with bits merged by splitters. Each thread is a
// set of connected bits that carry the same value.
type netGroup struct {
	nets    []int // sorted
	threads [][]netBit
}

func (n *net) incompatible() bool { return len(n.widths) > 1 }

// netlist is the resolved connectivity of a circuit at a given version.
type netlist struct {
	version uint64
	byLoc   map[Location]int
	nets    []*net

	widthErrs []*WidthIncompatibility // memoized, see width.go
	widthDone bool
}

type unionFind map[Location]Location

func (u unionFind) find(l Location) Location {
	p, ok := u[l]
	if !ok {
		u[l] = l
		return l
	}
	if p == l {
		return l
	}
	r := u.find(p)
	u[l] = r
	return r
}

func (u unionFind) union(a, b Location) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// keep the smallest location as root for stable numbering
	if rb < ra {
		ra, rb = rb, ra
	}
	u[rb] = ra
}

func buildNetlist(c *Circuit) *netlist {
	uf := make(unionFind)
	tunnels := make(map[string]Location)
	for _, x := range c.comps {
		for _, pt := range x.Ports() {
			uf.find(pt.Loc)
		}
		if t, ok := x.(*Tunnel); ok {
			if l, ok := tunnels[t.Label]; ok {
				uf.union(l, t.Loc)
			} else {
				tunnels[t.Label] = t.Loc
			}
		}
	}
	for _, w := range c.wires {
		uf.union(w.A, w.B)
	}

	groups := make(map[Location][]Location)
	for l := range uf {
		r := uf.find(l)
		groups[r] = append(groups[r], l)
	}
	roots := make([]Location, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	nl := &netlist{
		version: c.version,
		byLoc:   make(map[Location]int, len(uf)),
		nets:    make([]*net, len(roots)),
	}
	for id, r := range roots {
		locs := groups[r]
		sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
		nl.nets[id] = &net{id: id, locs: locs, width: 1}
		for _, l := range locs {
			nl.byLoc[l] = id
		}
	}

	widths := make([]map[int]struct{}, len(nl.nets))
	var splitters []*Splitter
	for ci, x := range c.comps {
		passive := false
		switch t := x.(type) {
		case *Tunnel:
			passive = true
		case *Splitter:
			passive = true
			splitters = append(splitters, t)
		}
		for _, pt := range x.Ports() {
			n := nl.nets[nl.byLoc[pt.Loc]]
			if widths[n.id] == nil {
				widths[n.id] = make(map[int]struct{})
			}
			widths[n.id][pt.Width] = struct{}{}
			if pt.Width > n.width {
				n.width = pt.Width
			}
			if pt.Dir&Input != 0 && !passive {
				if k := len(n.readers); k == 0 || n.readers[k-1] != ci {
					n.readers = append(n.readers, ci)
				}
			}
		}
	}
	for id, ws := range widths {
		if ws != nil {
			nl.nets[id].widths = sortedWidths(ws)
		}
	}
	if len(splitters) > 0 {
		nl.splitBits(splitters)
	}
	return nl
}

// disjoint is a union-find over dense integers.
type disjoint []int

func newDisjoint(n int) disjoint {
	d := make(disjoint, n)
	for i := range d {
		d[i] = i
	}
	return d
}

func (d disjoint) find(i int) int {
	for d[i] != i {
		d[i] = d[d[i]]
		i = d[i]
	}
	return i
}

func (d disjoint) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	d[rb] = ra
}

// splitBits groups the nets attached to splitters and merges the bits the
// splitters connect.
func (nl *netlist) splitBits(splitters []*Splitter) {
	offset := make([]int, len(nl.nets)+1)
	for id, n := range nl.nets {
		offset[id+1] = offset[id] + n.width
	}
	bits := newDisjoint(offset[len(nl.nets)])
	nets := newDisjoint(len(nl.nets))
	split := make(map[int]bool)
	for _, s := range splitters {
		bus := nl.byLoc[s.Bus]
		split[bus] = true
		for k, bb := range s.bits {
			end := nl.byLoc[s.Ends[k]]
			split[end] = true
			nets.union(bus, end)
			for j, i := range bb {
				bits.union(offset[bus]+i, offset[end]+j)
			}
		}
	}

	groups := make(map[int]*netGroup)
	for id := range nl.nets {
		if !split[id] {
			continue
		}
		r := nets.find(id)
		g := groups[r]
		if g == nil {
			g = new(netGroup)
			groups[r] = g
		}
		g.nets = append(g.nets, id)
	}
	for _, g := range groups {
		threads := make(map[int]int)
		for _, id := range g.nets {
			n := nl.nets[id]
			n.group = g
			n.bits = make([]int, n.width)
			for b := range n.bits {
				r := bits.find(offset[id] + b)
				t, ok := threads[r]
				if !ok {
					t = len(g.threads)
					threads[r] = t
					g.threads = append(g.threads, nil)
				}
				g.threads[t] = append(g.threads[t], netBit{id, b})
				n.bits[b] = t
			}
		}
	}
}

func (nl *netlist) netOf(l Location) (*net, bool) {
	id, ok := nl.byLoc[l]
	if !ok {
		return nil, false
	}
	return nl.nets[id], true
}
