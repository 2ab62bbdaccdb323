// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// WidthErrors returns one diagnostic per net of c whose attached ports
// disagree on their bit width. The result is computed in O(ports) and
// memoized until the next structural edit of c. Nets are reported in location
// order.
//
func (c *Circuit) WidthErrors() []*WidthIncompatibility {
	nl := c.netlist()
	if nl.widthDone {
		return nl.widthErrs
	}
	for _, n := range nl.nets {
		if !n.incompatible() {
			continue
		}
		nl.widthErrs = append(nl.widthErrs, &WidthIncompatibility{
			Circuit: c.name,
			Loc:     firstPortLoc(c, n),
			Points:  n.locs,
			Widths:  n.widths,
		})
	}
	nl.widthDone = true
	recordWidthErrors(len(nl.widthErrs))
	return nl.widthErrs
}

// firstPortLoc returns the smallest location on n that is a component port.
func firstPortLoc(c *Circuit, n *net) Location {
	var best Location
	found := false
	for _, x := range c.comps {
		for _, pt := range x.Ports() {
			if c.nl.byLoc[pt.Loc] != n.id {
				continue
			}
			if !found || pt.Loc < best {
				best, found = pt.Loc, true
			}
		}
	}
	if !found {
		return n.locs[0]
	}
	return best
}

// WidthErrors returns the width diagnostics of c and of every circuit it
// instantiates, each circuit reported once.
//
func WidthErrors(c *Circuit) []*WidthIncompatibility {
	var r []*WidthIncompatibility
	seen := make(map[*Circuit]bool)
	var walk func(*Circuit)
	walk = func(c *Circuit) {
		if seen[c] {
			return
		}
		seen[c] = true
		r = append(r, c.WidthErrors()...)
		for _, x := range c.comps {
			if s, ok := x.(*Subcircuit); ok {
				walk(s.Circuit)
			}
		}
	}
	walk(c)
	return r
}
