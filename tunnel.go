// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// A Tunnel joins its location to the location of every other tunnel with the
// same label in the same circuit, without a wire.
//
type Tunnel struct {
	Label string
	Loc   Location
	Width int

	ports []Port
}

// NewTunnel returns a new tunnel.
//
func NewTunnel(label string, width int, loc Location) *Tunnel {
	return &Tunnel{
		Label: label,
		Loc:   loc,
		Width: width,
		ports: []Port{{Name: label, Loc: loc, Width: width, Dir: InOut}},
	}
}

// Name implements Component.
//
func (t *Tunnel) Name() string { return "tunnel " + t.Label }

// Ports implements Component.
//
func (t *Tunnel) Ports() []Port { return t.ports }

// Delay implements Component.
//
func (t *Tunnel) Delay() Time { return 0 }

// Propagate implements Component. Tunnels are resolved when nets are built.
//
func (t *Tunnel) Propagate(*InstanceState) {}

// A Constant drives a fixed value.
//
type Constant struct {
	Label string
	Loc   Location
	Value Value

	ports []Port
}

// NewConstant returns a new constant driving v on loc.
//
func NewConstant(label string, v Value, loc Location) *Constant {
	return &Constant{
		Label: label,
		Loc:   loc,
		Value: v,
		ports: []Port{{Name: label, Loc: loc, Width: v.Width(), Dir: Output}},
	}
}

// Name implements Component.
//
func (c *Constant) Name() string { return c.Label }

// Ports implements Component.
//
func (c *Constant) Ports() []Port { return c.ports }

// Delay implements Component.
//
func (c *Constant) Delay() Time { return 0 }

// Propagate implements Component.
//
func (c *Constant) Propagate(s *InstanceState) { s.Set(0, c.Value) }
