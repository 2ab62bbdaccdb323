/*
Package evsim is an event driven simulator for digital logic circuits.

A Circuit is a flat list of components whose ports are wired by location.
Components attached to the same location, directly or through tunnels and
splitters, share a net. Circuits nest through Subcircuit components, and
every instance of a circuit gets its own CircuitState.

Values are multi-bit vectors where each bit is 0, 1, X (unknown or floating) or
E (error, for conflicting drivers). Values driven onto the same net are
combined, so that tri-state buses resolve naturally.

The Propagator owns the event queue. Each step it pops the events scheduled
for the earliest time, applies them to their nets, and evaluates every
component attached to a net whose value changed. A component reacts by driving
new values on its outputs after its propagation delay. A newer value from the
same driver supersedes any pending one (inertial delay). Propagate runs steps
until the circuit is stable or a burst of steps is found to oscillate, in which
case the offending nets are reported.

The Simulator runs a Propagator on its own goroutine, drives the clocks at a
configurable tick frequency, and publishes step results to subscribers.

Basic components (gates, muxes, flip-flops, adders) are provided by the hwlib
sub-package, and designs can be loaded from YAML files with the evsim command.

*/
package evsim
