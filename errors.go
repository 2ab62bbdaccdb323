// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A ValueError is returned when a definite value is demanded from a Value
// holding X or E bits. Components are expected to handle it locally and
// substitute Unknown or Error outputs.
//
type ValueError struct {
	Op    string
	Value Value
}

func (e *ValueError) Error() string {
	return "evsim: " + e.Op + ": value " + e.Value.String() + " is not fully defined"
}

// An OscillationError describes a propagation burst that was aborted because
// some nets failed to settle.
//
type OscillationError struct {
	Steps  int     // steps run before the abort
	Points []Point // offending points
}

func (e *OscillationError) Error() string {
	return "evsim: circuit is oscillating after " + strconv.Itoa(e.Steps) + " steps (" +
		strconv.Itoa(len(e.Points)) + " unstable points)"
}

// WidthIncompatibility is the diagnostic record produced for a net whose
// ports disagree on their bit width.
//
type WidthIncompatibility struct {
	Circuit string
	// Loc is the first port location on the net where the conflicting widths
	// meet.
	Loc    Location
	Points []Location // all locations on the net
	Widths []int      // distinct widths, sorted
}

func (w *WidthIncompatibility) Error() string {
	ws := make([]string, len(w.Widths))
	for i, n := range w.Widths {
		ws[i] = strconv.Itoa(n)
	}
	return "evsim: " + w.Circuit + ": incompatible widths at " + string(w.Loc) + ": " + strings.Join(ws, ", ")
}

// A QueueConsistencyError signals a broken engine invariant such as a negative
// delay or an event scheduled in the past. It is raised with panic.
//
type QueueConsistencyError struct {
	Msg string
}

func (e *QueueConsistencyError) Error() string {
	return "evsim: event queue consistency: " + e.Msg
}

func queuePanic(format string, args ...interface{}) {
	panic(errors.WithStack(&QueueConsistencyError{Msg: errors.Errorf(format, args...).Error()}))
}

func isQueuePanic(r interface{}) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}
	var qe *QueueConsistencyError
	return errors.As(err, &qe)
}

func sortedWidths(m map[int]struct{}) []int {
	ws := make([]int, 0, len(m))
	for w := range m {
		ws = append(ws, w)
	}
	sort.Ints(ws)
	return ws
}
