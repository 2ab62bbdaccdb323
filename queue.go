// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// externalCause is the driver cause used for values driven from outside the
// circuit (Propagator.Drive).
const externalCause = -1

// An event drives value onto loc in state on behalf of cause at time.
type event struct {
	time  Time
	seq   uint64
	gen   uint64
	state StateID
	loc   Location
	cause int
	value Value
}

// eventQueue is a min-heap of events ordered by (time, seq). It implements
// container/heap.Interface.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x interface{}) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old) - 1
	e := old[n]
	old[n] = nil
	*q = old[:n]
	return e
}

// driverKey identifies one driver of one location in one state.
type driverKey struct {
	state StateID
	loc   Location
	cause int
}

// pending is the latest value scheduled for a driver. Older events for the
// same driver are superseded and dropped when popped.
type pending struct {
	seq   uint64
	value Value
}
