// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// A Subscription receives the StepResult of every operation run by a
// Simulator. Results are never waited for: when the channel is full, the
// result is dropped and counted.
//
type Subscription struct {
	ID string

	c       chan *StepResult
	dropped atomic.Uint64
}

// C returns the result channel. It is closed by Unsubscribe or when the
// simulator is closed.
//
func (s *Subscription) C() <-chan *StepResult { return s.c }

// Dropped returns the number of results dropped because the channel was full.
//
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscription) send(r *StepResult) {
	select {
	case s.c <- r:
	default:
		s.dropped.Add(1)
		recordDroppedResult()
	}
}

// Subscribe registers a new subscription with a channel of the given
// capacity. A negative capacity selects the configured default.
//
func (s *Simulator) Subscribe(buffer int) *Subscription {
	if buffer < 0 {
		buffer = s.opts.SubscriberBuffer
	}
	sub := &Subscription{ID: uuid.NewString(), c: make(chan *StepResult, buffer)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		// closed
		close(sub.c)
		return sub
	}
	s.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel. It returns false
// if the subscription was not registered.
//
func (s *Simulator) Unsubscribe(sub *Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return false
	}
	delete(s.subs, sub.ID)
	close(sub.c)
	return true
}

func (s *Simulator) publish(r *StepResult) {
	s.mu.Lock()
	for _, sub := range s.subs {
		sub.send(r)
	}
	s.mu.Unlock()
}

func (s *Simulator) closeSubscriptions() {
	s.mu.Lock()
	for _, sub := range s.subs {
		close(sub.c)
	}
	s.subs = nil
	s.mu.Unlock()
}
