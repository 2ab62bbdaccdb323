// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

func (s *Simulator) notifyDriver() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Simulator) driverSettings() (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoTick, s.frequency
}

// drive is the real-time clock driver. While auto-tick is on, it requests one
// tick per period. Ticks requested while the previous one is still being
// processed are coalesced.
func (s *Simulator) drive(ctx context.Context) error {
	for {
		on, hz := s.driverSettings()
		if !on {
			select {
			case <-ctx.Done():
				return nil
			case <-s.wake:
				continue
			}
		}
		lim := rate.NewLimiter(rate.Limit(hz), 1)
	pace:
		for {
			r := lim.Reserve()
			t := time.NewTimer(r.Delay())
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-s.wake:
				t.Stop()
				r.Cancel()
				break pace
			case <-t.C:
				s.RequestTick()
			}
		}
	}
}
