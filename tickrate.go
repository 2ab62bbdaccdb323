// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	tickHistory = 1000 // tick timestamps kept
	rateHistory = 100  // rates kept for the display anchor
)

// A TickCounter measures the actual tick rate of a clock driver.
//
// The rate is computed over the last 1000 ticks. The displayed rate is the
// minimum of the last 100 measures, which hides jitter, unless that minimum
// falls below 90% of the current rate, in which case the current rate is
// used.
//
// A TickCounter is safe for concurrent use.
//
type TickCounter struct {
	mu sync.Mutex

	times      [tickHistory]int64
	start, n   int
	rates      [rateHistory]float64
	rStart, rN int
}

// Record records a tick at time at.
//
func (t *TickCounter) Record(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ns := at.UnixNano()
	if t.n < tickHistory {
		t.times[(t.start+t.n)%tickHistory] = ns
		t.n++
	} else {
		t.times[t.start] = ns
		t.start = (t.start + 1) % tickHistory
	}
	if t.n < 2 {
		return
	}
	first := t.times[t.start]
	if ns <= first {
		return
	}
	r := float64(t.n-1) * 1e9 / float64(ns-first)
	if t.rN < rateHistory {
		t.rates[(t.rStart+t.rN)%rateHistory] = r
		t.rN++
	} else {
		t.rates[t.rStart] = r
		t.rStart = (t.rStart + 1) % rateHistory
	}
}

// Clear forgets all recorded ticks.
//
func (t *TickCounter) Clear() {
	t.mu.Lock()
	t.start, t.n, t.rStart, t.rN = 0, 0, 0, 0
	t.mu.Unlock()
}

// Rate returns the displayed tick rate in Hz, or 0 if not enough ticks were
// recorded.
//
func (t *TickCounter) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rN == 0 {
		return 0
	}
	cur := t.rates[(t.rStart+t.rN-1)%rateHistory]
	lo := math.Inf(1)
	for i := 0; i < t.rN; i++ {
		if r := t.rates[(t.rStart+i)%rateHistory]; r < lo {
			lo = r
		}
	}
	if lo < 0.9*cur {
		return cur
	}
	return lo
}

// String returns the tick rate with three significant digits and a unit,
// like "1 kHz" or "12.5 Hz". It returns an empty string if the rate is not
// known yet.
//
func (t *TickCounter) String() string {
	return FormatRate(t.Rate())
}

// FormatRate formats a frequency in Hz with three significant digits.
//
func FormatRate(hz float64) string {
	if hz <= 0 || math.IsInf(hz, 0) || math.IsNaN(hz) {
		return ""
	}
	hz = roundSig(hz, 3)
	unit, scale := "Hz", 1.0
	switch {
	case hz >= 1e6:
		unit, scale = "MHz", 1e6
	case hz >= 1e3:
		unit, scale = "kHz", 1e3
	}
	v := hz / scale
	dec := 3 - intDigits(v)
	if dec < 0 {
		dec = 0
	}
	s := strconv.FormatFloat(v, 'f', dec, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " " + unit
}

func roundSig(x float64, digits int) float64 {
	if x == 0 {
		return 0
	}
	e := digits - 1 - int(math.Floor(math.Log10(x)))
	if e < 0 {
		// dividing by an exact power of ten keeps round numbers exact
		p := math.Pow(10, float64(-e))
		return math.Round(x/p) * p
	}
	p := math.Pow(10, float64(e))
	return math.Round(x*p) / p
}

func intDigits(v float64) int {
	if v < 1 {
		return 1
	}
	return int(math.Floor(math.Log10(v))) + 1
}
