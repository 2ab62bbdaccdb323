// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim_test

import (
	"testing"
	"time"

	"github.com/db47h/evsim"
	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	td := []struct {
		hz  float64
		out string
	}{
		{0, ""},
		{-1, ""},
		{0.5, "0.5 Hz"},
		{1, "1 Hz"},
		{12.5, "12.5 Hz"},
		{999.4, "999 Hz"},
		{999.6, "1 kHz"},
		{1000, "1 kHz"},
		{45678, "45.7 kHz"},
		{1234567, "1.23 MHz"},
	}
	for _, d := range td {
		t.Run(d.out, func(t *testing.T) {
			assert.Equal(t, d.out, evsim.FormatRate(d.hz))
		})
	}
}

func record(tc *evsim.TickCounter, at time.Time, n int, period time.Duration) time.Time {
	for i := 0; i < n; i++ {
		at = at.Add(period)
		tc.Record(at)
	}
	return at
}

func TestTickCounterSteady(t *testing.T) {
	var tc evsim.TickCounter
	assert.Equal(t, "", tc.String())

	at := time.Unix(1000, 0)
	tc.Record(at)
	assert.Equal(t, "", tc.String(), "one sample is not a rate")

	at = record(&tc, at, 1, time.Millisecond)
	assert.Equal(t, "1 kHz", tc.String())
	for i := 0; i < 1500; i++ {
		at = record(&tc, at, 1, time.Millisecond)
		if s := tc.String(); s != "1 kHz" {
			t.Fatalf("tick %d: got %q", i, s)
		}
	}

	tc.Clear()
	assert.Equal(t, "", tc.String())
	assert.Zero(t, tc.Rate())
}

func TestTickCounterHysteresis(t *testing.T) {
	var tc evsim.TickCounter
	at := record(&tc, time.Unix(1000, 0), 1000, time.Millisecond)
	assert.InDelta(t, 1000, tc.Rate(), 0.01)

	// a short burst of faster ticks does not move the displayed rate
	at = record(&tc, at, 10, time.Millisecond/2)
	assert.InDelta(t, 1000, tc.Rate(), 0.01)
	assert.Equal(t, "1 kHz", tc.String())

	// a lasting change does
	record(&tc, at, 1000, time.Millisecond/2)
	assert.Greater(t, tc.Rate(), 1111.0)
	assert.LessOrEqual(t, tc.Rate(), 2000.0+0.01)
}
