// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"testing"

	hl "github.com/db47h/evsim/hwlib"
	"github.com/db47h/evsim/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDFF(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.DFF("dff", hl.DFFConfig{}, "")))
	require.True(t, h.Clocked())
	assert.Equal(t, uint64(0), h.Uint("out"))

	h.Set("in", 1)
	h.Settle()
	assert.Equal(t, uint64(0), h.Uint("out"), "no clock edge")
	h.TickTock()
	assert.Equal(t, uint64(1), h.Uint("out"))
	h.Set("in", 0)
	h.TickTock()
	assert.Equal(t, uint64(0), h.Uint("out"))
}

func TestRegister(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Register("reg", hl.RegisterConfig{Width: 8}, "")))
	h.Set("in", 42)
	h.Set("en", 1)
	h.TickTock()
	assert.Equal(t, uint64(42), h.Uint("out"))

	h.Set("en", 0)
	h.Set("in", 7)
	h.TickTock()
	assert.Equal(t, uint64(42), h.Uint("out"), "disabled")

	h.Set("clr", 1)
	h.Settle()
	assert.Equal(t, uint64(0), h.Uint("out"), "asynchronous clear")

	h.Set("clr", 0)
	h.Set("en", 1)
	h.TickTock()
	assert.Equal(t, uint64(7), h.Uint("out"))
}

func TestCounter(t *testing.T) {
	h := hwtest.New(t, hl.Must(hl.Counter("cnt", hl.CounterConfig{Width: 2, Max: 2}, "")))
	assert.Equal(t, uint64(0), h.Uint("out"))
	h.TickTock()
	assert.Equal(t, uint64(0), h.Uint("out"), "disabled")

	h.Set("en", 1)
	var got, carry []uint64
	for i := 0; i < 5; i++ {
		h.TickTock()
		got = append(got, h.Uint("out"))
		carry = append(carry, h.Uint("carry"))
	}
	assert.Equal(t, []uint64{1, 2, 0, 1, 2}, got)
	assert.Equal(t, []uint64{0, 1, 0, 0, 1}, carry)

	h.Set("clr", 1)
	h.Settle()
	assert.Equal(t, uint64(0), h.Uint("out"))
}

func TestCounterErrors(t *testing.T) {
	_, err := hl.Counter("cnt", hl.CounterConfig{Width: 2, Max: 4}, "")
	assert.Error(t, err)
	_, err = hl.Counter("cnt", hl.CounterConfig{Width: 65}, "")
	assert.Error(t, err)
}
