// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim_test

import (
	"testing"

	"github.com/db47h/evsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnections(t *testing.T) {
	td := []struct {
		in  string
		out evsim.W
		err bool
	}{
		{"", evsim.W{}, false},
		{"a=x", evsim.W{"a": "x"}, false},
		{" a = x , b=y.out ,out=u1#q", evsim.W{"a": "x", "b": "y.out", "out": "u1#q"}, false},
		{"a", nil, true},
		{"a=", nil, true},
		{"1a=x", nil, true},
		{"a=x y", nil, true},
		{"a=x, a=y", nil, true},
	}
	for _, d := range td {
		t.Run(d.in, func(t *testing.T) {
			w, err := evsim.ParseConnections(d.in)
			if d.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, d.out, w)
		})
	}
}

func TestWCheck(t *testing.T) {
	w, err := evsim.ParseConnections("a=x, out=y")
	require.NoError(t, err)

	r, err := w.Check("g0", "a", "b", "out")
	require.NoError(t, err)
	assert.Equal(t, evsim.W{"a": "x", "b": "g0#b", "out": "y"}, r)

	_, err = w.Check("g0", "a", "b")
	assert.EqualError(t, err, "invalid pin name out for part g0")
}
