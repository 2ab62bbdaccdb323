// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// W maps the pin names of a part to locations in its host circuit.
//
type W map[string]Location

// ParseConnections parses a connection description like
//
//	"a=in0, b=in1, out=and.out"
//
// and returns the pin name to location mapping. Pin names must be identifiers;
// locations may contain any non-space character except ',' and '='.
//
func ParseConnections(c string) (W, error) {
	w := make(W)
	c = strings.TrimSpace(c)
	if c == "" {
		return w, nil
	}
	for i, item := range strings.Split(c, ",") {
		eq := strings.IndexByte(item, '=')
		if eq < 0 {
			return nil, parseError(c, i, "expected pin=location")
		}
		k, v := strings.TrimSpace(item[:eq]), strings.TrimSpace(item[eq+1:])
		if !isIdent(k) {
			return nil, parseError(c, i, "invalid pin name "+strconvQuote(k))
		}
		if v == "" || strings.IndexFunc(v, func(r rune) bool { return unicode.IsSpace(r) || r == '=' }) >= 0 {
			return nil, parseError(c, i, "invalid location "+strconvQuote(v))
		}
		if _, ok := w[k]; ok {
			return nil, parseError(c, i, "pin "+k+" connected more than once")
		}
		w[k] = Location(v)
	}
	return w, nil
}

// Check verifies that all keys of w are in pins. Pins missing from w are
// mapped to a location private to the part, built from prefix and the pin
// name, so that they are left unconnected.
//
func (w W) Check(prefix string, pins ...string) (W, error) {
	r := make(W, len(pins))
	for _, p := range pins {
		if l, ok := w[p]; ok {
			r[p] = l
		} else {
			r[p] = Location(prefix + "#" + p)
		}
	}
	for k := range w {
		if _, ok := r[k]; !ok {
			return nil, errors.New("invalid pin name " + k + " for part " + prefix)
		}
	}
	return r, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func strconvQuote(s string) string { return "\"" + s + "\"" }

func parseError(in string, item int, msg string) error {
	return errors.Errorf("in %q at item %d: %s", in, item+1, msg)
}
