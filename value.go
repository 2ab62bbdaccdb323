// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strings"

	"github.com/pkg/errors"
)

// MaxWidth is the maximum bit width of a Value.
//
const MaxWidth = 64

// A Value is an immutable multi-bit logic value. Each bit is one of 0, 1,
// X (unknown) or E (error).
//
// Values are plain comparable structs: two values are equal if and only if
// they have the same width and the same bits, so they can be compared with ==
// and used as map keys.
//
type Value struct {
	width uint8
	err   uint64 // E bits
	unk   uint64 // X bits, never overlaps err
	val   uint64 // 1 bits, never overlaps err or unk
}

// Single bit constants and the zero width value.
//
var (
	False   = Value{width: 1}
	True    = Value{width: 1, val: 1}
	Unknown = Value{width: 1, unk: 1}
	Error   = Value{width: 1, err: 1}
	Nil     = Value{}
)

func mask(width int) uint64 {
	if width >= MaxWidth {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// create normalizes the bit planes: E wins over X which wins over 0/1.
func create(width int, e, u, v uint64) Value {
	if width < 0 || width > MaxWidth {
		panic(errors.Errorf("invalid value width %d", width))
	}
	m := mask(width)
	e &= m
	u &= m &^ e
	v &= m &^ e &^ u
	return Value{width: uint8(width), err: e, unk: u, val: v}
}

// CreateKnown returns a fully defined value of the given width.
//
func CreateKnown(width int, v uint64) Value {
	return create(width, 0, 0, v)
}

// CreateUnknown returns a value of the given width with all bits set to X.
//
func CreateUnknown(width int) Value {
	return create(width, 0, ^uint64(0), 0)
}

// CreateError returns a value of the given width with all bits set to E.
//
func CreateError(width int) Value {
	return create(width, ^uint64(0), 0, 0)
}

// Repeat returns a value of the given width where every bit is set to the
// single bit value bit.
//
func Repeat(bit Value, width int) Value {
	if bit.width != 1 {
		panic(errors.Errorf("repeat: base value must be one bit wide, got %d", bit.width))
	}
	all := ^uint64(0)
	return create(width, all*bit.err, all*bit.unk, all*bit.val)
}

// FromBits assembles single bit values into one value. bits[0] is the least
// significant bit.
//
func FromBits(bits ...Value) Value {
	if len(bits) > MaxWidth {
		panic(errors.Errorf("cannot have more than %d bits in a value", MaxWidth))
	}
	var e, u, v uint64
	for i, b := range bits {
		if b.width != 1 {
			panic(errors.Errorf("bit %d: expected a one bit value, got width %d", i, b.width))
		}
		e |= b.err << uint(i)
		u |= b.unk << uint(i)
		v |= b.val << uint(i)
	}
	return create(len(bits), e, u, v)
}

// ParseValue parses a value of the given width. The string is either a binary
// string, most significant bit first, made of the characters 0, 1, x/X and
// e/E, or a hexadecimal number prefixed with 0x. Short strings are zero
// extended; values that do not fit in width bits are rejected.
//
func ParseValue(width int, s string) (Value, error) {
	if width <= 0 || width > MaxWidth {
		return Nil, errors.Errorf("invalid width %d", width)
	}
	s = strings.TrimSpace(s)
	if h := strings.TrimPrefix(strings.ToLower(s), "0x"); len(h) != len(s) {
		var v uint64
		if h == "" {
			return Nil, errors.Errorf("empty hexadecimal value %q", s)
		}
		if len(strings.TrimLeft(h, "0")) > 16 {
			return Nil, errors.Errorf("cannot parse %q as a %d bits value", s, width)
		}
		for _, r := range h {
			var d uint64
			switch {
			case '0' <= r && r <= '9':
				d = uint64(r - '0')
			case 'a' <= r && r <= 'f':
				d = uint64(r-'a') + 10
			default:
				return Nil, errors.Errorf("invalid hexadecimal digit %q in %q", r, s)
			}
			v = v<<4 | d
		}
		if v&^mask(width) != 0 {
			return Nil, errors.Errorf("cannot parse %q as a %d bits value", s, width)
		}
		return CreateKnown(width, v), nil
	}
	s = strings.ReplaceAll(s, " ", "")
	if len(s) == 0 || len(s) > width {
		return Nil, errors.Errorf("cannot parse %q as a %d bits value", s, width)
	}
	var e, u, v uint64
	for i := 0; i < len(s); i++ {
		bit := uint64(1) << uint(len(s)-1-i)
		switch s[i] {
		case '0':
		case '1':
			v |= bit
		case 'x', 'X':
			u |= bit
		case 'e', 'E':
			e |= bit
		default:
			return Nil, errors.Errorf("invalid bit %q in %q", s[i], s)
		}
	}
	return create(width, e, u, v), nil
}

// Width returns the bit width of v.
//
func (v Value) Width() int { return int(v.width) }

// IsFullyDefined returns true if v has at least one bit and no X or E bits.
//
func (v Value) IsFullyDefined() bool {
	return v.width > 0 && v.err == 0 && v.unk == 0
}

// IsErrorValue returns true if any bit of v is E.
//
func (v Value) IsErrorValue() bool { return v.err != 0 }

// IsUnknown returns true if all bits of v are X.
//
func (v Value) IsUnknown() bool {
	return v.width > 0 && v.unk == mask(int(v.width))
}

// ToLong returns the unsigned integer value of v. It fails with a *ValueError
// if any bit is X or E.
//
func (v Value) ToLong() (uint64, error) {
	if v.width == 0 || v.err != 0 || v.unk != 0 {
		return 0, &ValueError{Op: "ToLong", Value: v}
	}
	return v.val, nil
}

// ToSigned is like ToLong but sign extends v.
//
func (v Value) ToSigned() (int64, error) {
	u, err := v.ToLong()
	if err != nil {
		return 0, &ValueError{Op: "ToSigned", Value: v}
	}
	if w := uint(v.width); w < MaxWidth && u&(1<<(w-1)) != 0 {
		u |= ^mask(int(w))
	}
	return int64(u), nil
}

// Get returns bit i of v as a single bit value.
//
func (v Value) Get(i int) Value {
	if i < 0 || i >= int(v.width) {
		return Nil
	}
	s := uint(i)
	return create(1, v.err>>s, v.unk>>s, v.val>>s)
}

// Bits returns all bits of v, least significant first.
//
func (v Value) Bits() []Value {
	r := make([]Value, v.width)
	for i := range r {
		r[i] = v.Get(i)
	}
	return r
}

// Set returns a copy of v where bit i is replaced by the single bit value bit.
//
func (v Value) Set(i int, bit Value) Value {
	if bit.width != 1 || i < 0 || i >= int(v.width) {
		panic(errors.Errorf("cannot set bit %d of a %d bits value to %v", i, v.width, bit))
	}
	s := uint(i)
	m := ^(uint64(1) << s)
	return create(int(v.width), v.err&m|bit.err<<s, v.unk&m|bit.unk<<s, v.val&m|bit.val<<s)
}

// Extend returns v resized to width. New high bits are set to fill, which
// must be a single bit value. Shrinking truncates the high bits.
//
func (v Value) Extend(width int, fill Value) Value {
	if width <= int(v.width) {
		return create(width, v.err, v.unk, v.val)
	}
	hi := mask(width) &^ mask(int(v.width))
	return create(width, v.err|hi*fill.err, v.unk|hi*fill.unk, v.val|hi*fill.val)
}

// Combine merges two values driven onto the same net. Bits that agree pass
// through, X yields to a defined bit, differing defined bits become E and E
// is absorbing. Values of different widths are merged as if the narrower
// one had X high bits. Nil is the identity.
//
func (v Value) Combine(o Value) Value {
	if v.width == 0 {
		return o
	}
	if o.width == 0 {
		return v
	}
	w := int(v.width)
	if o.width > v.width {
		w = int(o.width)
	}
	a, b := v.Extend(w, Unknown), o.Extend(w, Unknown)
	disagree := (a.val ^ b.val) &^ (a.unk | b.unk)
	return create(w, a.err|b.err|disagree, a.unk&b.unk, a.val|b.val)
}

// Compatible returns true if o refines v: wherever v is defined o has the
// same bit, wherever v is E so is o.
//
func (v Value) Compatible(o Value) bool {
	return v.width == o.width &&
		v.err == o.err &&
		v.val == o.val&^v.unk &&
		v.unk == o.unk|v.unk
}

func (v Value) maxWidth(o Value) int {
	if o.width > v.width {
		return int(o.width)
	}
	return int(v.width)
}

// And returns the bitwise AND of v and o. A defined 0 on either side forces
// 0; otherwise E wins over X.
//
func (v Value) And(o Value) Value {
	w := v.maxWidth(o)
	a, b := v.Extend(w, Unknown), o.Extend(w, Unknown)
	zeros := a.zeros() | b.zeros()
	e := (a.err | b.err) &^ zeros
	return create(w, e, (a.unk|b.unk)&^zeros, a.val&b.val)
}

// Or returns the bitwise OR of v and o. A defined 1 on either side forces 1;
// otherwise E wins over X.
//
func (v Value) Or(o Value) Value {
	w := v.maxWidth(o)
	a, b := v.Extend(w, Unknown), o.Extend(w, Unknown)
	ones := a.val | b.val
	return create(w, (a.err|b.err)&^ones, (a.unk|b.unk)&^ones, ones)
}

// Xor returns the bitwise XOR of v and o.
//
func (v Value) Xor(o Value) Value {
	w := v.maxWidth(o)
	a, b := v.Extend(w, Unknown), o.Extend(w, Unknown)
	return create(w, a.err|b.err, a.unk|b.unk, a.val^b.val)
}

// Not returns the bitwise complement of v. X and E bits are preserved.
//
func (v Value) Not() Value {
	return create(int(v.width), v.err, v.unk, ^v.val&^v.unk&^v.err)
}

// Controls applies v as the enable of a tri-state buffer to o. A single bit
// enable applies to all bits of o; a multi-bit enable must match o's width.
// Disabled bits float (X).
//
func (v Value) Controls(o Value) Value {
	w := int(o.width)
	if v.width == 1 {
		switch v {
		case False:
			return CreateUnknown(w)
		case True, Unknown:
			return o
		}
		return CreateError(w)
	}
	if v.width != o.width {
		return CreateError(w)
	}
	disabled := v.zeros()
	enabled := (v.val | v.unk) &^ v.err
	return create(w, v.err|o.err&^disabled, disabled|o.unk, enabled&o.val)
}

// defined zero bits
func (v Value) zeros() uint64 {
	return mask(int(v.width)) &^ (v.val | v.unk | v.err)
}

// String returns the binary representation of v, most significant bit first,
// using 0, 1, x and E.
//
func (v Value) String() string {
	if v.width == 0 {
		return "-"
	}
	var b strings.Builder
	for i := int(v.width) - 1; i >= 0; i-- {
		bit := uint64(1) << uint(i)
		switch {
		case v.err&bit != 0:
			b.WriteByte('E')
		case v.unk&bit != 0:
			b.WriteByte('x')
		case v.val&bit != 0:
			b.WriteByte('1')
		default:
			b.WriteByte('0')
		}
	}
	return b.String()
}

// HexString returns the hexadecimal representation of v. Nibbles holding an E
// bit print as E, those holding an X bit as x.
//
func (v Value) HexString() string {
	if v.width <= 1 {
		return v.String()
	}
	const digits = "0123456789abcdef"
	n := (int(v.width) + 3) / 4
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		s := uint(4 * i)
		m := uint64(0xf) & (mask(int(v.width)) >> s)
		switch {
		case (v.err>>s)&m != 0:
			b[n-1-i] = 'E'
		case (v.unk>>s)&m != 0:
			b[n-1-i] = 'x'
		default:
			b[n-1-i] = digits[(v.val>>s)&m]
		}
	}
	return string(b)
}
