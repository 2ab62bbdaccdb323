// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// Evaluator is the interface that custom parts built using reflection must
// implement. See MakePart.
//
type Evaluator interface {
	Eval()
}

var (
	evaluatorType = reflect.TypeOf((*Evaluator)(nil)).Elem()
	valueType     = reflect.TypeOf(evsim.Value{})
)

// A CustomPart is the blueprint of a part built by MakePart.
//
type CustomPart struct {
	spec partSpec
}

// MakePart wraps an Evaluator into a custom part blueprint. Input and output
// pins are fields of type evsim.Value identified by field tags.
//
// The field tag must be `hw:"in"` or `hw:"out"` to identify input and output
// pins. By default, the pin name is the field name in lowercase and its width
// is 1. A specific pin name and width can be forced by adding them to the tag:
// `hw:"in,pin_name,8"`.
//
// On every evaluation, Eval is called on a fresh copy of t whose input fields
// are set to the current input values. Untagged fields keep the values they
// have in t, which can be a nil pointer. Output fields left to evsim.Nil are
// Unknown, outputs of the wrong width are Error.
//
// Eval must be implemented with a pointer receiver.
//
func MakePart(t Evaluator, delay evsim.Time) (*CustomPart, error) {
	typ := reflect.TypeOf(t)
	var tmpl reflect.Value
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		if v := reflect.ValueOf(t); !v.IsNil() {
			tmpl = v.Elem()
		}
	}
	if k := typ.Kind(); k != reflect.Struct {
		return nil, errors.Errorf("unsupported type %q for %q", k, typ.Name())
	}
	if typ.Implements(evaluatorType) {
		return nil, errors.Errorf("%s: Eval must have a pointer receiver", typ.Name())
	}

	var (
		pins   []pin
		fields []int
	)
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		p := pin{name: strings.ToLower(f.Name), width: 1}
		tv := strings.Split(tag, ",")
		switch tv[0] {
		case "in":
			p.dir = evsim.Input
		case "out":
			p.dir = evsim.Output
		default:
			return nil, errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name())
		}
		if len(tv) > 1 && tv[1] != "" {
			p.name = tv[1]
		}
		if len(tv) > 2 {
			w, err := strconv.Atoi(tv[2])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid width in tag %q for field %q in %q", tag, f.Name, typ.Name())
			}
			p.width = w
		}
		if len(tv) > 3 {
			return nil, errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name())
		}
		if f.Type != valueType {
			return nil, errors.Errorf("unsupported type %q for field %q in %q", f.Type, f.Name, typ.Name())
		}
		if !f.IsExported() {
			return nil, errors.Errorf("field %q in %q must be exported", f.Name, typ.Name())
		}
		pins = append(pins, p)
		fields = append(fields, i)
	}
	if len(pins) == 0 {
		return nil, errors.Errorf("%s: no pin", typ.Name())
	}

	eval := func(s *evsim.InstanceState) {
		v := reflect.New(typ)
		e := v.Elem()
		if tmpl.IsValid() {
			e.Set(tmpl)
		}
		for i, p := range pins {
			if p.dir == evsim.Input {
				e.Field(fields[i]).Set(reflect.ValueOf(s.Get(i)))
			}
		}
		v.Interface().(Evaluator).Eval()
		for i, p := range pins {
			if p.dir != evsim.Output {
				continue
			}
			out := e.Field(fields[i]).Interface().(evsim.Value)
			switch {
			case out == evsim.Nil:
				out = evsim.CreateUnknown(p.width)
			case out.Width() != p.width:
				out = evsim.CreateError(p.width)
			}
			s.Set(i, out)
		}
	}
	return &CustomPart{spec: partSpec{
		Kind:  strings.ToUpper(typ.Name()),
		Pins:  pins,
		Delay: delay,
		Eval:  eval,
	}}, nil
}

// Kind returns the part kind, the type name in upper case.
//
func (c *CustomPart) Kind() string { return c.spec.Kind }

// New returns a new part with the given name and connections.
//
func (c *CustomPart) New(name, conns string) (*Part, error) {
	return c.spec.newPart(name, conns)
}
