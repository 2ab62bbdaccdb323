// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"fmt"

	"github.com/db47h/evsim"
	hl "github.com/db47h/evsim/hwlib"
)

// mux4Impl is a custom 4 bits mux.
//
type mux4Impl struct {
	A   evsim.Value `hw:"in,a,4"`   // input bus "a"
	B   evsim.Value `hw:"in,b,4"`   // input bus "b"
	S   evsim.Value `hw:"in,sel"`   // single pin, the second tag value forces the pin name to "sel"
	Out evsim.Value `hw:"out,out,4"` // output bus "out"
}

// Eval implements hl.Evaluator.
//
func (m *mux4Impl) Eval() {
	switch m.S {
	case evsim.False:
		m.Out = m.A
	case evsim.True:
		m.Out = m.B
	}
}

// MakePart example with a custom Mux4
func ExampleMakePart() {
	m4, err := hl.MakePart((*mux4Impl)(nil), 1)
	if err != nil {
		panic(err)
	}
	c := evsim.NewCircuit("mux4",
		evsim.NewInputPin("a", 4, "in_a"),
		evsim.NewInputPin("b", 4, "in_b"),
		evsim.NewInputPin("sel", 1, "in_sel"),
		hl.Must(m4.New("m4", "a=in_a, b=in_b, sel=in_sel, out=mux_out")),
		evsim.NewOutputPin("out", 4, "mux_out"),
	)
	p, err := evsim.NewPropagator(c)
	if err != nil {
		panic(err)
	}
	root := p.Root()
	run := func(a, b uint64, sel evsim.Value) {
		_ = root.SetPin("a", evsim.CreateKnown(4, a))
		_ = root.SetPin("b", evsim.CreateKnown(4, b))
		_ = root.SetPin("sel", sel)
		p.Propagate()
		out, _ := root.PinValue("out")
		fmt.Printf("a=%d, b=%d, sel=%v => out=%s\n", a, b, sel, out)
	}
	run(1, 15, evsim.False)
	run(1, 15, evsim.True)
	run(1, 15, evsim.Unknown)

	// Output:
	// a=1, b=15, sel=0 => out=0001
	// a=1, b=15, sel=1 => out=1111
	// a=1, b=15, sel=x => out=xxxx
}
