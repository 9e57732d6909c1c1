package vptr

import (
	"fmt"
	"unsafe"
)

type Shape interface {
	Area() float64
}

type Resizer interface {
	Resize(w, h float64)
}

// Rectangle is wired the way vptrgen wires a named-field struct.
type Rectangle struct {
	W, H float64

	vptrShape       Slot[Shape]
	vptrFmtStringer Slot[fmt.Stringer]
	vptrResizer     Slot[Resizer]
}

func (r *Rectangle) Area() float64 { return r.W * r.H }

func (r *Rectangle) String() string { return fmt.Sprintf("Rectangle(%gx%g)", r.W, r.H) }

func (r *Rectangle) Resize(w, h float64) {
	r.W = w
	r.H = h
}

var (
	cellRectangleShape       Cell[Rectangle, Shape]
	cellRectangleFmtStringer Cell[Rectangle, fmt.Stringer]
	cellRectangleResizer     Cell[Rectangle, Resizer]
)

func (x *Rectangle) VPtrShape() *Slot[Shape] {
	if x.vptrShape.IsZero() {
		x.vptrShape = cellRectangleShape.Slot(unsafe.Offsetof(x.vptrShape))
	}
	return &x.vptrShape
}

func (x *Rectangle) VPtrFmtStringer() *Slot[fmt.Stringer] {
	if x.vptrFmtStringer.IsZero() {
		x.vptrFmtStringer = cellRectangleFmtStringer.Slot(unsafe.Offsetof(x.vptrFmtStringer))
	}
	return &x.vptrFmtStringer
}

func (x *Rectangle) VPtrResizer() *Slot[Resizer] {
	if x.vptrResizer.IsZero() {
		x.vptrResizer = cellRectangleResizer.Slot(unsafe.Offsetof(x.vptrResizer))
	}
	return &x.vptrResizer
}

func (x *Rectangle) VPtrInit() *Rectangle {
	x.VPtrShape()
	x.VPtrFmtStringer()
	x.VPtrResizer()
	return x
}

type Namer interface {
	Name() string
}

// Unit has no fields of its own; its slot is positional.
type Unit struct {
	vptr0 Slot[Namer]
}

func (*Unit) Name() string { return "unit" }

var cellUnitNamer Cell[Unit, Namer]

func (x *Unit) VPtrNamer() *Slot[Namer] {
	if x.vptr0.IsZero() {
		x.vptr0 = cellUnitNamer.Slot(unsafe.Offsetof(x.vptr0))
	}
	return &x.vptr0
}

type Left struct{ A int }
type Right struct{ B int8 }

type Summer interface {
	Sum() int
}

// Pair is made only of embedded fields, the closest Go has to a tuple.
type Pair struct {
	Left
	Right
	vptr2 Slot[Summer]
}

func (p *Pair) Sum() int { return p.A + int(p.B) }

var cellPairSummer Cell[Pair, Summer]

func (x *Pair) VPtrSummer() *Slot[Summer] {
	if x.vptr2.IsZero() {
		x.vptr2 = cellPairSummer.Slot(unsafe.Offsetof(x.vptr2))
	}
	return &x.vptr2
}

// resource counts how often it was dropped.
type resource struct {
	id       int
	drops    *int
	vptrName Slot[Namer]
}

func (r *resource) Name() string { return fmt.Sprintf("resource-%d", r.id) }

func (r *resource) Drop() { *r.drops++ }

func (x *resource) VPtrNamer() *Slot[Namer] {
	if x.vptrName.IsZero() {
		x.vptrName = SlotFor[resource, Namer](unsafe.Offsetof(x.vptrName))
	}
	return &x.vptrName
}

// Invalid shapes for registrar errors.

type Celsius float64

func (c *Celsius) Area() float64 { return float64(*c) }

type noSlot struct {
	w float64
}

func (n *noSlot) Area() float64 { return n.w }

type twoSlots struct {
	a Slot[Shape]
	b Slot[Shape]
}

func (*twoSlots) Area() float64 { return 0 }

type notShape struct {
	s Slot[Shape]
}

type valueShape struct {
	w float64
}

func (v valueShape) Area() float64 { return v.w }
