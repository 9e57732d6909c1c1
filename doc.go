// Package vptr provides one-word references to interface-typed objects.
//
// A Go interface value is two words: a dispatch word (the runtime itab) and
// a data pointer. vptr stores the dispatch word inside the object itself, in
// a hidden Slot field, so that a reference only needs the slot's address.
// The object's base address is recovered by subtracting the slot offset on
// every access:
//
//	object T                          Ref[C] (one word)
//	┌───────────────────┐              │
//	│ W, H float64      │              │
//	│ vptrShape ────────┼─► Metadata   │
//	│   Slot[Shape]  ◄──┼──────────────┘
//	└───────────────────┘   {offset, dispatch word}
//
//	base = &slot - offset
//	C    = {dispatch word, base}
//
// # Architecture Overview
//
//	vptr/                Slot, Ref, Mut, PinnedRef, Box, Registrar
//	├── table/           Dense handle table of thin owning boxes
//	├── generator/       Adds slots and accessor glue to struct declarations
//	├── cmd/vptrgen/     Generator command line
//	├── errors/          Structured error types
//	└── internal/
//	    ├── iface/       Split and merge of interface words
//	    └── layout/      Declared-order struct layout calculation
//
// # Declaring Slots
//
// Annotate a struct and run vptrgen:
//
//	//vptr:embed Shape fmt.Stringer
//	type Rectangle struct {
//		W, H float64
//	}
//
// The generator appends one Slot field per capability and writes accessors:
//
//	type Rectangle struct {
//		W, H            float64
//		vptrShape       vptr.Slot[Shape]
//		vptrFmtStringer vptr.Slot[fmt.Stringer]
//	}
//
//	func (x *Rectangle) VPtrShape() *vptr.Slot[Shape]
//	func (x *Rectangle) VPtrFmtStringer() *vptr.Slot[fmt.Stringer]
//	func (x *Rectangle) VPtrInit() *Rectangle
//
// Types can also be wired by hand: add a Slot[C] field and call Probe or
// SlotFor with unsafe.Offsetof of that field.
//
// # References
//
//	r := vptr.NewRef(rect.VPtrShape())      // Ref[Shape], copyable
//	r.Get().Area()
//
//	m := vptr.NewMut(rect.VPtrShape())      // Mut[Shape], exclusive
//	m.Get().Scale(2)
//
//	b := vptr.NewBox(rect.VPtrShape())      // Box[Shape], owning
//	defer b.Drop()
//
// Ref, Mut, PinnedRef and Box are each exactly one pointer wide. The zero
// Ref is the absent reference.
//
// # Dispatch Metadata
//
// Metadata for a (type, capability) pair is computed once by the Registrar
// and never freed. The dispatch word is obtained by converting a nil *T to
// the capability; the nil pointer is never dereferenced. The offset comes
// from unsafe.Offsetof in generated code and is checked against reflect.
//
// # Thread Safety
//
// Registrar, Cell and Metadata are safe for concurrent use. Concurrent first
// use of a pair may compute metadata twice; the first published value wins.
// Ref and Mut follow the aliasing rules of the object they point into. Slot
// accessors initialize a zero slot in place, so objects shared between
// goroutines should call VPtrInit when constructed.
//
// # Contract
//
// A slot address must come from a live object of the type the slot's
// metadata was computed for. Generated accessors guarantee this; building a
// Ref from any other *Slot is undefined behavior. Dereferencing a zero slot
// panics with an errors.KindNotInitialized error.
package vptr
