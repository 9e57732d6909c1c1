package vptr

import "unsafe"

// Ref is a one-word shared reference to an object through its Slot[C].
// The zero Ref is nil. Ref may be copied freely; it owns nothing and is valid
// as long as the object it points into.
type Ref[C any] struct {
	slot *Slot[C]
}

// NewRef returns a reference to the object that contains s. s must be
// obtained from the object's slot accessor.
func NewRef[C any](s *Slot[C]) Ref[C] {
	return Ref[C]{slot: s}
}

// RefOf returns a reference to x using a slot accessor, typically a method
// expression such as (*Rectangle).VPtrShape. A nil x yields a nil Ref.
func RefOf[T, C any](x *T, slot func(*T) *Slot[C]) Ref[C] {
	if x == nil {
		return Ref[C]{}
	}
	return Ref[C]{slot: slot(x)}
}

// RefFrom converts a full interface value to a thin reference. The dynamic
// value must be a pointer to a struct carrying a Slot[C]. A zero slot is
// initialized atomically, so RefFrom may be called concurrently on the same
// object. The generated accessors initialize without synchronization; call
// VPtrInit before sharing an object that is reached through them.
func RefFrom[C any](v C) (Ref[C], error) {
	s, err := slotOf(defaultRegistrar, v)
	if err != nil {
		return Ref[C]{}, err
	}
	return Ref[C]{slot: s}, nil
}

// IsNil reports whether r is the absent reference.
func (r Ref[C]) IsNil() bool {
	return r.slot == nil
}

// Get rebuilds the full interface value. Get on a nil Ref returns the zero C.
func (r Ref[C]) Get() C {
	if r.slot == nil {
		var zero C
		return zero
	}
	return load(r.slot)
}

// Base returns the address of the referenced object.
func (r Ref[C]) Base() unsafe.Pointer {
	return base(r.slot)
}

// Slot returns the slot address r wraps.
func (r Ref[C]) Slot() *Slot[C] {
	return r.slot
}

// Metadata returns the dispatch metadata of the referenced object.
func (r Ref[C]) Metadata() *Metadata {
	if r.slot == nil {
		return nil
	}
	return r.slot.meta
}

// Mut is a one-word exclusive reference. It must not be copied; go vet
// reports copies. While a Mut is live no other reference to the object
// should be used.
type Mut[C any] struct {
	_    noCopy
	slot *Slot[C]
}

// NewMut returns an exclusive reference to the object that contains s.
func NewMut[C any](s *Slot[C]) Mut[C] {
	return Mut[C]{slot: s}
}

// MutOf returns an exclusive reference to x using a slot accessor.
func MutOf[T, C any](x *T, slot func(*T) *Slot[C]) Mut[C] {
	if x == nil {
		return Mut[C]{}
	}
	return Mut[C]{slot: slot(x)}
}

// IsNil reports whether m is empty.
func (m *Mut[C]) IsNil() bool {
	return m.slot == nil
}

// Get rebuilds the full interface value.
func (m *Mut[C]) Get() C {
	if m.slot == nil {
		var zero C
		return zero
	}
	return load(m.slot)
}

// Ref returns a shared reference to the same object.
func (m *Mut[C]) Ref() Ref[C] {
	return Ref[C]{slot: m.slot}
}

// Base returns the address of the referenced object.
func (m *Mut[C]) Base() unsafe.Pointer {
	return base(m.slot)
}
