package vptr

import (
	"runtime"
	"unsafe"
)

// Pinned marks an object whose address must not change, for example while it
// is shared with C code. The object is pinned with runtime.Pinner until
// Unpin.
type Pinned[T any] struct {
	ptr    *T
	pinner runtime.Pinner
}

// Pin pins x. x must point to Go-allocated memory.
func Pin[T any](x *T) *Pinned[T] {
	p := &Pinned[T]{ptr: x}
	p.pinner.Pin(x)
	return p
}

// Pointer returns the pinned object.
func (p *Pinned[T]) Pointer() *T {
	return p.ptr
}

// Unpin releases the pin. References created from p must not be used
// afterwards.
func (p *Pinned[T]) Unpin() {
	p.pinner.Unpin()
	p.ptr = nil
}

// PinnedRef is a one-word reference into a pinned object.
type PinnedRef[C any] struct {
	slot *Slot[C]
}

// PinnedRefOf returns a reference into the pinned object. The slot address is
// taken straight from the pinned pointer; no interface value is built.
func PinnedRefOf[T, C any](p *Pinned[T], slot func(*T) *Slot[C]) PinnedRef[C] {
	if p == nil || p.ptr == nil {
		return PinnedRef[C]{}
	}
	return PinnedRef[C]{slot: slot(p.ptr)}
}

// IsNil reports whether r is the absent reference.
func (r PinnedRef[C]) IsNil() bool {
	return r.slot == nil
}

// Get rebuilds the full interface value.
func (r PinnedRef[C]) Get() C {
	if r.slot == nil {
		var zero C
		return zero
	}
	return load(r.slot)
}

// Base returns the fixed address of the referenced object.
func (r PinnedRef[C]) Base() unsafe.Pointer {
	return base(r.slot)
}
