package vptr

import (
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/vptr/errors"
	"github.com/wippyai/vptr/internal/iface"
)

// Slot is the hidden field a type carries for each capability it embeds. It
// holds a pointer to the pair's Metadata and is exactly one word wide. The
// zero Slot is uninitialized.
type Slot[C any] struct {
	meta *Metadata
}

// SlotFor returns an initialized slot for (T, C). offset is
// unsafe.Offsetof of the slot field inside T.
func SlotFor[T, C any](offset uintptr) Slot[C] {
	return Slot[C]{meta: MetadataFor[T, C](offset)}
}

// IsZero reports whether the slot has not been initialized.
func (s *Slot[C]) IsZero() bool {
	return s.meta == nil
}

// Metadata returns the slot's metadata, or nil for a zero slot.
func (s *Slot[C]) Metadata() *Metadata {
	return s.meta
}

// load rebuilds the full interface value from the slot address.
func load[C any](s *Slot[C]) C {
	m := s.meta
	if m == nil {
		panic(errors.NotInitialized(errors.PhaseRuntime, reflect.TypeFor[C]().String()))
	}
	return iface.Make[C](m.tab, m.base(unsafe.Pointer(s)))
}

func base[C any](s *Slot[C]) unsafe.Pointer {
	if s == nil || s.meta == nil {
		return nil
	}
	return s.meta.base(unsafe.Pointer(s))
}

// slotOf finds the slot of the object held by v, resolving the pair from v's
// dynamic type. The dynamic type must be a non-nil pointer to a struct that
// carries a Slot[C]. A zero slot is initialized in place with a
// compare-and-swap, so concurrent callers on the same object agree on it.
func slotOf[C any](r *Registrar, v C) (*Slot[C], error) {
	capT := reflect.TypeFor[C]()
	if !iface.IsType(capT) {
		return nil, errors.NotInterface(errors.PhaseRuntime, capT.String())
	}

	dyn := reflect.TypeOf(any(v))
	if dyn == nil {
		return nil, errors.NilPointer(errors.PhaseRuntime, nil, capT.String())
	}
	if dyn.Kind() != reflect.Pointer || dyn.Elem().Kind() != reflect.Struct {
		return nil, errors.New(errors.PhaseRuntime, errors.KindUnsupported).
			Type(dyn.String()).
			Capability(capT.String()).
			Detail("dynamic type must be a pointer to a struct").
			Build()
	}

	tab, data := iface.Split(v)
	if data == nil {
		return nil, errors.NilPointer(errors.PhaseRuntime, nil, dyn.String())
	}

	typ := dyn.Elem()
	m, ok := r.Lookup(typ, capT)
	if !ok {
		computed, err := r.compute(typ, capT, reflect.TypeFor[Slot[C]](), tab, 0, false)
		if err != nil {
			return nil, err
		}
		m = r.publish(computed)
	}

	s := (*Slot[C])(unsafe.Add(data, m.offset))
	p := (*unsafe.Pointer)(unsafe.Pointer(&s.meta))
	if atomic.LoadPointer(p) == nil {
		atomic.CompareAndSwapPointer(p, nil, unsafe.Pointer(m))
	}
	return s, nil
}
