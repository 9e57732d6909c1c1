package vptr

import (
	"reflect"
	"unsafe"
)

// Metadata is the dispatch metadata for one (type, capability) pair: the
// signed byte offset from the object base to its slot and the capability's
// dispatch word for the type. Metadata is immutable and lives for the
// duration of the process.
type Metadata struct {
	tab        unsafe.Pointer
	typ        reflect.Type
	capability reflect.Type
	field      string
	offset     int
	size       uintptr
	align      uintptr
}

// Offset returns the distance in bytes from the object base to its slot.
func (m *Metadata) Offset() int { return m.offset }

// Dispatch returns the capability's dispatch word for the concrete type.
func (m *Metadata) Dispatch() unsafe.Pointer { return m.tab }

// Type returns the concrete struct type.
func (m *Metadata) Type() reflect.Type { return m.typ }

// Capability returns the interface type.
func (m *Metadata) Capability() reflect.Type { return m.capability }

// Field returns the name of the slot field.
func (m *Metadata) Field() string { return m.field }

// Size returns the size of the concrete type.
func (m *Metadata) Size() uintptr { return m.size }

// Align returns the alignment of the concrete type.
func (m *Metadata) Align() uintptr { return m.align }

func (m *Metadata) base(slot unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(slot, -m.offset)
}
