package iface

import (
	"reflect"
	"unsafe"
)

// words mirrors runtime.iface and runtime.eface.
type words struct {
	tab  unsafe.Pointer
	data unsafe.Pointer
}

func init() {
	var e any
	var i interface{ M() }
	if unsafe.Sizeof(e) != unsafe.Sizeof(words{}) || unsafe.Sizeof(i) != unsafe.Sizeof(words{}) {
		panic("vptr: unsupported interface layout")
	}
}

// Is reports whether C is an interface type.
func Is[C any]() bool {
	return IsType(reflect.TypeFor[C]())
}

// IsType reports whether t is an interface type.
func IsType(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Interface
}

// Tab returns the dispatch word of *v.
func Tab[C any](v *C) unsafe.Pointer {
	return (*words)(unsafe.Pointer(v)).tab
}

// Data returns the data word of *v.
func Data[C any](v *C) unsafe.Pointer {
	return (*words)(unsafe.Pointer(v)).data
}

// Split returns both words of v.
func Split[C any](v C) (tab, data unsafe.Pointer) {
	w := (*words)(unsafe.Pointer(&v))
	return w.tab, w.data
}

// Make assembles an interface value from a dispatch word and a data pointer.
func Make[C any](tab, data unsafe.Pointer) C {
	var c C
	w := (*words)(unsafe.Pointer(&c))
	w.tab = tab
	w.data = data
	return c
}

// Dispatch converts a nil *T to C and returns the resulting dispatch word.
// The nil pointer is never dereferenced. ok is false when *T does not
// implement C.
func Dispatch[T, C any]() (tab unsafe.Pointer, ok bool) {
	var p *T
	c, ok := any(p).(C)
	if !ok {
		return nil, false
	}
	return Tab(&c), true
}
