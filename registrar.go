package vptr

import (
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/vptr/errors"
	"github.com/wippyai/vptr/internal/iface"
	"github.com/wippyai/vptr/internal/layout"
	"go.uber.org/zap"
)

// Registrar computes and caches one Metadata per (type, capability) pair.
type Registrar struct {
	layout *layout.Calculator
	cache  sync.Map // registrarKey -> *Metadata
	count  atomic.Int64
}

type registrarKey struct {
	typ        reflect.Type
	capability reflect.Type
}

var defaultRegistrar = NewRegistrar()

// NewRegistrar creates an empty registrar. Most programs use the process-wide
// registrar behind Resolve and MetadataFor; separate registrars are useful in
// tests.
func NewRegistrar() *Registrar {
	return &Registrar{
		layout: layout.NewCalculator(),
	}
}

// DefaultRegistrar returns the process-wide registrar.
func DefaultRegistrar() *Registrar {
	return defaultRegistrar
}

// Lookup returns the published metadata for (t, c) without computing it.
func (r *Registrar) Lookup(t, c reflect.Type) (*Metadata, bool) {
	m, ok := r.cache.Load(registrarKey{typ: t, capability: c})
	if !ok {
		return nil, false
	}
	return m.(*Metadata), true
}

// Len returns the number of published pairs.
func (r *Registrar) Len() int {
	return int(r.count.Load())
}

// Range calls fn for every published metadata until fn returns false.
func (r *Registrar) Range(fn func(*Metadata) bool) {
	r.cache.Range(func(_, v any) bool {
		return fn(v.(*Metadata))
	})
}

// publish stores m unless another goroutine got there first, and returns the
// stored value. Racing computations produce identical metadata, so dropping
// the loser is safe.
func (r *Registrar) publish(m *Metadata) *Metadata {
	actual, loaded := r.cache.LoadOrStore(registrarKey{typ: m.typ, capability: m.capability}, m)
	if !loaded {
		r.count.Add(1)
		Logger().Debug("dispatch metadata registered",
			zap.Stringer("type", m.typ),
			zap.Stringer("capability", m.capability),
			zap.String("field", m.field),
			zap.Int("offset", m.offset))
	}
	return actual.(*Metadata)
}

// Resolve returns the metadata for (T, C) in the default registrar, computing
// it on first use. offset is the slot offset, normally
// unsafe.Offsetof(T{}.slot).
func Resolve[T, C any](offset uintptr) (*Metadata, error) {
	return ResolveIn[T, C](defaultRegistrar, offset)
}

// ResolveIn is Resolve against a specific registrar.
func ResolveIn[T, C any](r *Registrar, offset uintptr) (*Metadata, error) {
	typ := reflect.TypeFor[T]()
	capT := reflect.TypeFor[C]()

	if m, ok := r.Lookup(typ, capT); ok {
		if uintptr(m.offset) != offset {
			return nil, errors.OffsetMismatch(errors.PhaseProbe, typ.String(), capT.String(), offset, uintptr(m.offset))
		}
		return m, nil
	}

	m, err := probe[T, C](r, typ, capT, offset, true)
	if err != nil {
		return nil, err
	}
	return r.publish(m), nil
}

// MetadataFor is like Resolve but panics if the pair is invalid. Generated
// code uses it because the generator has already validated the pair.
func MetadataFor[T, C any](offset uintptr) *Metadata {
	m, err := Resolve[T, C](offset)
	if err != nil {
		panic(err)
	}
	return m
}

// Probe resolves (T, C) in the default registrar by locating T's unique
// Slot[C] field through reflection.
func Probe[T, C any]() (*Metadata, error) {
	return ProbeIn[T, C](defaultRegistrar)
}

// ProbeIn is Probe against a specific registrar.
func ProbeIn[T, C any](r *Registrar) (*Metadata, error) {
	typ := reflect.TypeFor[T]()
	capT := reflect.TypeFor[C]()

	if m, ok := r.Lookup(typ, capT); ok {
		return m, nil
	}

	m, err := probe[T, C](r, typ, capT, 0, false)
	if err != nil {
		return nil, err
	}
	return r.publish(m), nil
}

func probe[T, C any](r *Registrar, typ, capT reflect.Type, offset uintptr, explicit bool) (*Metadata, error) {
	if !iface.IsType(capT) {
		return nil, errors.NotInterface(errors.PhaseProbe, capT.String())
	}
	if typ.Kind() != reflect.Struct {
		return nil, errors.NotStruct(errors.PhaseProbe, typ.String())
	}

	tab, ok := iface.Dispatch[T, C]()
	if !ok {
		return nil, errors.NotImplemented(errors.PhaseProbe, "*"+typ.String(), capT.String())
	}

	return r.compute(typ, capT, reflect.TypeFor[Slot[C]](), tab, offset, explicit)
}

// compute derives the slot offset from the declared layout of typ. It only
// inspects type information; no instance of typ is read.
func (r *Registrar) compute(typ, capT, slotType reflect.Type, tab unsafe.Pointer, offset uintptr, explicit bool) (*Metadata, error) {
	info := r.layout.Calculate(typ)

	fields := info.FieldsOfType(slotType)
	switch len(fields) {
	case 0:
		return nil, errors.MissingSlot(errors.PhaseProbe, typ.String(), capT.String())
	case 1:
	default:
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		return nil, errors.DuplicateSlot(errors.PhaseProbe, typ.String(), capT.String(), names...)
	}

	field := fields[0]
	if explicit && field.Offset != offset {
		return nil, errors.OffsetMismatch(errors.PhaseProbe, typ.String(), capT.String(), offset, field.Offset)
	}
	if actual := typ.Field(field.Index).Offset; actual != field.Offset {
		return nil, errors.New(errors.PhaseProbe, errors.KindOffsetMismatch).
			Type(typ.String()).
			Capability(capT.String()).
			Path(typ.Name(), field.Name).
			Detail("computed offset %d disagrees with compiler offset %d", field.Offset, actual).
			Build()
	}

	return &Metadata{
		tab:        tab,
		typ:        typ,
		capability: capT,
		field:      field.Name,
		offset:     int(field.Offset),
		size:       info.Size,
		align:      info.Align,
	}, nil
}

// Cell holds the metadata for one (T, C) pair so repeated lookups skip the
// registrar. Generated code declares one package-level Cell per pair.
type Cell[T, C any] struct {
	m atomic.Pointer[Metadata]
}

// Metadata returns the pair's metadata, resolving it on first use.
func (c *Cell[T, C]) Metadata(offset uintptr) *Metadata {
	if m := c.m.Load(); m != nil {
		return m
	}
	c.m.CompareAndSwap(nil, MetadataFor[T, C](offset))
	return c.m.Load()
}

// Slot returns an initialized slot value for the pair.
func (c *Cell[T, C]) Slot(offset uintptr) Slot[C] {
	return Slot[C]{meta: c.Metadata(offset)}
}
