package layout

import (
	"reflect"
	"sync"
)

// Info describes a computed type layout.
type Info struct {
	Fields    []Field
	FieldOffs map[string]uintptr
	Size      uintptr
	Align     uintptr
}

// Field is one struct field in declared order.
type Field struct {
	Type     reflect.Type
	Name     string
	Index    int
	Offset   uintptr
	Size     uintptr
	Align    uintptr
	Embedded bool
}

// FieldAt returns the field starting at offset with the given type.
func (i Info) FieldAt(offset uintptr, t reflect.Type) (Field, bool) {
	for _, f := range i.Fields {
		if f.Offset == offset && f.Type == t {
			return f, true
		}
	}
	return Field{}, false
}

// FieldsOfType returns all fields of type t.
func (i Info) FieldsOfType(t reflect.Type) []Field {
	var out []Field
	for _, f := range i.Fields {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

type Calculator struct {
	cache sync.Map // reflect.Type -> Info
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate returns the layout of t. Non-struct types report their size and
// alignment with no fields.
func (c *Calculator) Calculate(t reflect.Type) Info {
	if cached, ok := c.cache.Load(t); ok {
		return cached.(Info)
	}

	var info Info
	if t.Kind() == reflect.Struct {
		info = c.calculateStruct(t)
	} else {
		info = Info{Size: t.Size(), Align: uintptr(t.Align())}
	}

	actual, _ := c.cache.LoadOrStore(t, info)
	return actual.(Info)
}

func (c *Calculator) calculateStruct(t reflect.Type) Info {
	n := t.NumField()
	info := Info{
		Fields:    make([]Field, 0, n),
		FieldOffs: make(map[string]uintptr, n),
		Align:     1,
	}

	offset := uintptr(0)
	lastZero := false

	for i := 0; i < n; i++ {
		sf := t.Field(i)
		fieldLayout := c.Calculate(sf.Type)

		offset = AlignTo(offset, fieldLayout.Align)
		info.Fields = append(info.Fields, Field{
			Type:     sf.Type,
			Name:     sf.Name,
			Index:    i,
			Offset:   offset,
			Size:     fieldLayout.Size,
			Align:    fieldLayout.Align,
			Embedded: sf.Anonymous,
		})
		if sf.Name != "_" {
			info.FieldOffs[sf.Name] = offset
		}

		if fieldLayout.Align > info.Align {
			info.Align = fieldLayout.Align
		}

		offset += fieldLayout.Size
		lastZero = fieldLayout.Size == 0
	}

	if lastZero && offset > 0 {
		offset++
	}

	info.Size = AlignTo(offset, info.Align)
	return info
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align uintptr) uintptr {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
