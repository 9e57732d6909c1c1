package vptr

import (
	"fmt"
	"sort"
)

// Description is a printable summary of one Metadata.
type Description struct {
	Type       string
	Capability string
	Field      string
	Methods    []string
	Offset     int
	Size       uintptr
	Align      uintptr
}

func (d Description) String() string {
	return fmt.Sprintf("%s as %s: slot %s at +%d (size %d, align %d)",
		d.Type, d.Capability, d.Field, d.Offset, d.Size, d.Align)
}

// Describe summarizes m.
func (m *Metadata) Describe() Description {
	d := Description{
		Type:       m.typ.String(),
		Capability: m.capability.String(),
		Field:      m.field,
		Offset:     m.offset,
		Size:       m.size,
		Align:      m.align,
	}
	for i := 0; i < m.capability.NumMethod(); i++ {
		d.Methods = append(d.Methods, m.capability.Method(i).Name)
	}
	return d
}

// Snapshot describes every published pair, sorted by type then capability.
func (r *Registrar) Snapshot() []Description {
	var out []Description
	r.Range(func(m *Metadata) bool {
		out = append(out, m.Describe())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Capability < out[j].Capability
	})
	return out
}
