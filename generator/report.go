package generator

import (
	"fmt"
	"go/token"
	"go/types"
	"io"
	"strings"
)

// Report describes what a run found and changed.
type Report struct {
	Packages []PackageReport
	Files    []FileChange
	Warnings []string
	DryRun   bool
}

// PackageReport lists the wired types of one package.
type PackageReport struct {
	Path  string
	Name  string
	Types []TypeReport
}

// TypeReport is a struct's layout after slots are added.
type TypeReport struct {
	Name       string
	Pos        string
	Size       int64
	Align      int64
	Slots      []SlotReport
	Positional bool
}

// SlotReport is one capability slot.
type SlotReport struct {
	Field       string
	Capability  string
	Offset      int64
	Added       bool
	Implemented bool
}

// FileChange is a file the run wrote, or would write in dry-run mode.
type FileChange struct {
	Path    string
	Kind    string // "slots" or "glue"
	Written bool
}

// SlotCount returns the number of slots across all packages.
func (r *Report) SlotCount() int {
	n := 0
	for _, p := range r.Packages {
		for _, t := range p.Types {
			n += len(t.Slots)
		}
	}
	return n
}

// AddedCount returns the number of slots the run added.
func (r *Report) AddedCount() int {
	n := 0
	for _, p := range r.Packages {
		for _, t := range p.Types {
			for _, s := range t.Slots {
				if s.Added {
					n++
				}
			}
		}
	}
	return n
}

// WriteText prints a plain report.
func (r *Report) WriteText(w io.Writer) {
	for _, p := range r.Packages {
		fmt.Fprintf(w, "package %s (%s)\n", p.Name, p.Path)
		for _, t := range p.Types {
			fmt.Fprintf(w, "  %s size=%d align=%d\n", t.Name, t.Size, t.Align)
			for _, s := range t.Slots {
				mark := " "
				if s.Added {
					mark = "+"
				}
				fmt.Fprintf(w, "   %s %-24s %-24s offset=%d\n", mark, s.Field, s.Capability, s.Offset)
			}
		}
	}
	for _, f := range r.Files {
		verb := "wrote"
		if !f.Written {
			verb = "would write"
		}
		fmt.Fprintf(w, "%s %s\n", verb, f.Path)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

// report computes layouts with the given size model. Slot fields are
// sized as pointers since their type may not resolve before the first run.
func (p *pkgPlan) report(sizes types.Sizes) PackageReport {
	pr := PackageReport{Path: p.pkg.PkgPath, Name: p.pkg.Name}
	for _, tp := range p.types {
		if len(tp.slots) == 0 {
			continue
		}
		pr.Types = append(pr.Types, tp.report(p.pkg.Fset, p.pkg.Types, sizes))
	}
	return pr
}

func (tp *typePlan) report(fset *token.FileSet, pkg *types.Package, sizes types.Sizes) TypeReport {
	tr := TypeReport{
		Name:       tp.name,
		Pos:        fset.Position(tp.pos).String(),
		Positional: tp.positional,
	}

	slotFields := make(map[string]bool)
	for _, s := range tp.slots {
		slotFields[s.field] = true
	}
	word := types.Typ[types.UnsafePointer]

	var vars []*types.Var
	if st, ok := tp.obj.Type().Underlying().(*types.Struct); ok {
		for i := range st.NumFields() {
			f := st.Field(i)
			if slotFields[f.Name()] {
				f = types.NewField(token.NoPos, pkg, f.Name(), word, false)
			}
			vars = append(vars, f)
		}
	}
	for _, s := range tp.added() {
		vars = append(vars, types.NewField(token.NoPos, pkg, s.field, word, false))
	}

	offsets := sizes.Offsetsof(vars)
	st := types.NewStruct(vars, nil)
	tr.Size = sizes.Sizeof(st)
	tr.Align = sizes.Alignof(st)

	for _, s := range tp.slots {
		sr := SlotReport{
			Field:       s.field,
			Capability:  qualifiedName(s.capType, pkg),
			Added:       !s.existing,
			Implemented: s.implemented,
		}
		for i, v := range vars {
			if v.Name() == s.field {
				sr.Offset = offsets[i]
				break
			}
		}
		tr.Slots = append(tr.Slots, sr)
	}
	return tr
}

func (r *Report) String() string {
	var b strings.Builder
	r.WriteText(&b)
	return b.String()
}
