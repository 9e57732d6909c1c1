package generator

import (
	"bytes"
	"fmt"
	"go/types"
	"sort"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/wippyai/vptr/errors"
)

var glueTemplate = template.Must(template.New("glue").Parse(`// Code generated by vptrgen. DO NOT EDIT.

package {{.Package}}

import (
	"unsafe"
{{range .Imports}}
	{{if .Name}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end}}
)
{{range $t := .Types}}
var (
{{- range .Slots}}
	{{.Cell}} {{$.Qual}}Cell[{{$t.Name}}, {{.Capability}}]
{{- end}}
)
{{range .Slots}}{{if .Implemented}}
var _ {{.Capability}} = (*{{$t.Name}})(nil)
{{end}}{{end}}
{{- range .Slots}}
// {{.Accessor}} returns the {{.Capability}} slot of x, initializing it on first use.
func (x *{{$t.Name}}) {{.Accessor}}() *{{$.Qual}}Slot[{{.Capability}}] {
	if x.{{.Field}}.IsZero() {
		x.{{.Field}} = {{.Cell}}.Slot(unsafe.Offsetof(x.{{.Field}}))
	}
	return &x.{{.Field}}
}
{{end}}
// VPtrInit initializes every capability slot of x and returns x.
func (x *{{$t.Name}}) VPtrInit() *{{$t.Name}} {
{{- range .Slots}}
	x.{{.Accessor}}()
{{- end}}
	return x
}
{{end}}`))

type glueFile struct {
	Package string
	Qual    string // "vptr." or empty inside the vptr package
	Imports []glueImport
	Types   []glueType
}

type glueImport struct {
	Name string
	Path string
}

type glueType struct {
	Name  string
	Slots []glueSlot
}

type glueSlot struct {
	Field       string
	Capability  string
	Accessor    string
	Cell        string
	Implemented bool
}

// renderGlue produces the accessor file for a package.
func renderGlue(p *pkgPlan, filename string) ([]byte, error) {
	data := glueFile{Package: p.pkg.Name, Qual: "vptr."}
	if p.pkg.PkgPath == VptrPath {
		data.Qual = ""
	}

	imported := make(map[string]string) // name as written → path
	if data.Qual != "" {
		imported["vptr"] = VptrPath
	}

	for _, tp := range p.types {
		if len(tp.slots) == 0 {
			continue
		}
		gt := glueType{Name: tp.name}
		for _, s := range tp.slots {
			if s.qualifier != "" {
				path := s.capType.Obj().Pkg().Path()
				if prev, ok := imported[s.qualifier]; ok && prev != path {
					return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidCapability).
						Type(tp.name).Capability(s.text).
						Detail("qualifier %q refers to both %s and %s", s.qualifier, prev, path).Build()
				}
				if _, ok := imported[s.qualifier]; !ok {
					imported[s.qualifier] = path
					imp := glueImport{Path: path}
					if s.capType.Obj().Pkg().Name() != s.qualifier {
						imp.Name = s.qualifier
					}
					data.Imports = append(data.Imports, imp)
				}
			}
			gt.Slots = append(gt.Slots, glueSlot{
				Field:       s.field,
				Capability:  s.text,
				Accessor:    AccessorName(s.text),
				Cell:        CellName(tp.name, s.text),
				Implemented: s.implemented,
			})
		}
		data.Types = append(data.Types, gt)
	}
	if len(data.Types) == 0 {
		return nil, nil
	}

	if data.Qual != "" {
		data.Imports = append(data.Imports, glueImport{Path: VptrPath})
	}
	sort.Slice(data.Imports, func(i, j int) bool {
		return data.Imports[i].Path < data.Imports[j].Path
	})

	var buf bytes.Buffer
	if err := glueTemplate.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindIO, err, "executing glue template")
	}

	src, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
			Path(filename).Cause(err).Detail("formatting generated glue").Build()
	}
	return src, nil
}

// qualifiedName prints a capability type relative to the package being
// generated, for reports.
func qualifiedName(t *types.Named, from *types.Package) string {
	return types.TypeString(t, func(p *types.Package) string {
		if p == from {
			return ""
		}
		return p.Name()
	})
}

func describeSlot(s *slotPlan) string {
	state := "existing"
	if !s.existing {
		state = "added"
	}
	return fmt.Sprintf("%s %s (%s)", s.field, s.text, state)
}
