package generator

import (
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/wippyai/vptr/errors"
)

// pkgPlan is the validated set of slot requests for one package.
type pkgPlan struct {
	pkg      *packages.Package
	types    []*typePlan
	cells    map[string]string // cell variable → owning type and capability
	warnings []string
}

// typePlan is one struct type and the slots it should carry.
type typePlan struct {
	name       string
	pos        token.Pos
	spec       *ast.TypeSpec
	file       *ast.File
	astStruct  *ast.StructType
	obj        *types.TypeName
	positional bool
	fields     int // declared fields, counting planned slots
	slots      []*slotPlan
}

// slotPlan is one capability slot, existing or to be added.
type slotPlan struct {
	text        string // capability as written
	qualifier   string // package name as written, empty for local names
	field       string
	capType     *types.Named
	source      string
	implemented bool
	existing    bool
}

func (t *typePlan) added() []*slotPlan {
	var out []*slotPlan
	for _, s := range t.slots {
		if !s.existing {
			out = append(out, s)
		}
	}
	return out
}

// requests collects directive and config requests for a package. Config
// targets found here are marked in matched.
func (g *Generator) requests(pkg *packages.Package, matched map[int]bool, errs *errors.List) []*request {
	var reqs []*request
	for _, file := range pkg.Syntax {
		reqs = append(reqs, scanDirectives(pkg.Fset, file, errs)...)
	}
	for i, t := range g.cfg.Targets {
		name, ok := targetName(t.Type, pkg.PkgPath)
		if !ok {
			continue
		}
		spec, file := findTypeSpec(pkg.Syntax, name)
		if spec == nil {
			continue
		}
		matched[i] = true
		reqs = append(reqs, &request{
			spec:   spec,
			file:   file,
			pos:    spec.Pos(),
			caps:   t.Capabilities,
			source: "config",
		})
	}
	return reqs
}

// targetName matches a config target against a package path. Unqualified
// names match every package.
func targetName(target, pkgPath string) (string, bool) {
	i := strings.LastIndex(target, ".")
	if i < 0 {
		return target, true
	}
	if target[:i] != pkgPath {
		return "", false
	}
	return target[i+1:], true
}

func findTypeSpec(files []*ast.File, name string) (*ast.TypeSpec, *ast.File) {
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, s := range gen.Specs {
				if spec := s.(*ast.TypeSpec); spec.Name.Name == name {
					return spec, file
				}
			}
		}
	}
	return nil, nil
}

// plan validates every request in a package. It returns nil when the
// package requests nothing.
func (g *Generator) plan(pkg *packages.Package, matched map[int]bool, errs *errors.List) *pkgPlan {
	reqs := g.requests(pkg, matched, errs)
	if len(reqs) == 0 {
		return nil
	}

	p := &pkgPlan{pkg: pkg, cells: make(map[string]string)}
	bySpec := make(map[*ast.TypeSpec]*typePlan)
	for _, req := range reqs {
		tp, ok := bySpec[req.spec]
		if !ok {
			tp = g.planType(pkg, req, errs)
			bySpec[req.spec] = tp
			if tp != nil {
				p.types = append(p.types, tp)
			}
		}
		if tp == nil {
			continue
		}
		for _, text := range req.caps {
			g.planSlot(p, tp, req, text, errs)
		}
	}
	return p
}

func (g *Generator) planType(pkg *packages.Package, req *request, errs *errors.List) *typePlan {
	pos := pkg.Fset.Position(req.pos).String()
	name := req.spec.Name.Name

	if req.spec.TypeParams != nil && req.spec.TypeParams.NumFields() > 0 {
		errs.Add(errors.GenericType(pos, name))
		return nil
	}
	st, ok := req.spec.Type.(*ast.StructType)
	if !ok || req.spec.Assign.IsValid() {
		errs.Add(errors.New(errors.PhaseGenerate, errors.KindNotStruct).
			Pos(pos).Type(name).Detail("only struct types can embed capabilities").Build())
		return nil
	}
	obj, _ := pkg.Types.Scope().Lookup(name).(*types.TypeName)
	if obj == nil {
		errs.Add(errors.New(errors.PhaseGenerate, errors.KindNotFound).
			Pos(pos).Type(name).Detail("type is not declared at package level").Build())
		return nil
	}

	if at, ok := g.declaredMember(pkg, obj, "VPtrInit"); ok {
		errs.Add(errors.NameConflict(pos, name, "", "VPtrInit", at))
		return nil
	}

	tp := &typePlan{
		name:       name,
		pos:        req.spec.Pos(),
		spec:       req.spec,
		file:       req.file,
		astStruct:  st,
		obj:        obj,
		positional: true,
	}
	vptrName := importedAs(req.file, pkg.PkgPath)
	for _, f := range st.Fields.List {
		n := max(len(f.Names), 1)
		tp.fields += n
		if len(f.Names) > 0 && !isSlotExpr(f.Type, vptrName) {
			tp.positional = false
		}
	}
	return tp
}

func (g *Generator) planSlot(p *pkgPlan, tp *typePlan, req *request, text string, errs *errors.List) {
	pkg := p.pkg
	pos := pkg.Fset.Position(req.pos).String()

	expr, msg := capabilityExpr(text)
	if expr == nil {
		errs.Add(errors.InvalidCapability(pos, tp.name, text, msg))
		return
	}
	capType, msg := resolveCapability(pkg, tp.pos, text)
	if capType == nil {
		errs.Add(errors.InvalidCapability(pos, tp.name, text, msg))
		return
	}

	for _, s := range tp.slots {
		if !types.Identical(s.capType, capType) {
			continue
		}
		if s.source == req.source {
			errs.Add(errors.DuplicateCapability(pos, tp.name, text))
		} else {
			g.log.Debug("capability requested by directive and config",
				zap.String("type", tp.name), zap.String("capability", text))
		}
		return
	}

	slot := &slotPlan{
		text:        text,
		capType:     capType,
		source:      req.source,
		implemented: types.Implements(types.NewPointer(tp.obj.Type()), capType.Underlying().(*types.Interface)),
	}
	if sel, ok := expr.(*ast.SelectorExpr); ok {
		slot.qualifier = sel.X.(*ast.Ident).Name
	}

	accessor := AccessorName(text)
	if at, ok := g.declaredMember(pkg, tp.obj, accessor); ok {
		errs.Add(errors.NameConflict(pos, tp.name, text, accessor, at))
		return
	}
	for _, s := range tp.slots {
		if AccessorName(s.text) == accessor {
			errs.Add(errors.NameConflict(pos, tp.name, text, accessor, "capability "+s.text))
			return
		}
	}
	cell := CellName(tp.name, text)
	if obj := pkg.Types.Scope().Lookup(cell); obj != nil {
		if at, ok := g.declaredOutsideGlue(pkg, obj); ok {
			errs.Add(errors.NameConflict(pos, tp.name, text, cell, at))
			return
		}
	}
	if owner, ok := p.cells[cell]; ok {
		errs.Add(errors.NameConflict(pos, tp.name, text, cell, owner))
		return
	}

	if field := existingSlot(pkg, tp, capType); field != "" {
		slot.field = field
		slot.existing = true
	} else {
		if tp.positional {
			slot.field = PositionalFieldName(tp.fields)
		} else {
			slot.field = SlotFieldName(text)
		}
		if o, _, _ := types.LookupFieldOrMethod(tp.obj.Type(), true, pkg.Types, slot.field); o != nil {
			errs.Add(errors.New(errors.PhaseGenerate, errors.KindDuplicateSlot).
				Pos(pos).Type(tp.name).Capability(text).
				Detail("slot field name %q is already in use", slot.field).Build())
			return
		}
		for _, s := range tp.slots {
			if s.field == slot.field {
				errs.Add(errors.New(errors.PhaseGenerate, errors.KindDuplicateSlot).
					Pos(pos).Type(tp.name).Capability(text).
					Detail("slot field name %q collides with capability %s", slot.field, s.text).Build())
				return
			}
		}
		tp.fields++
	}

	if !slot.implemented {
		e := errors.New(errors.PhaseGenerate, errors.KindNotImplemented).
			Pos(pos).Type(tp.name).Capability(text).
			Detail("*%s does not implement %s", tp.name, text).Build()
		if g.cfg.Strict {
			errs.Add(e)
			return
		}
		p.warnings = append(p.warnings, e.Error())
		g.log.Warn("capability not implemented",
			zap.String("type", tp.name), zap.String("capability", text), zap.String("pos", pos))
	}

	p.cells[cell] = tp.name + " " + text
	tp.slots = append(tp.slots, slot)
}

// declaredMember reports where a field or method called name is declared
// directly on the type. Promoted members are shadowed by the generated
// method and do not count; neither do the methods of an earlier run.
func (g *Generator) declaredMember(pkg *packages.Package, obj *types.TypeName, name string) (string, bool) {
	o, index, _ := types.LookupFieldOrMethod(obj.Type(), true, pkg.Types, name)
	if o == nil || len(index) != 1 {
		return "", false
	}
	return g.declaredOutsideGlue(pkg, o)
}

// declaredOutsideGlue returns the position of obj unless it lives in the
// package's generated glue file, which every run rewrites wholesale.
func (g *Generator) declaredOutsideGlue(pkg *packages.Package, obj types.Object) (string, bool) {
	at := pkg.Fset.Position(obj.Pos())
	if filepath.Base(at.Filename) == g.cfg.OutputFor(pkg.Name) {
		return "", false
	}
	return at.String(), true
}

// resolveCapability evaluates a capability in the declaring file's scope
// and checks that it is a named, non-generic, method-set interface.
func resolveCapability(pkg *packages.Package, pos token.Pos, text string) (*types.Named, string) {
	tv, err := types.Eval(pkg.Fset, pkg.Types, pos, text)
	if err != nil {
		return nil, err.Error()
	}
	if !tv.IsType() {
		return nil, "capability is not a type"
	}
	named, ok := types.Unalias(tv.Type).(*types.Named)
	if !ok {
		return nil, "capability must be a named interface"
	}
	if named.TypeParams().Len() > 0 || named.TypeArgs().Len() > 0 {
		return nil, "capability must not be generic"
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil, "capability is not an interface"
	}
	if !iface.IsMethodSet() {
		return nil, "constraint interfaces cannot be embedded"
	}
	return named, ""
}

// existingSlot finds a slot field already declared for the capability.
// Slots are matched syntactically so that a package whose vptr import does
// not resolve still round-trips.
func existingSlot(pkg *packages.Package, tp *typePlan, capType *types.Named) string {
	vptrName := importedAs(tp.file, pkg.PkgPath)
	for _, f := range tp.astStruct.Fields.List {
		if len(f.Names) != 1 || !isSlotExpr(f.Type, vptrName) {
			continue
		}
		arg := types.ExprString(f.Type.(*ast.IndexExpr).Index)
		tv, err := types.Eval(pkg.Fset, pkg.Types, tp.pos, arg)
		if err != nil || !tv.IsType() {
			continue
		}
		if types.Identical(types.Unalias(tv.Type), capType) {
			return f.Names[0].Name
		}
	}
	return ""
}

// isSlotExpr reports whether expr spells vptr.Slot[X].
func isSlotExpr(expr ast.Expr, vptrName string) bool {
	idx, ok := expr.(*ast.IndexExpr)
	if !ok {
		return false
	}
	switch x := idx.X.(type) {
	case *ast.SelectorExpr:
		pkgIdent, ok := x.X.(*ast.Ident)
		return ok && vptrName != "" && pkgIdent.Name == vptrName && x.Sel.Name == "Slot"
	case *ast.Ident:
		return vptrName == "" && x.Name == "Slot"
	}
	return false
}

// importedAs returns the name under which file refers to the vptr package:
// "" inside the package itself, "vptr" when it is not imported yet.
func importedAs(file *ast.File, pkgPath string) string {
	if pkgPath == VptrPath {
		return ""
	}
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != VptrPath {
			continue
		}
		if imp.Name != nil && imp.Name.Name != "_" {
			if imp.Name.Name == "." {
				return ""
			}
			return imp.Name.Name
		}
		return "vptr"
	}
	return "vptr"
}
