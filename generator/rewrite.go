package generator

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// rewriteFile appends the planned slots to every struct declared in file
// and returns the formatted source. It returns nil when nothing changes.
func rewriteFile(fset *token.FileSet, file *ast.File, pkgPath string, tps []*typePlan) ([]byte, error) {
	changed := false
	vptrName := importedAs(file, pkgPath)

	for _, tp := range tps {
		added := tp.added()
		if len(added) == 0 {
			continue
		}
		fields := tp.astStruct.Fields
		for _, s := range added {
			fields.List = append(fields.List, &ast.Field{
				Names: []*ast.Ident{{NamePos: fields.Closing, Name: s.field}},
				Type:  slotTypeExpr(vptrName, s.text),
			})
		}
		changed = true
	}
	if !changed {
		return nil, nil
	}

	if pkgPath != VptrPath && !hasImport(file) {
		astutil.AddImport(fset, file, VptrPath)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hasImport(file *ast.File) bool {
	for _, imp := range file.Imports {
		if imp.Path.Value == `"`+VptrPath+`"` {
			return true
		}
	}
	return false
}

// slotTypeExpr builds vptr.Slot[Cap] from fresh, position-free nodes.
func slotTypeExpr(vptrName, capability string) ast.Expr {
	var slot ast.Expr = ast.NewIdent("Slot")
	if vptrName != "" {
		slot = &ast.SelectorExpr{X: ast.NewIdent(vptrName), Sel: ast.NewIdent("Slot")}
	}

	var capExpr ast.Expr
	if qual, name, ok := strings.Cut(capability, "."); ok {
		capExpr = &ast.SelectorExpr{X: ast.NewIdent(qual), Sel: ast.NewIdent(name)}
	} else {
		capExpr = ast.NewIdent(capability)
	}

	return &ast.IndexExpr{X: slot, Index: capExpr}
}
