package generator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/wippyai/vptr/errors"
)

// Directive is the comment prefix that requests slots on a type.
const Directive = "//vptr:embed"

// request is one type's list of capabilities, from a directive or config.
type request struct {
	spec   *ast.TypeSpec
	file   *ast.File
	pos    token.Pos
	caps   []string
	source string // "directive" or "config"
}

// scanDirectives collects //vptr:embed requests from a file.
func scanDirectives(fset *token.FileSet, file *ast.File, errs *errors.List) []*request {
	var reqs []*request
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			spec := s.(*ast.TypeSpec)
			doc := spec.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			if doc == nil {
				continue
			}
			for _, c := range doc.List {
				args, ok := cutDirective(c.Text)
				if !ok {
					continue
				}
				pos := fset.Position(c.Slash).String()
				if len(args) == 0 {
					errs.Add(errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
						Pos(pos).Type(spec.Name.Name).Detail("%s lists no capabilities", Directive).Build())
					continue
				}
				reqs = append(reqs, &request{
					spec:   spec,
					file:   file,
					pos:    c.Slash,
					caps:   args,
					source: "directive",
				})
			}
		}
	}
	return reqs
}

// cutDirective splits a directive comment into its capability arguments.
// Arguments may be separated by spaces or commas.
func cutDirective(text string) ([]string, bool) {
	rest, ok := strings.CutPrefix(text, Directive)
	if !ok {
		return nil, false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return nil, false
	}
	return strings.FieldsFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	}), true
}

// capabilityExpr parses a capability as written and checks its shape:
// an identifier or a package-qualified identifier.
func capabilityExpr(text string) (ast.Expr, string) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return nil, "malformed capability"
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e, ""
	case *ast.SelectorExpr:
		if _, ok := e.X.(*ast.Ident); ok {
			return e, ""
		}
	case *ast.IndexExpr, *ast.IndexListExpr:
		return nil, "capability must not be an instantiated generic"
	}
	return nil, "capability must be a name or a package-qualified name"
}
