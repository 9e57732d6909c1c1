package generator

import (
	"bytes"
	"context"
	"go/ast"
	"go/types"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/wippyai/vptr/errors"
)

// VptrPath is the import path of the runtime package the glue targets.
const VptrPath = "github.com/wippyai/vptr"

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes

// Generator rewrites packages according to a Config.
type Generator struct {
	cfg *Config
	log *zap.Logger
}

// New creates a generator. A nil config loads "." with defaults.
func New(cfg *Config) *Generator {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	return &Generator{cfg: cfg, log: Logger()}
}

// Run loads the configured packages, validates every request and writes
// slot fields and glue. Nothing is written when any request is invalid.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	pkgs, err := g.load(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: g.cfg.DryRun}
	var errs errors.List
	matched := make(map[int]bool)

	var plans []*pkgPlan
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := g.plan(pkg, matched, &errs)
		if p == nil {
			continue
		}
		plans = append(plans, p)
		report.Warnings = append(report.Warnings, p.warnings...)
	}

	for i, t := range g.cfg.Targets {
		if !matched[i] {
			errs.Add(errors.NotFound(errors.PhaseGenerate, "target type", t.Type))
		}
	}
	if errs.Len() > 0 {
		return report, errs.Err()
	}

	for _, p := range plans {
		report.Packages = append(report.Packages, p.report(g.sizes(p.pkg)))
		if err := g.apply(p, report); err != nil {
			return report, err
		}
	}

	g.log.Info("generation complete",
		zap.Int("packages", len(report.Packages)),
		zap.Int("slots", report.SlotCount()),
		zap.Int("added", report.AddedCount()),
		zap.Int("files", len(report.Files)),
		zap.Bool("dry_run", g.cfg.DryRun))
	return report, nil
}

func (g *Generator) load(ctx context.Context) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     g.cfg.Dir,
	}

	pkgs, err := packages.Load(cfg, g.cfg.Patterns...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindIO, err, "loading packages")
	}
	if len(pkgs) == 0 {
		return nil, errors.NotFound(errors.PhaseGenerate, "packages", g.cfg.Dir)
	}

	var usable []*packages.Package
	for _, pkg := range pkgs {
		// Type errors are expected before the first run, when code already
		// calls accessors that do not exist yet.
		for _, e := range pkg.Errors {
			g.log.Warn("package error", zap.String("package", pkg.PkgPath), zap.String("error", e.Error()))
		}
		if pkg.Types == nil || len(pkg.Syntax) == 0 {
			g.log.Warn("skipping package without syntax", zap.String("package", pkg.PkgPath))
			continue
		}
		g.log.Debug("package loaded",
			zap.String("package", pkg.PkgPath),
			zap.Int("files", len(pkg.Syntax)))
		usable = append(usable, pkg)
	}
	return usable, nil
}

func (g *Generator) sizes(pkg *packages.Package) types.Sizes {
	if g.cfg.Arch != "" {
		if s := types.SizesFor("gc", g.cfg.Arch); s != nil {
			return s
		}
	}
	if pkg.TypesSizes != nil {
		return pkg.TypesSizes
	}
	return types.SizesFor("gc", runtime.GOARCH)
}

// apply writes slot fields into declaring files and regenerates the glue.
func (g *Generator) apply(p *pkgPlan, report *Report) error {
	pkg := p.pkg

	byFile := make(map[*ast.File][]*typePlan)
	var files []*ast.File
	for _, tp := range p.types {
		if _, ok := byFile[tp.file]; !ok {
			files = append(files, tp.file)
		}
		byFile[tp.file] = append(byFile[tp.file], tp)
		for _, s := range tp.slots {
			g.log.Debug("slot planned",
				zap.String("type", tp.name),
				zap.String("slot", describeSlot(s)))
		}
	}

	var dir string
	for _, file := range files {
		path := pkg.Fset.Position(file.Package).Filename
		dir = filepath.Dir(path)

		src, err := rewriteFile(pkg.Fset, file, pkg.PkgPath, byFile[file])
		if err != nil {
			return errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
				Path(path).Cause(err).Detail("printing rewritten file").Build()
		}
		if src == nil {
			continue
		}
		if err := g.write(report, path, "slots", src); err != nil {
			return err
		}
	}
	if dir == "" {
		return nil
	}

	out := filepath.Join(dir, g.cfg.OutputFor(pkg.Name))
	src, err := renderGlue(p, out)
	if err != nil || src == nil {
		return err
	}
	if old, err := os.ReadFile(out); err == nil && bytes.Equal(old, src) {
		g.log.Debug("glue unchanged", zap.String("path", out))
		return nil
	}
	return g.write(report, out, "glue", src)
}

func (g *Generator) write(report *Report, path, kind string, src []byte) error {
	change := FileChange{Path: path, Kind: kind}
	if !g.cfg.DryRun {
		mode := os.FileMode(0o644)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(path, src, mode); err != nil {
			return errors.Wrap(errors.PhaseGenerate, errors.KindIO, err, "writing "+path)
		}
		change.Written = true
		g.log.Info("file written", zap.String("path", path), zap.String("kind", kind))
	}
	report.Files = append(report.Files, change)
	sort.SliceStable(report.Files, func(i, j int) bool {
		return report.Files[i].Path < report.Files[j].Path
	})
	return nil
}
