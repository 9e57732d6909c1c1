package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/vptr"
	"github.com/wippyai/vptr/generator"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to vptrgen.yaml or vptrgen.toml (default: search upward from -dir)")
		dir         = flag.String("dir", ".", "Directory to load packages from")
		dryRun      = flag.Bool("n", false, "Report changes without writing files")
		strict      = flag.Bool("strict", false, "Treat missing capability implementations as errors")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vptrgen [-config file] [-dir dir] [-n] [-strict] [-v] [-i] [patterns...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	generator.SetLogger(log.Named("generator"))
	vptr.SetLogger(log.Named("vptr"))

	dirSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "dir" {
			dirSet = true
		}
	})

	cfg, err := loadConfig(*configPath, *dir, dirSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.Patterns = flag.Args()
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *strict {
		cfg.Strict = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *interactive {
		if err := runInteractive(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *generator.Config) error {
	report, err := generator.New(cfg).Run(ctx)
	if report != nil {
		printReport(os.Stdout, report)
	}
	return err
}

// loadConfig uses an explicit config file, else the nearest one above dir,
// else defaults.
func loadConfig(path, dir string, dirSet bool) (*generator.Config, error) {
	if path == "" {
		found, err := generator.FindConfig(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path == "" {
		cfg, err := generator.ParseConfig(nil, "vptrgen.yaml")
		if err != nil {
			return nil, err
		}
		cfg.Dir = dir
		return cfg, nil
	}

	cfg, err := generator.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if dirSet {
		cfg.Dir = dir
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}
