package generator

import (
	"bytes"
	"fmt"
	"go/types"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/vptr/errors"
)

// Config file names searched by FindConfig, in order.
var ConfigNames = []string{"vptrgen.yaml", "vptrgen.yml", "vptrgen.toml"}

// Config drives a generator run.
type Config struct {
	// Dir is the working directory for package loading. Relative paths in a
	// config file are resolved against the file's directory.
	Dir string `yaml:"dir,omitempty" toml:"dir"`

	// Patterns are go/packages patterns. Defaults to ".".
	Patterns []string `yaml:"patterns,omitempty" toml:"patterns"`

	// Output is the glue file name written into each package.
	// Defaults to "<package>_vptr.go".
	Output string `yaml:"output,omitempty" toml:"output"`

	// Strict turns missing capability implementations into errors.
	Strict bool `yaml:"strict,omitempty" toml:"strict"`

	// DryRun validates and reports without writing files.
	DryRun bool `yaml:"dry_run,omitempty" toml:"dry_run"`

	// Arch selects the size model for reported offsets.
	// Defaults to the loaded package's own.
	Arch string `yaml:"arch,omitempty" toml:"arch"`

	// Targets request slots in addition to //vptr:embed directives.
	Targets []Target `yaml:"targets,omitempty" toml:"targets"`
}

// Target lists the capabilities to embed in one struct type.
type Target struct {
	// Type is the struct type name, optionally qualified by package path
	// ("example.com/shapes.Rectangle") when several packages are loaded.
	Type string `yaml:"type" toml:"type"`

	// Capabilities are interface names as written in the declaring file
	// ("Shape", "fmt.Stringer").
	Capabilities []string `yaml:"capabilities" toml:"capabilities"`
}

// LoadConfig reads and parses a vptrgen.yaml or vptrgen.toml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "reading config "+path)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Dir) {
		cfg.Dir = filepath.Join(filepath.Dir(path), cfg.Dir)
	}
	return cfg, nil
}

// ParseConfig parses config content. The format is chosen by the extension
// of path, which is otherwise used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path).Cause(err).Detail("parsing yaml").Build()
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path).Cause(err).Detail("parsing toml").Build()
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path).Detail("unknown key %q", undecoded[0].String()).Build()
		}
	default:
		return nil, errors.Unsupported(errors.PhaseConfig, "config format "+ext)
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for a config file starting from dir and walking up to
// parent directories. It returns an empty path and nil error if none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "resolving directory")
	}

	for {
		for _, name := range ConfigNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Output != "" {
		if filepath.Base(c.Output) != c.Output {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path, "output").Detail("output must be a file name, got %q", c.Output).Build()
		}
		if !strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path, "output").Detail("output must be a non-test .go file, got %q", c.Output).Build()
		}
	}

	if c.Arch != "" && types.SizesFor("gc", c.Arch) == nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(path, "arch").Detail("unknown architecture %q", c.Arch).Build()
	}

	seen := make(map[string]int)
	for i, t := range c.Targets {
		field := fmt.Sprintf("targets[%d]", i)
		if t.Type == "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path, field).Detail("type is required").Build()
		}
		if len(t.Capabilities) == 0 {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path, field).Type(t.Type).Detail("at least one capability is required").Build()
		}
		if prev, ok := seen[t.Type]; ok {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(path, field).Type(t.Type).Detail("type already listed in targets[%d]", prev).Build()
		}
		seen[t.Type] = i
		for j, capName := range t.Capabilities {
			if strings.TrimSpace(capName) == "" {
				return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
					Path(path, field, fmt.Sprintf("capabilities[%d]", j)).Type(t.Type).
					Detail("empty capability").Build()
			}
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if len(c.Patterns) == 0 {
		c.Patterns = []string{"."}
	}
}

// OutputFor returns the glue file name for a package.
func (c *Config) OutputFor(pkgName string) string {
	if c.Output != "" {
		return c.Output
	}
	return pkgName + "_vptr.go"
}
