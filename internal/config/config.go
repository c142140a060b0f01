// Package config loads kiln.toml project manifests.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest looked up from the target directory upwards.
const FileName = "kiln.toml"

// SourceExt is the extension of kiln source files.
const SourceExt = ".kn"

// Manifest is a decoded kiln.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package     Package     `toml:"package"`
	Build       Build       `toml:"build"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

type Package struct {
	Name string `toml:"name"`
}

type Build struct {
	Sources               []string `toml:"sources"`
	OptLevel              int      `toml:"opt_level"`
	MaxInstantiationDepth int      `toml:"max_instantiation_depth"`
	Comptime              bool     `toml:"comptime"`
	Cache                 bool     `toml:"cache"`
	Jobs                  int      `toml:"jobs"`
}

type Diagnostics struct {
	Max int `toml:"max"`
}

// Default is the configuration used when no manifest is found. Keys missing
// from a manifest keep these values.
func Default() Config {
	return Config{
		Build: Build{
			OptLevel:              1,
			MaxInstantiationDepth: 64,
			Cache:                 true,
		},
		Diagnostics: Diagnostics{Max: 100},
	}
}

// Find walks from startDir to the filesystem root looking for kiln.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the manifest governing startDir. ok is false
// when there is none.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// Load decodes the manifest at path over Default and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Build.OptLevel < 0 || c.Build.OptLevel > 2 {
		return fmt.Errorf("[build].opt_level must be 0, 1 or 2, got %d", c.Build.OptLevel)
	}
	if c.Build.MaxInstantiationDepth <= 0 {
		return fmt.Errorf("[build].max_instantiation_depth must be positive")
	}
	if c.Build.Jobs < 0 {
		return fmt.Errorf("[build].jobs must not be negative")
	}
	for _, src := range c.Build.Sources {
		if filepath.Ext(src) != SourceExt {
			return fmt.Errorf("[build].sources: %q is not a %s file", src, SourceExt)
		}
	}
	return nil
}

// SourcePaths resolves the configured sources against the manifest root.
// With no [build].sources every .kn file directly under the root is used,
// in lexical order.
func (m *Manifest) SourcePaths() ([]string, error) {
	if len(m.Config.Build.Sources) > 0 {
		out := make([]string, len(m.Config.Build.Sources))
		for i, src := range m.Config.Build.Sources {
			out[i] = filepath.Join(m.Root, filepath.FromSlash(src))
		}
		return out, nil
	}
	return SourcesIn(m.Root)
}

// SourcesIn lists the .kn files directly under dir.
func SourcesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == SourceExt {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s files in %s", SourceExt, dir)
	}
	return out, nil
}
