package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiln/internal/config"
	"kiln/internal/driver"
)

var errNoManifest = fmt.Errorf("no %s found in this directory or any parent; pass a file or directory", config.FileName)

// target is the set of files one command operates on.
type target struct {
	files   []string
	baseDir string
	name    string
	cfg     config.Config
}

// resolveTarget turns command arguments into source files. With no
// arguments the manifest is discovered from the working directory; a
// directory argument uses its manifest when present and its .kn files
// otherwise.
func resolveTarget(args []string) (*target, error) {
	if len(args) == 0 {
		m, ok, err := config.Discover(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNoManifest
		}
		return targetFromManifest(m)
	}

	t := &target{cfg: config.Default()}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(arg) != config.SourceExt {
				return nil, fmt.Errorf("%s: not a %s file", arg, config.SourceExt)
			}
			t.files = append(t.files, arg)
			continue
		}
		if len(args) == 1 {
			m, ok, err := manifestIn(arg)
			if err != nil {
				return nil, err
			}
			if ok {
				return targetFromManifest(m)
			}
			t.baseDir = arg
		}
		files, err := config.SourcesIn(arg)
		if err != nil {
			return nil, err
		}
		t.files = append(t.files, files...)
	}
	if len(t.files) == 1 {
		t.name = driverModuleName(t.files[0])
	}
	return t, nil
}

func targetFromManifest(m *config.Manifest) (*target, error) {
	files, err := m.SourcePaths()
	if err != nil {
		return nil, err
	}
	return &target{files: files, baseDir: m.Root, name: m.Config.Package.Name, cfg: m.Config}, nil
}

func manifestIn(dir string) (*config.Manifest, bool, error) {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, false, err
	}
	return &config.Manifest{Path: path, Root: dir, Config: cfg}, true, nil
}

func driverModuleName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// addCompileFlags registers the flags shared by build, run and diag. Each
// one overrides the matching manifest key only when set.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("opt-level", "O", 1, "optimization level (0|1|2)")
	cmd.Flags().Int("max-depth", 64, "maximum nested generic instantiation depth")
	cmd.Flags().Bool("comptime", false, "compile comptime functions as ordinary code")
	cmd.Flags().Int("jobs", 0, "max parallel compile workers (0=auto)")
	cmd.Flags().Bool("no-cache", false, "disable the on-disk result cache")
}

// compileOptions merges the manifest configuration with explicitly set flags.
func compileOptions(cmd *cobra.Command, cfg config.Config) (driver.Options, int, error) {
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	var err error

	if flags.Changed("opt-level") {
		if cfg.Build.OptLevel, err = flags.GetInt("opt-level"); err != nil {
			return driver.Options{}, 0, err
		}
	}
	if flags.Changed("max-depth") {
		if cfg.Build.MaxInstantiationDepth, err = flags.GetInt("max-depth"); err != nil {
			return driver.Options{}, 0, err
		}
	}
	if flags.Changed("comptime") {
		if cfg.Build.Comptime, err = flags.GetBool("comptime"); err != nil {
			return driver.Options{}, 0, err
		}
	}
	if flags.Changed("jobs") {
		if cfg.Build.Jobs, err = flags.GetInt("jobs"); err != nil {
			return driver.Options{}, 0, err
		}
	}
	if root.Changed("max-diagnostics") {
		if cfg.Diagnostics.Max, err = root.GetInt("max-diagnostics"); err != nil {
			return driver.Options{}, 0, err
		}
	}
	if cfg.Build.OptLevel < 0 || cfg.Build.OptLevel > 2 {
		return driver.Options{}, 0, fmt.Errorf("--opt-level must be 0, 1 or 2, got %d", cfg.Build.OptLevel)
	}
	if cfg.Build.MaxInstantiationDepth <= 0 {
		return driver.Options{}, 0, fmt.Errorf("--max-depth must be positive")
	}

	opts := driver.Options{
		OptLevel:              cfg.Build.OptLevel,
		MaxInstantiationDepth: cfg.Build.MaxInstantiationDepth,
		Comptime:              cfg.Build.Comptime,
		MaxDiagnostics:        cfg.Diagnostics.Max,
		Out:                   cmd.OutOrStdout(),
	}
	if opts.FunctionTimings, err = root.GetBool("timings"); err != nil {
		return driver.Options{}, 0, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return driver.Options{}, 0, err
	}
	if cfg.Build.Cache && !noCache {
		cache, err := driver.OpenDiskCache("kiln")
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache disabled: %v\n", err)
		} else {
			opts.Cache = cache
		}
	}
	return opts, cfg.Build.Jobs, nil
}
