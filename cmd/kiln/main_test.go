package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"kiln/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolveTargetDirectoryWithManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
[package]
name = "demo"

[build]
sources = ["src/b.kn", "src/a.kn"]
opt_level = 2
`)
	writeFile(t, filepath.Join(dir, "src", "a.kn"), "")
	writeFile(t, filepath.Join(dir, "src", "b.kn"), "")

	tg, err := resolveTarget([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "src", "b.kn"), filepath.Join(dir, "src", "a.kn")}
	if diff := cmp.Diff(want, tg.files); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}
	if tg.name != "demo" || tg.baseDir != dir || tg.cfg.Build.OptLevel != 2 {
		t.Fatalf("target = %+v", tg)
	}
}

func TestResolveTargetPlainArguments(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.kn")
	writeFile(t, one, "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	tg, err := resolveTarget([]string{one})
	if err != nil {
		t.Fatal(err)
	}
	if tg.name != "one" || tg.cfg.Build.MaxInstantiationDepth != config.Default().Build.MaxInstantiationDepth {
		t.Fatalf("target = %+v", tg)
	}
	if _, err := resolveTarget([]string{filepath.Join(dir, "notes.txt")}); err == nil {
		t.Fatalf("non-source file accepted")
	}
	if _, err := resolveTarget([]string{filepath.Join(dir, "missing.kn")}); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func newOptionsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "kiln"}
	root.PersistentFlags().Int("max-diagnostics", 100, "")
	root.PersistentFlags().Bool("timings", false, "")
	cmd := &cobra.Command{Use: "build"}
	addCompileFlags(cmd)
	root.AddCommand(cmd)
	if err := root.PersistentFlags().Parse(nil); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestCompileOptionsFlagsOverrideManifest(t *testing.T) {
	cfg := config.Default()
	cfg.Build.OptLevel = 2
	cfg.Build.Jobs = 3
	cfg.Build.Cache = false

	opts, jobs, err := compileOptions(newOptionsCmd(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.OptLevel != 2 || jobs != 3 || opts.Cache != nil {
		t.Fatalf("manifest values lost: %+v jobs=%d", opts, jobs)
	}

	opts, jobs, err = compileOptions(newOptionsCmd(t, "-O", "0", "--jobs", "1", "--max-depth", "4", "--comptime"), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.OptLevel != 0 || jobs != 1 || opts.MaxInstantiationDepth != 4 || !opts.Comptime {
		t.Fatalf("flags not applied: %+v jobs=%d", opts, jobs)
	}

	if _, _, err := compileOptions(newOptionsCmd(t, "-O", "5"), cfg); err == nil {
		t.Fatalf("bad opt level accepted")
	}
}

func TestTriStateFlag(t *testing.T) {
	for in, want := range map[string]triState{"": stateAuto, "ON": stateOn, " off ": stateOff} {
		var s triState
		if err := s.Set(in); err != nil || s != want {
			t.Fatalf("Set(%q) = %q, %v", in, s, err)
		}
	}
	var s triState
	if err := s.Set("sometimes"); err == nil {
		t.Fatalf("invalid value accepted")
	}
	if s.String() != "auto" {
		t.Fatalf("zero value prints %q", s.String())
	}
	if !stateOn.enabled(false) || stateOff.enabled(true) || !stateAuto.enabled(true) {
		t.Fatalf("enabled ignores the explicit state")
	}
}

func TestRunCommandExecutesMain(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.kn")
	writeFile(t, src, `
fn println(args);
fn sq(x: 't) -> 't { x * x }
fn main() { println(sq(6), sq(7)); }
`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--color", "off", "--quiet", src})
	t.Cleanup(func() { colorMode = stateAuto })
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}
	if got := out.String(); got != "36 49\n" {
		t.Fatalf("output = %q", got)
	}
}
