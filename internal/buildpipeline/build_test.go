package buildpipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"kiln/internal/driver"
)

func writeSources(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	for i := range n {
		path := filepath.Join(dir, fmt.Sprintf("u%d.kn", i))
		src := fmt.Sprintf(`
fn println(args);
fn id(x: 't) -> 't { x }
@run fn show() { println(id(%d)); }
fn value() -> i32 { id(%d) }
`, i, i*10)
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

type summary struct {
	Name           string
	Functions      int
	Instantiations int
	IR             string
}

func summarize(res *Result) []summary {
	out := make([]summary, len(res.Units))
	for i, u := range res.Units {
		out[i] = summary{u.Name, u.Functions, u.Instantiations, u.IR}
	}
	return out
}

func TestBuildIsDeterministicAcrossJobCounts(t *testing.T) {
	dir := t.TempDir()
	files := writeSources(t, dir, 6)
	opts := driver.Options{EmitIR: true}

	var serialOut, parallelOut bytes.Buffer
	serialOpts, parallelOpts := opts, opts
	serialOpts.Out, parallelOpts.Out = &serialOut, &parallelOut

	serial, err := Build(context.Background(), &Request{Files: files, BaseDir: dir, Jobs: 1, Options: serialOpts})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := Build(context.Background(), &Request{Files: files, BaseDir: dir, Jobs: 4, Options: parallelOpts})
	if err != nil {
		t.Fatal(err)
	}
	if serial.Broken() != 0 {
		t.Fatalf("broken units: %d", serial.Broken())
	}
	if diff := cmp.Diff(summarize(serial), summarize(parallel)); diff != "" {
		t.Fatalf("parallel build differs (-serial +parallel):\n%s", diff)
	}
	if want := "0\n1\n2\n3\n4\n5\n"; serialOut.String() != want || parallelOut.String() != want {
		t.Fatalf("outputs: serial %q parallel %q", serialOut.String(), parallelOut.String())
	}
	if serial.Units[2].Name != "u2.kn" {
		t.Fatalf("display name = %q", serial.Units[2].Name)
	}
}

func TestBuildReportsProgressAndWritesIR(t *testing.T) {
	dir := t.TempDir()
	files := writeSources(t, dir, 2)
	broken := filepath.Join(dir, "broken.kn")
	if err := os.WriteFile(broken, []byte(`fn f() -> i32 { nope() }`), 0o600); err != nil {
		t.Fatal(err)
	}
	files = append(files, broken)

	sink := &RecordSink{}
	out := filepath.Join(dir, "out")
	res, err := Build(context.Background(), &Request{
		Files: files, BaseDir: dir, Jobs: 2, OutputDir: out,
		Options: driver.Options{EmitIR: true, Out: io.Discard}, Progress: sink,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Broken() != 1 {
		t.Fatalf("broken = %d", res.Broken())
	}

	final := map[string]Status{}
	for _, ev := range sink.Events() {
		if ev.Stage == StageCompile && ev.Status != StatusWorking {
			final[ev.File] = ev.Status
		}
	}
	want := map[string]Status{"u0.kn": StatusDone, "u1.kn": StatusDone, "broken.kn": StatusError}
	if diff := cmp.Diff(want, final); diff != "" {
		t.Fatalf("compile statuses (-want +got):\n%s", diff)
	}

	ir, err := os.ReadFile(filepath.Join(out, "u0.ll"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ir), "define") {
		t.Fatalf("IR file has no definitions")
	}
	if _, err := os.Stat(filepath.Join(out, "broken.ll")); !os.IsNotExist(err) {
		t.Fatalf("broken unit produced IR: %v", err)
	}
	if !res.Timings.Has(StageCompile) || !res.Timings.Has(StageEmit) {
		t.Fatalf("stage timings missing")
	}
}

func TestBuildMissingFile(t *testing.T) {
	_, err := Build(context.Background(), &Request{Files: []string{filepath.Join(t.TempDir(), "nope.kn")}})
	if err == nil {
		t.Fatalf("expected a load error")
	}
}

func TestFindEntry(t *testing.T) {
	dir := t.TempDir()
	files := writeSources(t, dir, 2)
	res, err := Build(context.Background(), &Request{Files: files, BaseDir: dir, Options: driver.Options{Out: io.Discard}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FindEntry(res, "value"); err == nil || !strings.Contains(err.Error(), "multiple") {
		t.Fatalf("err = %v", err)
	}
	if _, err := FindEntry(res, "main"); err == nil || !strings.Contains(err.Error(), "no `main`") {
		t.Fatalf("err = %v", err)
	}

	res.Units = res.Units[1:]
	u, err := FindEntry(res, "value")
	if err != nil {
		t.Fatal(err)
	}
	v, err := driver.Run(context.Background(), u.Result, "value", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int != 10 {
		t.Fatalf("value() = %s", v)
	}
}

func TestDisplayNames(t *testing.T) {
	base := t.TempDir()
	got := DisplayNames([]string{filepath.Join(base, "a", "x.kn"), "/elsewhere/y.kn"}, base)
	if diff := cmp.Diff([]string{"a/x.kn", "/elsewhere/y.kn"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
