package driver

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"kiln/internal/diag"
	"kiln/internal/source"
)

func addFile(fs *source.FileSet, name, src string) *source.File {
	return fs.Get(fs.AddVirtual(name, []byte(src)))
}

func TestCompileFileEmitsIR(t *testing.T) {
	fs := source.NewFileSet()
	f := addFile(fs, "sq.kn", `
fn sq(x: i32) -> i32 { x * x }
fn main() -> i32 { sq(7) }
`)
	res, err := CompileFile(context.Background(), f, Options{EmitIR: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Broken() {
		t.Fatalf("diagnostics: %+v", res.Bag.Items())
	}
	for _, want := range []string{"define", "@main", "mul"} {
		if !strings.Contains(res.IR, want) {
			t.Fatalf("IR misses %q:\n%s", want, res.IR)
		}
	}
	if res.Functions != 2 {
		t.Fatalf("functions = %d", res.Functions)
	}
	var phases []string
	for _, p := range res.Timing.Phases {
		phases = append(phases, p.Name)
	}
	if strings.Join(phases, ",") != "parse,compile,emit" {
		t.Fatalf("phases = %v", phases)
	}

	v, err := Run(context.Background(), res, "main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int != 49 {
		t.Fatalf("main() = %s", v)
	}
}

func TestCompileFileStopsAfterSyntaxErrors(t *testing.T) {
	fs := source.NewFileSet()
	res, err := CompileFile(context.Background(), addFile(fs, "bad.kn", `fn f( -> i32 { 1 }`), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Broken() || res.Compiler != nil {
		t.Fatalf("syntax errors should stop before compilation")
	}
	if _, err := Run(context.Background(), res, "f", nil); !errors.Is(err, ErrNoCompiler) {
		t.Fatalf("Run err = %v", err)
	}
}

func TestCompileFileReportsSemanticErrors(t *testing.T) {
	fs := source.NewFileSet()
	res, err := CompileFile(context.Background(), addFile(fs, "sem.kn", `fn f() -> i32 { g() }`), Options{EmitIR: true})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.SemaNoOverload {
		t.Fatalf("diagnostics: %+v", items)
	}
	if res.IR != "" {
		t.Fatalf("IR emitted for a broken file")
	}
	if _, err := Run(context.Background(), res, "f", nil); err == nil {
		t.Fatalf("running a broken file succeeded")
	}
}

func TestCompileFilePrintsFromRun(t *testing.T) {
	fs := source.NewFileSet()
	var out bytes.Buffer
	res, err := CompileFile(context.Background(), addFile(fs, "run.kn", `
fn println(args);
@run fn hi() { println(1, 2); }
`), Options{Out: &out, FunctionTimings: true})
	if err != nil || res.Broken() {
		t.Fatalf("err=%v diags=%+v", err, res.Bag.Items())
	}
	if out.String() != "1 2\n" {
		t.Fatalf("output = %q", out.String())
	}
	if len(res.FuncTiming.Phases) == 0 {
		t.Fatalf("no function timings")
	}
}
