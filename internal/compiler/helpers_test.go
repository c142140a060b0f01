package compiler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/parser"
	"kiln/internal/source"
	"kiln/internal/testkit"
	"kiln/internal/types"
)

type fixture struct {
	c    *Compiler
	bag  *diag.Bag
	out  *bytes.Buffer
	file *ast.File
	err  error
}

func parseSrc(t *testing.T, src string) *ast.File {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kn", []byte(src))
	bag := diag.NewBag(32)
	f := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("syntax errors: %+v", bag.Items())
	}
	if err := testkit.CheckSpanInvariants(f, fs.Get(id)); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	return f
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	fx := &fixture{bag: diag.NewBag(64), out: &bytes.Buffer{}}
	opts.Reporter = diag.BagReporter{Bag: fx.bag}
	opts.VM.Out = fx.out
	fx.c = New(context.Background(), "test", types.NewInterner(), opts)
	return fx
}

func compileWith(t *testing.T, src string, opts Options) *fixture {
	t.Helper()
	fx := newFixture(t, opts)
	fx.file = parseSrc(t, src)
	fx.err = fx.c.CompileFile(fx.file)
	return fx
}

func compile(t *testing.T, src string) *fixture {
	t.Helper()
	return compileWith(t, src, Options{})
}

func compileOK(t *testing.T, src string) *fixture {
	t.Helper()
	fx := compile(t, src)
	if fx.err != nil {
		t.Fatalf("compile failed: %v\ndiagnostics: %+v", fx.err, fx.bag.Items())
	}
	if err := testkit.CheckModule(fx.c.Module()); err != nil {
		t.Fatalf("invalid IR: %v", err)
	}
	return fx
}

func (fx *fixture) codes() []diag.Code {
	var out []diag.Code
	for _, d := range fx.bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

// only asserts that exactly one diagnostic with code was reported and
// returns it.
func (fx *fixture) only(t *testing.T, code diag.Code) diag.Diagnostic {
	t.Helper()
	var found []diag.Diagnostic
	for _, d := range fx.bag.Items() {
		if d.Code == code {
			found = append(found, d)
		}
	}
	if len(found) != 1 {
		t.Fatalf("want exactly one %s, got codes %v", code.ID(), fx.codes())
	}
	return found[0]
}

// decl returns the unique declaration of name in the file's unit.
func (fx *fixture) decl(t *testing.T, name string) *FuncDecl {
	t.Helper()
	var out []*FuncDecl
	for _, fd := range fx.c.View().Lookup(name) {
		if fd.origin == nil {
			out = append(out, fd)
		}
	}
	if len(out) != 1 {
		t.Fatalf("want one declaration of %s, got %d", name, len(out))
	}
	return out[0]
}

func errCode(err error) diag.Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return diag.UnknownCode
}

func mustContain(t *testing.T, s string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(s, p) {
			t.Fatalf("%q does not contain %q", s, p)
		}
	}
}
