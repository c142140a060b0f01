package compiler

import (
	"bytes"
	"context"
	"testing"

	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/trace"
	"kiln/internal/types"
)

const natives = `
fn println(args);
fn decl_arity(d: FuncDecl) -> i32;
fn decl_is_generic(d: FuncDecl) -> bool;
`

func TestInlineSetsAttribute(t *testing.T) {
	fx := compileOK(t, `@inline fn sq(x: i32) -> i32 { x * x }`)
	fd := fx.decl(t, "sq")
	if !fd.Value.Func().HasAttr(mir.AttrAlwaysInline) {
		t.Fatalf("missing %s", mir.AttrAlwaysInline)
	}
	if n := len(fd.Decl.Modifiers); n != 1 {
		t.Fatalf("modifiers not restored: %d", n)
	}
}

func TestRunExecutesOnceAndKeepsFirstArtifact(t *testing.T) {
	fx := compileOK(t, natives+`
@run fn hello() { println(7); }
`)
	if got := fx.out.String(); got != "7\n" {
		t.Fatalf("output = %q", got)
	}
	fd := fx.decl(t, "hello")
	f := fd.Value.Func()
	if f == nil || f.Module != fx.c.Module() {
		t.Fatalf("cached artifact is not the one in the output module")
	}
	if _, err := fx.c.Compile(fd); err != nil {
		t.Fatal(err)
	}
	if got := fx.out.String(); got != "7\n" {
		t.Fatalf("function ran again: %q", got)
	}
	if len(fd.Decl.Modifiers) != 1 || fd.Decl.Modifiers[0].Name != directiveRun {
		t.Fatalf("modifiers not restored: %+v", fd.Decl.Modifiers)
	}
	if n := len(fx.c.Module().Funcs); n == 0 {
		t.Fatalf("no IR emitted")
	}
	for _, f := range fx.c.Module().Funcs {
		if f.Module != fx.c.Module() {
			t.Fatalf("scratch function %s leaked", f.Name)
		}
	}
}

func TestRunRejectsParameters(t *testing.T) {
	fx := compile(t, `@run fn f(x: i32) -> i32 { x }`)
	fx.only(t, diag.SemaComptimeRunFailed)
}

func TestRunReportsVMFailure(t *testing.T) {
	fx := compile(t, `
fn missing();
@run fn f() { missing(); }
`)
	d := fx.only(t, diag.SemaComptimeRunFailed)
	mustContain(t, d.Message, "`f` failed")
}

func TestRunEmitsResultPoint(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	bag := diag.NewBag(8)
	c := New(ctx, "test", types.NewInterner(), Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	c.vm.Out = &bytes.Buffer{}
	if err := c.CompileFile(parseSrc(t, `@run fn answer() -> i32 { 42 }`)); err != nil {
		t.Fatalf("compile: %v", err)
	}
	var details []string
	for _, ev := range ring.Find("run_result") {
		if ev.Kind == trace.KindPoint {
			details = append(details, ev.Detail)
		}
	}
	if len(details) != 1 || details[0] != "42" {
		t.Fatalf("run_result points = %v", details)
	}
}

func TestOnFnDeclHooksSeeLaterDeclarations(t *testing.T) {
	fx := compileOK(t, natives+`
fn before(a: i32) -> i32 { a }
@on_fn_decl fn watch(d: FuncDecl) { println(decl_arity(d)); }
fn one(a: i32) -> i32 { a }
fn two(a: i32, b: i32) -> i32 { a }
`)
	if got := fx.out.String(); got != "1\n2\n" {
		t.Fatalf("hook output = %q", got)
	}
	watch := fx.decl(t, "watch")
	if !watch.Value.IsNone() {
		t.Fatalf("hook cached a value")
	}
	if hook := fx.c.hookFns[watch]; hook == nil || hook.Module == fx.c.Module() {
		t.Fatalf("hook copy not compiled out of band")
	}
}

func TestOnFnDeclHookFailuresAreNotFatal(t *testing.T) {
	fx := compile(t, `
@on_fn_decl fn watch(x: i32) { }
fn one(a: i32) -> i32 { a }
fn two(a: i32) -> i64 { 2i64 }
`)
	d := fx.only(t, diag.SemaHookFailed)
	mustContain(t, d.Message, "watch", "FuncDecl")
	one := fx.decl(t, "one")
	if one.Value.Func() == nil {
		t.Fatalf("decl after a failing hook was not compiled")
	}
}

func TestHookInstantiationsAreNotRecorded(t *testing.T) {
	fx := compileOK(t, `
fn id(x: 't) -> 't { x }
@on_fn_decl fn watch(d: FuncDecl) { id(1); }
fn one(a: i32) -> i32 { id(a) }
`)
	entries := fx.c.Instantiations().Sorted()
	if len(entries) != 1 {
		t.Fatalf("want one specialization, got %d", len(entries))
	}
	sites := entries[0].UseSites
	if len(sites) != 1 || sites[0].Caller != fx.decl(t, "one").irName() {
		t.Fatalf("use sites = %+v", sites)
	}
}

func TestComptimeFunctionIsPlaceholderAtRuntime(t *testing.T) {
	src := `
comptime fn k() -> i32 { 41 }
fn use() -> i32 { k() + 1 }
`
	fx := compile(t, src)
	d := fx.only(t, diag.SemaComptimeOnlyCall)
	mustContain(t, d.Message, "`k`")
	if k := fx.decl(t, "k"); !k.Value.IsNone() {
		t.Fatalf("placeholder was cached")
	}

	fx = compileWith(t, src, Options{Comptime: true})
	if fx.err != nil {
		t.Fatalf("comptime mode: %v\n%+v", fx.err, fx.bag.Items())
	}
	if fx.decl(t, "k").Value.Func() == nil {
		t.Fatalf("comptime mode did not compile the body")
	}
}

func TestUnrecognizedDirective(t *testing.T) {
	fx := compile(t, `@bogus fn f() -> i32 { 1 }`)
	d := fx.only(t, diag.SemaUnrecognizedDirective)
	mustContain(t, d.Message, "`@bogus`")
	if fd := fx.decl(t, "f"); len(fd.Decl.Modifiers) != 1 {
		t.Fatalf("modifiers not restored")
	}
}

func TestStackedModifiersApplyInOrder(t *testing.T) {
	fx := compileOK(t, natives+`
@inline @run fn twice() -> i32 { println(2); 2 }
`)
	if got := fx.out.String(); got != "2\n" {
		t.Fatalf("output = %q", got)
	}
	f := fx.decl(t, "twice").Value.Func()
	if f == nil || !f.HasAttr(mir.AttrAlwaysInline) {
		t.Fatalf("outer @inline not applied to the cached artifact")
	}
}
