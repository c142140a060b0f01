package compiler

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/observ"
	"kiln/internal/source"
	"kiln/internal/types"
	"kiln/internal/vm"
)

func hasOp(f *mir.Func, op mir.Op) bool {
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Op == op {
				return true
			}
		}
	}
	return false
}

func run(t *testing.T, fx *fixture, name string, args ...vm.Value) vm.Value {
	t.Helper()
	f, ok := fx.c.Module().Lookup(name)
	if !ok {
		t.Fatalf("no function %s in module", name)
	}
	v, err := fx.c.VM().Call(context.Background(), f, args)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return v
}

func TestCompileAndResolveByArgumentTypes(t *testing.T) {
	fx := compileOK(t, `fn f(x: int) -> int { x }`)
	b := fx.c.Types().Builtins()

	v, err := fx.c.ResolveAndCompile("f", []types.TypeID{b.I32}, source.Span{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	fn := v.Func()
	if fn == nil || fn.Result != b.I32 {
		t.Fatalf("want i32 result, got %+v", fn)
	}
	if want := fx.c.Types().Mangle("f", []types.TypeID{b.I32}); fn.Name != want {
		t.Fatalf("name = %q, want %q", fn.Name, want)
	}
	if v.Val != fx.decl(t, "f").Value.Val {
		t.Fatalf("resolution did not reuse the compiled artifact")
	}

	_, err = fx.c.ResolveAndCompile("f", []types.TypeID{b.F64}, source.Span{})
	if got := errCode(err); got != diag.SemaNoOverload {
		t.Fatalf("f(f64): got %s, want %s", got.ID(), diag.SemaNoOverload.ID())
	}
}

func TestCompileIsMemoized(t *testing.T) {
	timer := observ.NewTimer()
	fx := compileWith(t, `fn f(x: i32) -> i32 { x + 1 }`, Options{Timings: timer})
	if fx.err != nil {
		t.Fatalf("compile: %v", fx.err)
	}
	fd := fx.decl(t, "f")
	first, err := fx.c.Compile(fd)
	if err != nil {
		t.Fatal(err)
	}
	second, err := fx.c.Compile(fd)
	if err != nil {
		t.Fatal(err)
	}
	if first.Val != second.Val {
		t.Fatalf("second Compile produced a new artifact")
	}
	count := 0
	for _, f := range fx.c.Module().Funcs {
		if f.Name == fd.Mangled {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("module holds %d copies of %s", count, fd.Mangled)
	}
	if n := len(timer.Report().Phases); n != 1 {
		t.Fatalf("body compiled %d times", n)
	}
}

func TestOverloadPrefersMoreConcreteMatches(t *testing.T) {
	fx := compileOK(t, `
fn pick(a: i32, b: 't) -> i32 { 1 }
fn pick(a: 't, b: 'u) -> i32 { 2 }
fn main() -> i32 { pick(1, 2i64) }
`)
	in := fx.c.Types()
	b := in.Builtins()
	var got [][2]string
	for _, e := range fx.c.Instantiations().Sorted() {
		got = append(got, [2]string{e.Key.Generic, e.Specialized})
	}
	want := [][2]string{{
		in.Mangle("pick", []types.TypeID{b.I32, in.Var("t")}),
		in.Mangle("pick", []types.TypeID{b.I32, b.I64}),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("instantiations mismatch (-want +got):\n%s", diff)
	}
	if v := run(t, fx, "main"); v.Int != 1 {
		t.Fatalf("main() = %s, want 1", v)
	}
}

func TestOverloadTieIsAmbiguous(t *testing.T) {
	fx := compile(t, `
fn tie(a: i32, b: 't) -> i32 { 1 }
fn tie(a: 't, b: i32) -> i32 { 2 }
fn main() -> i32 { tie(1, 2) }
`)
	if fx.err == nil {
		t.Fatalf("expected an error")
	}
	d := fx.only(t, diag.SemaAmbiguousOverload)
	mustContain(t, d.Message, "tie", "(i32, i32)")
	if len(d.Notes) != 2 {
		t.Fatalf("want a note per candidate, got %+v", d.Notes)
	}
	if fx.c.Instantiations().Len() != 0 {
		t.Fatalf("ambiguous call instantiated something")
	}
}

func TestGenericInstantiatedOnce(t *testing.T) {
	fx := compileOK(t, `
fn id(x: 't) -> 't { x }
fn a() -> i32 { id(1) }
fn b() -> i32 { id(2) }
`)
	in := fx.c.Types()
	if n := fx.c.Instantiations().Len(); n != 1 {
		t.Fatalf("want one instantiation, got %d", n)
	}
	entry := fx.c.Instantiations().Sorted()[0]
	var callers []string
	for _, u := range entry.UseSites {
		callers = append(callers, u.Caller)
	}
	if diff := cmp.Diff([]string{in.Mangle("a", nil), in.Mangle("b", nil)}, callers); diff != "" {
		t.Fatalf("use sites mismatch (-want +got):\n%s", diff)
	}
	if n := len(fx.c.View().Lookup("id")); n != 2 {
		t.Fatalf("want generic plus one specialization, got %d", n)
	}

	i32 := in.Builtins().I32
	v, err := fx.c.ResolveAndCompile("id", []types.TypeID{i32}, source.Span{})
	if err != nil {
		t.Fatal(err)
	}
	spec := fx.c.View().Find("id", in.Mangle("id", []types.TypeID{i32}))
	if spec == nil || spec.Value.Val != v.Val {
		t.Fatalf("resolution did not return the existing specialization")
	}
	if spec.Value.Type != in.Fn([]types.TypeID{i32}, i32) {
		t.Fatalf("specialization type = %s", in.String(spec.Value.Type))
	}
}

func TestInferredReturnType(t *testing.T) {
	fx := compileOK(t, `
fn three(c: bool) {
    if c { return 1; }
    if c { return 2; }
    3
}
`)
	in := fx.c.Types()
	b := in.Builtins()
	fd := fx.decl(t, "three")
	if got, want := fd.Value.Type, in.Fn([]types.TypeID{b.Bool}, b.I32); got != want {
		t.Fatalf("type = %s, want %s", in.String(got), in.String(want))
	}
	if fd.Value.Func().Result != b.I32 {
		t.Fatalf("IR result = %s", in.String(fd.Value.Func().Result))
	}
	if n := len(fd.Returns); n != 3 {
		t.Fatalf("want 3 return sites, got %d", n)
	}
	if _, ok := fx.c.Module().Lookup(fd.Mangled + ".pre"); ok {
		t.Fatalf("preliminary function leaked into the module")
	}
	if v := run(t, fx, fd.Mangled, vm.BoolValue(false)); v.Int != 3 {
		t.Fatalf("three(false) = %s", v)
	}
}

func TestInferredVoidWithoutValue(t *testing.T) {
	fx := compileOK(t, `fn noop() { }`)
	fd := fx.decl(t, "noop")
	if r := fd.Value.Func().Result; r != fx.c.Types().Builtins().Void {
		t.Fatalf("result = %s, want void", fx.c.Types().String(r))
	}
}

func TestInferredReturnMismatch(t *testing.T) {
	fx := compile(t, `
fn two(c: bool) {
    if c { return 1; }
    2i64
}
`)
	d := fx.only(t, diag.SemaReturnTypeMismatch)
	mustContain(t, d.Message, "`i32`", "`i64`", "two")
	if len(d.Notes) != 1 {
		t.Fatalf("want a note at the inferring site, got %+v", d.Notes)
	}
	if errCode(fx.err) != diag.SemaReturnTypeMismatch {
		t.Fatalf("CompileFile error = %v", fx.err)
	}
	if fd := fx.decl(t, "two"); fd.Err == nil || !fd.Value.IsNone() {
		t.Fatalf("failed function kept an artifact")
	}
	if len(fx.c.Module().Funcs) != 0 {
		t.Fatalf("failed function left IR behind")
	}
}

func TestDeclaredReturnMismatch(t *testing.T) {
	fx := compile(t, `fn g() -> i32 { 1i64 }`)
	d := fx.only(t, diag.SemaReturnTypeMismatch)
	mustContain(t, d.Message, "declares `i32`", "found `i64`")
}

func TestDuplicateParameter(t *testing.T) {
	fx := compile(t, `fn f(x: int, x: int) -> int { x }`)
	d := fx.only(t, diag.SemaDuplicateParameter)
	mustContain(t, d.Message, "`x`", "parameters 1 and 2")
}

func TestRedefinition(t *testing.T) {
	fx := compile(t, `
fn f(x: i32) -> i32 { x }
fn f(y: i32) -> i32 { y }
`)
	d := fx.only(t, diag.SemaRedefinition)
	mustContain(t, d.Message, "`f`", "(i32)")
	if len(d.Notes) != 1 {
		t.Fatalf("want a note at the previous definition, got %+v", d.Notes)
	}
	if n := len(fx.c.View().Lookup("f")); n != 1 {
		t.Fatalf("redefinition was registered: %d decls", n)
	}
}

func TestReregisteringSameNodeIsSilent(t *testing.T) {
	fx := compileOK(t, `fn f() -> i32 { 1 }`)
	before := fx.bag.Len()
	if _, err := fx.c.RegisterDeclaration(fx.file.Items[0].Fn); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if fx.bag.Len() != before || len(fx.c.View().Lookup("f")) != 1 {
		t.Fatalf("re-registering the same node had effects")
	}
}

func TestStrayReceiver(t *testing.T) {
	fx := compile(t, `fn m(self) -> i32 { 1 }`)
	fx.only(t, diag.SemaStrayReceiver)
}

func TestExtBlockBindsObject(t *testing.T) {
	fx := compileOK(t, `
type Box<'t>;
fn raw(b: Box<i32>) -> i32;
ext Box<i32> {
    fn get(self) -> i32 { raw(self) }
    fn zero(self) -> 't { 0 }
}
`)
	in := fx.c.Types()
	i32 := in.Builtins().I32
	box := in.Data("Box", []types.TypeID{i32})

	zero := fx.decl(t, "zero")
	if zero.Obj != box {
		t.Fatalf("object = %s", in.String(zero.Obj))
	}
	if diff := cmp.Diff([]types.Binding{{Name: "t", Type: i32}}, zero.Bindings); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
	if zero.Value.Func().Result != i32 {
		t.Fatalf("'t was not substituted in the result")
	}
	get := fx.decl(t, "get")
	if diff := cmp.Diff([]types.TypeID{box}, get.Params()); diff != "" {
		t.Fatalf("receiver mismatch (-want +got):\n%s", diff)
	}
	if fx.c.Context().obj != types.NoTypeID {
		t.Fatalf("object leaked out of the ext block")
	}
}

func TestTypeVarReturnIsReinterpreted(t *testing.T) {
	fx := compileOK(t, `
fn opaque() -> 't;
fn f() -> f64 { opaque() }
`)
	f := fx.decl(t, "f").Value.Func()
	if !hasOp(f, mir.OpBitcast) {
		t.Fatalf("no reinterpretation emitted in %s", f.Name)
	}
}

func TestByRefParameterSpills(t *testing.T) {
	fx := compileOK(t, `
fn inc(x: mut i32) -> i32 { x + 1 }
fn main() -> i32 { inc(41) }
`)
	in := fx.c.Types()
	inc := fx.decl(t, "inc").Value.Func()
	if got, want := inc.Params[0].Type, in.Ptr(in.Builtins().I32); got != want {
		t.Fatalf("param type = %s, want %s", in.String(got), in.String(want))
	}
	main := fx.decl(t, "main").Value.Func()
	if !hasOp(main, mir.OpAlloca) || !hasOp(main, mir.OpStore) {
		t.Fatalf("literal argument was not spilled")
	}
	if v := run(t, fx, "main"); v.Int != 42 {
		t.Fatalf("main() = %s, want 42", v)
	}
}

func TestRecursiveFunctionRuns(t *testing.T) {
	fx := compileOK(t, `
fn fact(n: i64) -> i64 {
    if n < 2 { return 1; }
    n * fact(n - 1)
}
`)
	fd := fx.decl(t, "fact")
	if v := run(t, fx, fd.Mangled, vm.IntValue(10)); v.Int != 3628800 {
		t.Fatalf("fact(10) = %s", v)
	}
}

func TestLambdaTakesObjectBindings(t *testing.T) {
	fx := compileOK(t, `type Box<'t>;`)
	c := fx.c
	in := c.Types()
	i32 := in.Builtins().I32
	box := in.Data("Box", []types.TypeID{i32})
	lam := parseSrc(t, `fn lam(y: 't) -> 't { y }`).Items[0].Fn
	lam.Name = ""

	cx := c.Context()
	cx.obj, cx.objBindings = box, c.objectBindings(box)
	v, err := c.compileLambda(lam)
	cx.obj, cx.objBindings = types.NoTypeID, nil
	if err != nil {
		t.Fatalf("compile lambda: %v", err)
	}
	f := v.Func()
	if f == nil || f.Result != i32 || f.Params[0].Type != i32 {
		t.Fatalf("'t was not bound to i32 in the lambda signature")
	}
	if len(c.View().Home().Lookup("")) != 0 {
		t.Fatalf("lambda was indexed")
	}
}

func TestLambdasAreNeverIndexed(t *testing.T) {
	fx := compileOK(t, `
fn app(f: fn(i32) -> i32, x: i32) -> i32 { f(x) }
fn main() -> i32 { app(fn(y: i32) -> i32 { y + 1 }, 2) }
`)
	if _, ok := fx.c.Module().Lookup("__lambda_0"); !ok {
		t.Fatalf("lambda artifact missing")
	}
	for _, name := range fx.c.View().Home().Names() {
		if name == "" || name == "__lambda_0" {
			t.Fatalf("lambda registered under %q", name)
		}
	}
	app := fx.decl(t, "app").Value.Func()
	if diff := cmp.Diff([]string{mir.AttrNoCapture, mir.AttrReadOnly}, app.ParamAttrs[0]); diff != "" {
		t.Fatalf("fn param attrs mismatch (-want +got):\n%s", diff)
	}
	if v := run(t, fx, "main"); v.Int != 3 {
		t.Fatalf("main() = %s, want 3", v)
	}
}

func TestInstantiationDepthIsBounded(t *testing.T) {
	fx := compileWith(t, `
fn wrap(x: 't) -> ['t];
fn deep(x: 't) -> i32 { deep(wrap(x)) }
fn main() -> i32 { deep(1) }
`, Options{MaxInstantiationDepth: 8})
	if fx.err == nil {
		t.Fatalf("expected unbounded instantiation to fail")
	}
	fx.only(t, diag.SemaInstantiationDepth)
	if fx.c.Context().instDepth != 0 {
		t.Fatalf("depth counter leaked: %d", fx.c.Context().instDepth)
	}
}

func TestLoopControlOutsideLoop(t *testing.T) {
	fx := compile(t, `fn f() { break; }`)
	fx.only(t, diag.SemaLoopControlOutsideLoop)
}

func TestLoopWithBreakRuns(t *testing.T) {
	fx := compileOK(t, `
fn first(n: i32) -> i32 {
    loop {
        if n == n { break; }
        continue;
    }
    n
}
`)
	fd := fx.decl(t, "first")
	if v := run(t, fx, fd.Mangled, vm.IntValue(5)); v.Int != 5 {
		t.Fatalf("first(5) = %s", v)
	}
}

func TestCastsUseUserConversions(t *testing.T) {
	fx := compileOK(t, `
fn widen(x: i32) -> i64 { i64(x) }
fn i64(x: bool) -> i64 { 7i64 }
fn flag() -> i64 { i64(true) }
fn f32(x: bool) -> f32 { 1.0 }
fn g() -> f32 { f32(true) }
`)
	widen := fx.decl(t, "widen").Value.Func()
	if !hasOp(widen, mir.OpConv) || hasOp(widen, mir.OpCall) {
		t.Fatalf("numeric cast next to a user i64(bool) did not use the builtin conversion")
	}
	if v := run(t, fx, fx.decl(t, "widen").Mangled, vm.IntValue(3)); v.Int != 3 {
		t.Fatalf("widen(3) = %s", v)
	}
	if !hasOp(fx.decl(t, "flag").Value.Func(), mir.OpCall) {
		t.Fatalf("i64(true) did not call the user conversion")
	}
	if !hasOp(fx.decl(t, "g").Value.Func(), mir.OpCall) {
		t.Fatalf("cast did not call the user conversion")
	}
}

func TestIntegerLiteralOutOfRange(t *testing.T) {
	for _, tc := range []struct{ src, msg string }{
		{`fn f() -> i8 { 300 }`, "`300` out of range for `i8`"},
		{`fn f() -> u8 { 256 }`, "`256` out of range for `u8`"},
		{`fn f() -> i16 { 40000 }`, "for `i16`"},
		{`fn f() -> i64 { 2i8 + 200i8 }`, "`200` out of range for `i8`"},
	} {
		fx := compile(t, tc.src)
		d := fx.only(t, diag.SemaTypeMismatch)
		mustContain(t, d.Message, tc.msg)
	}

	fx := compileOK(t, `
fn lo() -> i8 { 127 }
fn hi() -> u8 { 255 }
`)
	if v := run(t, fx, fx.decl(t, "lo").Mangled); v.Int != 127 {
		t.Fatalf("lo() = %s, want 127", v)
	}
	if fx.decl(t, "hi").Value.Func() == nil {
		t.Fatalf("u8 boundary literal rejected")
	}
}

func TestUnresolvedIdentifier(t *testing.T) {
	fx := compile(t, `fn f() -> i32 { nope }`)
	d := fx.only(t, diag.SemaUnresolvedSymbol)
	mustContain(t, d.Message, "nope")
}

type ctxShape struct {
	Depth, FnScope, Calls, Breaks, Continues int
	Caller                                   string
	InFn                                     bool
}

func shapeOf(cx *Context) ctxShape {
	s := ctxShape{
		Depth:     cx.Depth(),
		FnScope:   cx.fnScope,
		Calls:     cx.CallDepth(),
		Breaks:    len(cx.breakLabels),
		Continues: len(cx.continueLabels),
		InFn:      cx.fn != nil,
	}
	if n := len(cx.callStack); n > 0 {
		s.Caller = cx.callStack[n-1].Name
	}
	return s
}

func TestFailedCompileRestoresContext(t *testing.T) {
	fx := newFixture(t, Options{})
	file := parseSrc(t, `fn bad() -> i32 { loop { nope; } }`)
	for _, item := range file.Items {
		if _, err := fx.c.RegisterDeclaration(item.Fn); err != nil {
			t.Fatal(err)
		}
	}

	cx := fx.c.Context()
	cx.pushScope()
	cx.pushScope()
	outer := &loopLabel{}
	cx.breakLabels = []*loopLabel{outer}
	cx.continueLabels = []*loopLabel{outer}
	cx.callStack = append(cx.callStack, &FuncDecl{Name: "caller"})
	before := shapeOf(cx)

	_, err := fx.c.Compile(fx.decl(t, "bad"))
	if errCode(err) != diag.SemaUnresolvedSymbol {
		t.Fatalf("err = %v", err)
	}
	if diff := cmp.Diff(before, shapeOf(cx)); diff != "" {
		t.Fatalf("context not restored (-before +after):\n%s", diff)
	}
	if cx.breakLabels[0] != outer || cx.continueLabels[0] != outer {
		t.Fatalf("loop labels were replaced")
	}

	reported := fx.bag.Len()
	if _, again := fx.c.Compile(fx.decl(t, "bad")); again != err {
		t.Fatalf("failure not memoized: %v", again)
	}
	if fx.bag.Len() != reported {
		t.Fatalf("memoized failure reported twice")
	}
}

func TestCurrentFunctionPanicsOutsideCompilation(t *testing.T) {
	fx := compileOK(t, `fn f() -> i32 { 1 }`)
	if fx.c.Context().CallDepth() != 0 {
		t.Fatalf("call stack not empty after compile")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("CurrentFunction did not panic")
		}
	}()
	fx.c.CurrentFunction()
}

func TestLaterFilesSeeEarlierOnes(t *testing.T) {
	fx := newFixture(t, Options{})
	if err := fx.c.CompileFile(parseSrc(t, `fn base() -> i32 { 40 }`)); err != nil {
		t.Fatal(err)
	}
	if err := fx.c.CompileFile(parseSrc(t, `fn top() -> i32 { base() + 2 }`)); err != nil {
		t.Fatalf("second file: %v\n%+v", err, fx.bag.Items())
	}
	top := fx.decl(t, "top")
	if top.Module == fx.decl(t, "base").Module {
		t.Fatalf("files share a unit")
	}
	if v := run(t, fx, top.Mangled); v.Int != 42 {
		t.Fatalf("top() = %s", v)
	}
}
