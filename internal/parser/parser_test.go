package parser

import (
	"testing"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/source"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kn", []byte(src))
	bag := diag.NewBag(32)
	f := ParseFile(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	return f, bag
}

func parseOK(t *testing.T, src string) *ast.File {
	t.Helper()
	f, bag := parse(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	return f
}

func TestParseFnDecl(t *testing.T) {
	f := parseOK(t, `@inline pub fn add(a: i32, b: mut i32) -> i32 { return a + b; }`)
	if len(f.Items) != 1 || f.Items[0].Kind != ast.ItemFn {
		t.Fatalf("items = %+v", f.Items)
	}
	fn := f.Items[0].Fn
	if fn.Name != "add" || len(fn.Params) != 2 || fn.Ret.String() != "i32" {
		t.Fatalf("fn = %+v", fn)
	}
	if fn.Params[1].Type.Kind != ast.TypeMut {
		t.Fatalf("second param should be mut, got %s", fn.Params[1].Type)
	}
	if len(fn.Modifiers) != 2 || fn.Modifiers[0].String() != "@inline" || fn.Modifiers[1].String() != "pub" {
		t.Fatalf("modifiers = %+v", fn.Modifiers)
	}
	if !ast.EndsWithReturn(fn.Body) {
		t.Fatal("body should end with a return")
	}
}

func TestParseDeclarationOnlyAndVariadic(t *testing.T) {
	f := parseOK(t, `fn printf(fmt: i64, rest);`)
	fn := f.Items[0].Fn
	if fn.Body != nil || !fn.IsVariadic() {
		t.Fatalf("expected variadic declaration, got %+v", fn)
	}
}

func TestParseVariadicMustBeLast(t *testing.T) {
	_, bag := parse(t, `fn bad(rest, x: i32);`)
	if bag.Len() == 0 || bag.Items()[0].Code != diag.SynVariadicNotLast {
		t.Fatalf("expected SynVariadicNotLast, got %+v", bag.Items())
	}
}

func TestParseExtAndTypes(t *testing.T) {
	f := parseOK(t, `
type Box<'t>;
ext Box<'t> {
	fn unwrap(self, fallback: 't) -> 't { fallback }
}
fn apply(f: fn('t) -> 't, v: 't) -> 't { f(v) }
fn sum(xs: [i64], p: *u8) -> i64;
`)
	if len(f.Items) != 4 {
		t.Fatalf("items = %d", len(f.Items))
	}
	td := f.Items[0].Type
	if td.Name != "Box" || len(td.Params) != 1 || td.Params[0] != "t" {
		t.Fatalf("type decl = %+v", td)
	}
	ext := f.Items[1].Ext
	if ext.Target.String() != "Box<'t>" || len(ext.Fns) != 1 {
		t.Fatalf("ext = %+v", ext)
	}
	recv := ext.Fns[0].Params[0]
	if recv.Kind != ast.ParamReceiver || recv.Type != nil {
		t.Fatalf("receiver = %+v", recv)
	}
	apply := f.Items[2].Fn
	if apply.Params[0].Type.String() != "fn('t)->'t" {
		t.Fatalf("fn type = %s", apply.Params[0].Type)
	}
	if !apply.Body.Block.Value {
		t.Fatal("trailing call without semicolon should be the block value")
	}
	if f.Items[3].Fn.Params[0].Type.String() != "[i64]" || f.Items[3].Fn.Params[1].Type.String() != "*u8" {
		t.Fatal("array/pointer types lost")
	}
}

func TestParseBodyForms(t *testing.T) {
	f := parseOK(t, `
fn body(x: i32) -> i32 {
	loop {
		if x < 3 { break; } else { continue; }
	}
	fn inner(y: i32) -> i32 { y * 2 }
	let_free(fn(z: i32) -> i32 { z });
	inner(x) + 1i64 - 2.5f32 / 1.0
}
`)
	items := f.Items[0].Fn.Body.Block.Items
	want := []ast.ExprKind{ast.ExprLoop, ast.ExprFn, ast.ExprCall, ast.ExprBinary}
	if len(items) != len(want) {
		t.Fatalf("items = %d", len(items))
	}
	for i, k := range want {
		if items[i].Kind != k {
			t.Errorf("item %d kind = %s, want %s", i, items[i].Kind, k)
		}
	}
	if items[2].Call.Args[0].Kind != ast.ExprLambda {
		t.Fatal("lambda argument not parsed")
	}
	// (inner(x) + 1i64) - (2.5f32 / 1.0)
	tail := items[3]
	if tail.Binary.Op != ast.OpSub || tail.Binary.Left.Binary.Op != ast.OpAdd || tail.Binary.Right.Binary.Op != ast.OpDiv {
		t.Fatal("precedence wrong")
	}
	lit := tail.Binary.Left.Binary.Right.Lit
	if lit.Text != "1" || lit.Suffix != "i64" {
		t.Fatalf("literal = %+v", lit)
	}
	loop := items[0]
	ifExpr := loop.Block.Items[0]
	if ifExpr.Kind != ast.ExprIf || ifExpr.If.Else == nil {
		t.Fatal("if/else lost")
	}
}

func TestParseRecoversAtNextItem(t *testing.T) {
	f, bag := parse(t, "fn a( -> i32;\nfn b() -> i32 { 1 }")
	if bag.Len() == 0 {
		t.Fatal("expected a syntax error")
	}
	if len(f.Items) != 1 || f.Items[0].Fn.Name != "b" {
		t.Fatalf("expected recovery to keep b, got %+v", f.Items)
	}
}
