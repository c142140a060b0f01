package ast

import (
	"testing"

	"kiln/internal/source"
)

func sp(a, b uint32) source.Span { return source.Span{Start: a, End: b} }

func TestFinalSpanDescends(t *testing.T) {
	ret := &Expr{Kind: ExprReturn, Span: sp(10, 18), Value: &Expr{Kind: ExprIdent, Name: "x", Span: sp(17, 18)}}
	inner := &Expr{Kind: ExprBlock, Span: sp(8, 20), Block: &BlockData{Items: []*Expr{ret}}}
	outer := &Expr{Kind: ExprBlock, Span: sp(0, 22), Block: &BlockData{Items: []*Expr{
		{Kind: ExprInt, Span: sp(2, 3), Lit: &LitData{Text: "1"}},
		inner,
	}}}
	if got := FinalSpan(outer); got != sp(17, 18) {
		t.Fatalf("FinalSpan = %v", got)
	}
	if !EndsWithReturn(outer) {
		t.Fatal("EndsWithReturn should see the nested return")
	}
	empty := &Expr{Kind: ExprBlock, Span: sp(4, 6), Block: &BlockData{}}
	if got := FinalSpan(empty); got != sp(6, 6) {
		t.Fatalf("empty block FinalSpan = %v", got)
	}
}

func TestFinalExpr(t *testing.T) {
	lit := &Expr{Kind: ExprInt, Lit: &LitData{Text: "3"}}
	b := &Expr{Kind: ExprBlock, Block: &BlockData{Items: []*Expr{lit}, Value: true}}
	if FinalExpr(b) != lit {
		t.Fatal("value block should yield its tail")
	}
	v := &Expr{Kind: ExprBlock, Block: &BlockData{Items: []*Expr{lit}}}
	if FinalExpr(v) != v {
		t.Fatal("void block is its own final expression")
	}
}

func TestVariadicAndDirectives(t *testing.T) {
	d := &FnDecl{
		Name: "printf",
		Params: []Param{
			{Name: "fmt", Type: &TypeExpr{Kind: TypeNamed, Name: "i64"}},
			{Name: "rest"},
		},
		Modifiers: []Modifier{{Kind: ModDirective, Name: "inline"}, {Kind: ModKeyword, Name: "pub"}},
	}
	if !d.IsVariadic() || len(d.FixedParams()) != 1 {
		t.Fatal("trailing untyped parameter should mark variadic")
	}
	if !d.HasDirective("inline") || d.HasDirective("pub") {
		t.Fatal("HasDirective must only match directives")
	}
	recv := &FnDecl{Params: []Param{{Name: "self", Kind: ParamReceiver}}}
	if recv.IsVariadic() {
		t.Fatal("an untyped receiver is not variadic")
	}
	ty := &TypeExpr{Kind: TypeFn, Args: []*TypeExpr{{Kind: TypeVar, Name: "t"}}, Elem: &TypeExpr{Kind: TypeNamed, Name: "Box", Args: []*TypeExpr{{Kind: TypeVar, Name: "t"}}}}
	if ty.String() != "fn('t)->Box<'t>" {
		t.Fatalf("TypeExpr.String = %q", ty.String())
	}
}
