package ast

import "kiln/internal/source"

type ExprKind uint8

const (
	ExprInt ExprKind = iota
	ExprFloat
	ExprBool
	ExprIdent
	ExprCall
	ExprBinary
	ExprBlock
	ExprReturn
	ExprLoop
	ExprBreak
	ExprContinue
	ExprIf
	ExprFn     // nested named declaration
	ExprLambda // anonymous function value
)

func (k ExprKind) String() string {
	switch k {
	case ExprInt:
		return "int"
	case ExprFloat:
		return "float"
	case ExprBool:
		return "bool"
	case ExprIdent:
		return "ident"
	case ExprCall:
		return "call"
	case ExprBinary:
		return "binary"
	case ExprBlock:
		return "block"
	case ExprReturn:
		return "return"
	case ExprLoop:
		return "loop"
	case ExprBreak:
		return "break"
	case ExprContinue:
		return "continue"
	case ExprIf:
		return "if"
	case ExprFn:
		return "fn"
	case ExprLambda:
		return "lambda"
	}
	return "unknown"
}

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpLt
)

func (op BinaryOp) String() string {
	return [...]string{"+", "-", "*", "/", "==", "<"}[op]
}

type LitData struct {
	Text   string // digits without suffix
	Suffix string // i64, f32, ...; empty for defaults
	Bool   bool
}

type CallData struct {
	Callee *Expr
	Args   []*Expr
}

type BinaryData struct {
	Op          BinaryOp
	Left, Right *Expr
}

// BlockData is a `{ ... }` sequence. When Value is set the last item is the
// block's value; otherwise the block is void.
type BlockData struct {
	Items []*Expr
	Value bool
}

type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr // may be nil
}

// Expr is the closed expression variant; Kind selects the payload.
type Expr struct {
	Kind   ExprKind
	Span   source.Span
	Lit    *LitData    // ExprInt, ExprFloat, ExprBool
	Name   string      // ExprIdent
	Call   *CallData   // ExprCall
	Binary *BinaryData // ExprBinary
	Block  *BlockData  // ExprBlock, ExprLoop (body)
	If     *IfData     // ExprIf
	Value  *Expr       // ExprReturn; nil for a bare return
	Fn     *FnDecl     // ExprFn, ExprLambda
}

// FinalExpr returns the expression that produces e's value: the tail of
// nested value blocks, or e itself.
func FinalExpr(e *Expr) *Expr {
	for e != nil && e.Kind == ExprBlock && e.Block.Value && len(e.Block.Items) > 0 {
		e = e.Block.Items[len(e.Block.Items)-1]
	}
	return e
}

// FinalSpan is the location of the last thing evaluated in e.
func FinalSpan(e *Expr) source.Span {
	switch e.Kind {
	case ExprBlock:
		if len(e.Block.Items) == 0 {
			return e.Span.Tail()
		}
		return FinalSpan(e.Block.Items[len(e.Block.Items)-1])
	case ExprIf:
		if e.If.Else != nil {
			return FinalSpan(e.If.Else)
		}
		return FinalSpan(e.If.Then)
	case ExprReturn:
		if e.Value != nil {
			return FinalSpan(e.Value)
		}
	case ExprBinary:
		return FinalSpan(e.Binary.Right)
	}
	return e.Span
}

// EndsWithReturn reports whether the last evaluated item of e is a return.
func EndsWithReturn(e *Expr) bool {
	for e != nil && e.Kind == ExprBlock && len(e.Block.Items) > 0 {
		e = e.Block.Items[len(e.Block.Items)-1]
	}
	return e != nil && e.Kind == ExprReturn
}
