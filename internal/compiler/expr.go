package compiler

import (
	"strconv"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/types"
)

// expr compiles e at the current insertion point. hint, when set, is the
// type an unsuffixed literal adapts to.
func (c *Compiler) expr(e *ast.Expr, hint types.TypeID) (TypedValue, error) {
	switch e.Kind {
	case ast.ExprInt, ast.ExprFloat, ast.ExprBool:
		return c.literal(e, hint)
	case ast.ExprIdent:
		return c.ident(e)
	case ast.ExprCall:
		return c.call(e)
	case ast.ExprBinary:
		return c.binary(e, hint)
	case ast.ExprBlock:
		return c.block(e, hint)
	case ast.ExprReturn:
		return c.returnExpr(e)
	case ast.ExprLoop:
		return c.loop(e)
	case ast.ExprBreak, ast.ExprContinue:
		return c.loopControl(e)
	case ast.ExprIf:
		return c.ifExpr(e)
	case ast.ExprFn:
		return c.RegisterDeclaration(e.Fn)
	case ast.ExprLambda:
		return c.compileLambda(e.Fn)
	}
	return NoValue, c.failf(diag.SemaTypeMismatch, e.Span, "cannot compile %s expression", e.Kind)
}

func (c *Compiler) void() TypedValue {
	return TypedValue{Type: c.types.Builtins().Void}
}

func (c *Compiler) literal(e *ast.Expr, hint types.TypeID) (TypedValue, error) {
	in := c.types
	b := in.Builtins()
	if e.Kind == ast.ExprBool {
		return TypedValue{Val: mir.ConstBool(b.Bool, e.Lit.Bool), Type: b.Bool}, nil
	}
	ty := b.I32
	if e.Kind == ast.ExprFloat {
		ty = b.F64
	}
	if e.Lit.Suffix != "" {
		t, ok := in.ByName(e.Lit.Suffix)
		if !ok || !in.MustLookup(t).IsNumeric() {
			return NoValue, c.failf(diag.SemaUnknownType, e.Span, "unknown literal suffix `%s`", e.Lit.Suffix)
		}
		ty = t
	} else if c.literalFits(e.Kind, hint) {
		ty = in.Unmut(hint)
	}
	switch in.Kind(ty) {
	case types.KindFloat:
		f, err := strconv.ParseFloat(e.Lit.Text, 64)
		if err != nil {
			return NoValue, c.failf(diag.SemaTypeMismatch, e.Span, "invalid float literal `%s`", e.Lit.Text)
		}
		return TypedValue{Val: mir.ConstFloat(ty, f), Type: ty}, nil
	case types.KindUint:
		if e.Kind == ast.ExprInt {
			u, err := strconv.ParseUint(e.Lit.Text, 10, int(in.MustLookup(ty).Width))
			if err != nil {
				return NoValue, c.literalRange(e, ty)
			}
			return TypedValue{Val: mir.ConstInt(ty, int64(u)), Type: ty}, nil //nolint:gosec // bit pattern kept
		}
	case types.KindInt:
		if e.Kind == ast.ExprInt {
			n, err := strconv.ParseInt(e.Lit.Text, 10, int(in.MustLookup(ty).Width))
			if err != nil {
				return NoValue, c.literalRange(e, ty)
			}
			return TypedValue{Val: mir.ConstInt(ty, n), Type: ty}, nil
		}
	}
	return NoValue, c.failf(diag.SemaTypeMismatch, e.Span, "float literal `%s` cannot have type `%s`", e.Lit.Text, in.String(ty))
}

func (c *Compiler) literalRange(e *ast.Expr, ty types.TypeID) error {
	return c.failf(diag.SemaTypeMismatch, e.Span, "integer literal `%s` out of range for `%s`", e.Lit.Text, c.types.String(ty))
}

// literalFits reports whether an unsuffixed literal of kind may take type
// hint: integer literals adapt to any numeric type, float literals to floats.
func (c *Compiler) literalFits(kind ast.ExprKind, hint types.TypeID) bool {
	if hint == types.NoTypeID {
		return false
	}
	switch c.types.Kind(hint) {
	case types.KindInt, types.KindUint:
		return kind == ast.ExprInt
	case types.KindFloat:
		return true
	}
	return false
}

func isBareLiteral(e *ast.Expr) bool {
	return (e.Kind == ast.ExprInt || e.Kind == ast.ExprFloat) && e.Lit.Suffix == ""
}

// ident reads a variable, or takes the value of the single visible function
// declared under the name.
func (c *Compiler) ident(e *ast.Expr) (TypedValue, error) {
	if lv, ok := c.ctx.lookupVar(e.Name); ok {
		return c.readLocal(lv), nil
	}
	var visible []*FuncDecl
	for _, fd := range c.view.Lookup(e.Name) {
		if fd.Scope <= c.ctx.Depth() && !fd.IsGeneric() {
			visible = append(visible, fd)
		}
	}
	switch len(visible) {
	case 0:
		return NoValue, c.failf(diag.SemaUnresolvedSymbol, e.Span, "undefined name `%s`", e.Name)
	case 1:
		v, err := c.Compile(visible[0])
		if err != nil {
			return NoValue, err
		}
		if v.IsPlaceholder() {
			return NoValue, c.comptimeOnly(visible[0], e)
		}
		return v, nil
	}
	return NoValue, c.fail(diag.SemaAmbiguousOverload, e.Span,
		"cannot take the value of overloaded function `"+e.Name+"`", c.candidateNotes(visible)...)
}

func (c *Compiler) readLocal(lv *local) TypedValue {
	if !lv.byRef {
		return TypedValue{Val: lv.val, Type: lv.ty}
	}
	v := c.b.Load(lv.val, c.types.Unmut(lv.ty))
	return TypedValue{Val: v, Type: lv.ty, Addr: lv.val}
}

var binKinds = map[ast.BinaryOp]mir.BinKind{
	ast.OpAdd: mir.BinAdd,
	ast.OpSub: mir.BinSub,
	ast.OpMul: mir.BinMul,
	ast.OpDiv: mir.BinDiv,
	ast.OpEq:  mir.CmpEq,
	ast.OpLt:  mir.CmpLt,
}

// binary compiles arithmetic and comparisons on operands of one numeric
// type. An unsuffixed literal operand takes the type of the other operand.
func (c *Compiler) binary(e *ast.Expr, hint types.TypeID) (TypedValue, error) {
	bin := e.Binary
	cmp := bin.Op == ast.OpEq || bin.Op == ast.OpLt
	if cmp {
		hint = types.NoTypeID
	}
	var lhs, rhs TypedValue
	var err error
	if isBareLiteral(bin.Left) && !isBareLiteral(bin.Right) {
		if rhs, err = c.expr(bin.Right, hint); err != nil {
			return NoValue, err
		}
		if lhs, err = c.expr(bin.Left, rhs.Type); err != nil {
			return NoValue, err
		}
	} else {
		if lhs, err = c.expr(bin.Left, hint); err != nil {
			return NoValue, err
		}
		if rhs, err = c.expr(bin.Right, lhs.Type); err != nil {
			return NoValue, err
		}
	}
	in := c.types
	lt, rt := in.Unmut(lhs.Type), in.Unmut(rhs.Type)
	ok := lt == rt && lhs.Val != nil && rhs.Val != nil
	if ok {
		tt := in.MustLookup(lt)
		ok = tt.IsNumeric() || bin.Op == ast.OpEq && tt.Kind == types.KindBool
	}
	if !ok {
		return NoValue, c.failf(diag.SemaInvalidOperands, e.Span,
			"invalid operands to `%s`: `%s` and `%s`", bin.Op, in.String(lhs.Type), in.String(rhs.Type))
	}
	kind := binKinds[bin.Op]
	if cmp {
		return TypedValue{Val: c.b.Cmp(kind, lhs.Val, rhs.Val), Type: in.Builtins().Bool}, nil
	}
	return TypedValue{Val: c.b.Binary(kind, lhs.Val, rhs.Val), Type: lt}, nil
}

// block compiles its items in a new scope; a value block yields its last
// item.
func (c *Compiler) block(e *ast.Expr, hint types.TypeID) (TypedValue, error) {
	cx := c.ctx
	cx.pushScope()
	defer cx.popScope()

	items := e.Block.Items
	result := c.void()
	for i, item := range items {
		last := i == len(items)-1
		itemHint := types.NoTypeID
		if last && e.Block.Value {
			itemHint = hint
		}
		v, err := c.expr(item, itemHint)
		if err != nil {
			return NoValue, err
		}
		if last && e.Block.Value {
			result = v
		}
	}
	return result, nil
}

// returnExpr records a return site and continues in a fresh unreachable
// block; the return itself is emitted after reconciliation.
func (c *Compiler) returnExpr(e *ast.Expr) (TypedValue, error) {
	fd := c.CurrentFunction()
	v := c.void()
	span := e.Span
	if e.Value != nil {
		var err error
		if v, err = c.expr(e.Value, c.ctx.retHint); err != nil {
			return NoValue, err
		}
		span = ast.FinalSpan(e.Value)
	}
	c.addReturn(fd, v, span)
	c.deadBlock("after.return")
	return c.void(), nil
}

func (c *Compiler) deadBlock(name string) {
	c.b.SetInsertPoint(c.ctx.fn.NewBlock(name))
	c.ctx.dead = true
}

func (c *Compiler) loop(e *ast.Expr) (TypedValue, error) {
	cx := c.ctx
	f := cx.fn
	head := f.NewBlock("loop")
	exit := f.NewBlock("loop.end")
	c.b.Br(head)
	c.b.SetInsertPoint(head)
	cx.dead = false

	cont := &loopLabel{target: head}
	brk := &loopLabel{target: exit}
	cx.continueLabels = append(cx.continueLabels, cont)
	cx.breakLabels = append(cx.breakLabels, brk)
	defer func() {
		cx.continueLabels = cx.continueLabels[:len(cx.continueLabels)-1]
		cx.breakLabels = cx.breakLabels[:len(cx.breakLabels)-1]
	}()

	body := &ast.Expr{Kind: ast.ExprBlock, Span: e.Span, Block: e.Block}
	if _, err := c.block(body, types.NoTypeID); err != nil {
		return NoValue, err
	}
	if !cx.dead {
		c.b.Br(head)
	}
	c.b.SetInsertPoint(exit)
	cx.dead = !brk.used
	return c.void(), nil
}

func (c *Compiler) loopControl(e *ast.Expr) (TypedValue, error) {
	cx := c.ctx
	labels, what := cx.breakLabels, "break"
	if e.Kind == ast.ExprContinue {
		labels, what = cx.continueLabels, "continue"
	}
	if len(labels) == 0 {
		return NoValue, c.failf(diag.SemaLoopControlOutsideLoop, e.Span, "`%s` outside of a loop", what)
	}
	label := labels[len(labels)-1]
	label.used = true
	c.b.Br(label.target)
	c.deadBlock("after." + what)
	return c.void(), nil
}

func (c *Compiler) ifExpr(e *ast.Expr) (TypedValue, error) {
	cx := c.ctx
	cond, err := c.expr(e.If.Cond, types.NoTypeID)
	if err != nil {
		return NoValue, err
	}
	if cond.Val == nil || c.types.Unmut(cond.Type) != c.types.Builtins().Bool {
		return NoValue, c.failf(diag.SemaTypeMismatch, e.If.Cond.Span,
			"if condition must be `bool`, found `%s`", c.types.String(cond.Type))
	}
	f := cx.fn
	then := f.NewBlock("if.then")
	join := f.NewBlock("if.end")
	els := join
	if e.If.Else != nil {
		els = f.NewBlock("if.else")
	}
	c.b.CondBr(cond.Val, then, els)

	branch := func(b *mir.Block, body *ast.Expr) (bool, error) {
		c.b.SetInsertPoint(b)
		cx.dead = false
		if _, err := c.expr(body, types.NoTypeID); err != nil {
			return false, err
		}
		if !cx.dead {
			c.b.Br(join)
		}
		return cx.dead, nil
	}
	thenDead, err := branch(then, e.If.Then)
	if err != nil {
		return NoValue, err
	}
	elseDead := false
	if e.If.Else != nil {
		if elseDead, err = branch(els, e.If.Else); err != nil {
			return NoValue, err
		}
	}
	c.b.SetInsertPoint(join)
	cx.dead = thenDead && elseDead
	return c.void(), nil
}
