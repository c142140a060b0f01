package compiler

import (
	"fmt"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/source"
	"kiln/internal/types"
)

// call compiles a call expression. A callee name is tried as a variable of
// function type, then as a type name (a cast), then as a function.
func (c *Compiler) call(e *ast.Expr) (TypedValue, error) {
	callee := e.Call.Callee
	if callee.Kind == ast.ExprIdent {
		if lv, ok := c.ctx.lookupVar(callee.Name); ok {
			fn := c.readLocal(lv)
			return c.callValue(fn, e)
		}
		if to, ok := c.castTarget(callee.Name); ok {
			if len(e.Call.Args) != 1 {
				return NoValue, c.failf(diag.SemaTypeMismatch, e.Span,
					"conversion to `%s` takes exactly one argument", callee.Name)
			}
			arg, err := c.expr(e.Call.Args[0], types.NoTypeID)
			if err != nil {
				return NoValue, err
			}
			return c.CastFn(arg, to, e.Span)
		}
		args, err := c.args(e.Call.Args)
		if err != nil {
			return NoValue, err
		}
		return c.CallFn(callee.Name, args, e.Span)
	}
	fn, err := c.expr(callee, types.NoTypeID)
	if err != nil {
		return NoValue, err
	}
	return c.callValue(fn, e)
}

func (c *Compiler) args(list []*ast.Expr) ([]TypedValue, error) {
	out := make([]TypedValue, len(list))
	for i, a := range list {
		v, err := c.expr(a, types.NoTypeID)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// castTarget resolves a callee spelling naming a primitive type.
func (c *Compiler) castTarget(name string) (types.TypeID, bool) {
	t, ok := c.types.ByName(name)
	if !ok || t == c.types.Builtins().Void {
		return types.NoTypeID, false
	}
	return t, true
}

// CallFn resolves name for the argument types, compiles the chosen function
// and emits the call.
func (c *Compiler) CallFn(name string, args []TypedValue, at source.Span) (TypedValue, error) {
	argTypes := make([]types.TypeID, len(args))
	for i, a := range args {
		if a.IsNone() {
			return NoValue, nil
		}
		argTypes[i] = a.Type
	}
	fd, err := c.ResolveDecl(name, argTypes, at)
	if err != nil {
		return NoValue, err
	}
	fn, err := c.compileWithArgs(fd, argTypes, at)
	if err != nil {
		return NoValue, err
	}
	if fn.IsPlaceholder() {
		return NoValue, c.fail(diag.SemaComptimeOnlyCall, at,
			fmt.Sprintf("`%s` can only be called at compile time", name), note{fd.Span(), "declared here"})
	}
	return c.emitCall(fn, args, at)
}

// callValue calls a function-typed value.
func (c *Compiler) callValue(fn TypedValue, e *ast.Expr) (TypedValue, error) {
	in := c.types
	info, ok := in.FnInfo(in.Unmut(fn.Type))
	if !ok || fn.Val == nil {
		return NoValue, c.failf(diag.SemaNotCallable, e.Call.Callee.Span,
			"`%s` is not a function", in.String(fn.Type))
	}
	args, err := c.args(e.Call.Args)
	if err != nil {
		return NoValue, err
	}
	if len(args) != len(info.Params) {
		return NoValue, c.failf(diag.SemaNoOverload, e.Span,
			"function of type `%s` takes %d arguments, got %d", in.String(fn.Type), len(info.Params), len(args))
	}
	for i, a := range args {
		if !in.Check(info.Params[i], a.Type).Ok() {
			return NoValue, c.failf(diag.SemaTypeMismatch, e.Call.Args[i].Span,
				"argument %d: expected `%s`, found `%s`", i+1, in.String(info.Params[i]), in.String(a.Type))
		}
	}
	return c.emitCall(fn, args, e.Span)
}

// emitCall passes each argument by value or, for pass-by-reference
// parameters, by address; a value without an address is spilled first.
func (c *Compiler) emitCall(fn TypedValue, args []TypedValue, at source.Span) (TypedValue, error) {
	in := c.types
	info, ok := in.FnInfo(in.Unmut(fn.Type))
	if !ok {
		return NoValue, c.failf(diag.SemaNotCallable, at, "`%s` is not a function", in.String(fn.Type))
	}
	vals := make([]*mir.Value, len(args))
	for i, a := range args {
		if a.Val == nil {
			return NoValue, c.failf(diag.SemaTypeMismatch, at, "argument %d has no value", i+1)
		}
		vals[i] = a.Val
		if i >= len(info.Params) || !in.IsByRef(info.Params[i]) {
			continue
		}
		if a.Addr != nil {
			vals[i] = a.Addr
			continue
		}
		slot := c.b.Alloca(in.Unmut(a.Type))
		c.b.Store(a.Val, slot)
		vals[i] = slot
	}
	res := c.b.Call(fn.Val, vals, info.Result)
	return TypedValue{Val: res, Type: info.Result}, nil
}

// CastFn converts v to the type to. A user function declared under the
// target type's spelling, such as `fn i64(x: f64) -> i64`, takes
// precedence over the builtin numeric conversions when it accepts v's type.
func (c *Compiler) CastFn(v TypedValue, to types.TypeID, at source.Span) (TypedValue, error) {
	if v.IsNone() {
		return NoValue, nil
	}
	in := c.types
	name := c.typeName(to)
	if c.castDecl(name, v.Type) {
		return c.CallFn(name, []TypedValue{v}, at)
	}
	from := in.Unmut(v.Type)
	if from == to {
		return TypedValue{Val: v.Val, Type: to}, nil
	}
	ft, fok := in.Lookup(from)
	tt, tok := in.Lookup(to)
	if v.Val == nil || !fok || !tok || !ft.IsNumeric() || !tt.IsNumeric() {
		return NoValue, c.failf(diag.SemaTypeMismatch, at, "cannot convert `%s` to `%s`", in.String(v.Type), in.String(to))
	}
	return TypedValue{Val: c.b.Conv(v.Val, to), Type: to}, nil
}

// castDecl reports whether a visible one-argument function called name
// accepts from. Nothing is reported when none does.
func (c *Compiler) castDecl(name string, from types.TypeID) bool {
	depth := c.ctx.Depth()
	arg := []types.TypeID{from}
	for _, fd := range c.view.Lookup(name) {
		if fd.Scope > depth || len(fd.params) != 1 {
			continue
		}
		if c.types.CheckArgs(fd.params, arg).Ok() {
			return true
		}
	}
	return false
}

func (c *Compiler) comptimeOnly(fd *FuncDecl, e *ast.Expr) error {
	return c.fail(diag.SemaComptimeOnlyCall, e.Span,
		fmt.Sprintf("`%s` is only available at compile time", fd.Name), note{fd.Span(), "declared here"})
}
