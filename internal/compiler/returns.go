package compiler

import (
	"errors"
	"fmt"

	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/source"
	"kiln/internal/trace"
	"kiln/internal/types"
)

// addReturn records a return executed in the current block. The block stays
// open until emitReturns.
func (c *Compiler) addReturn(fd *FuncDecl, v TypedValue, at source.Span) {
	fd.Returns = append(fd.Returns, ReturnSite{Value: v, Span: at, Block: c.b.InsertBlock()})
}

// reconcileReturns checks every return site of fd against target. last is
// the site the target was inferred from, nil when target was declared.
func (c *Compiler) reconcileReturns(fd *FuncDecl, target types.TypeID, last *ReturnSite) ([]types.CheckResult, error) {
	span := trace.Begin(c.tracer, trace.ScopeNode, "reconcile_returns", c.span).
		WithExtra("fn", fd.irName()).
		WithExtra("sites", fmt.Sprint(len(fd.Returns)))
	in := c.types
	results := make([]types.CheckResult, len(fd.Returns))
	var errs []error
	for i, site := range fd.Returns {
		res := in.Check(target, site.Value.Type)
		results[i] = res
		if res.Ok() {
			continue
		}
		got, want := in.String(site.Value.Type), in.String(target)
		if last == nil {
			errs = append(errs, c.fail(diag.SemaReturnTypeMismatch, site.Span,
				fmt.Sprintf("return type mismatch: `%s` declares `%s`, found `%s`", c.displayName(fd), want, got)))
			continue
		}
		errs = append(errs, c.fail(diag.SemaReturnTypeMismatch, site.Span,
			fmt.Sprintf("return type mismatch: found `%s`, but `%s` returns `%s`", got, c.displayName(fd), want),
			note{last.Span, fmt.Sprintf("return type `%s` inferred from here", want)}))
	}
	if len(errs) > 0 {
		span.End("mismatch")
		return nil, errors.Join(errs...)
	}
	span.WithExtra("type", in.String(target)).End("")
	return results, nil
}

// emitReturns terminates each return-site block with its return. A site that
// only matched through type variables returns its value reinterpreted as the
// target type.
func (c *Compiler) emitReturns(fd *FuncDecl, target types.TypeID, results []types.CheckResult) {
	void := target == c.types.Builtins().Void
	for i, site := range fd.Returns {
		if site.Block.Terminated() {
			continue
		}
		c.b.SetInsertPoint(site.Block)
		if void {
			c.b.Ret(nil)
			continue
		}
		v := site.Value.Val
		if v == nil {
			c.b.Ret(mir.Undef(target))
			continue
		}
		if results[i].Res == types.SuccessWithTypeVars && v.Type != target {
			v = c.b.Reinterpret(v, target)
		}
		c.b.Ret(v)
	}
}

func (c *Compiler) displayName(fd *FuncDecl) string {
	if fd.Name == "" {
		return "lambda"
	}
	return fd.Name
}
