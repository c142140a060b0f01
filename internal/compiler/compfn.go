package compiler

import (
	"kiln/internal/ast"
	"kiln/internal/mir"
	"kiln/internal/trace"
	"kiln/internal/types"
)

// Compile returns the compiled value of fd, compiling it on first use.
// A compiled value is returned verbatim on every later call and a failure is
// memoized, so the body of fd is compiled at most once. Generic declarations
// compile through ResolveAndCompile, which specializes them first.
func (c *Compiler) Compile(fd *FuncDecl) (TypedValue, error) {
	if fd.Err != nil {
		return NoValue, fd.Err
	}
	if fd.Value.Val != nil {
		return fd.Value, nil
	}
	v, err := c.compFn(fd)
	if err != nil {
		fd.Err = err
		return NoValue, err
	}
	return v, nil
}

// compFn compiles fd unconditionally. Modifiers are dispatched first; each
// directive handler re-enters compFn with that modifier hidden.
func (c *Compiler) compFn(fd *FuncDecl) (TypedValue, error) {
	if len(fd.Decl.Modifiers) > 0 {
		return c.applyModifier(fd)
	}

	span := trace.Begin(c.tracer, trace.ScopeNode, "comp_fn", c.span).WithExtra("fn", fd.irName())
	if t := c.opts.Timings; t != nil {
		idx := t.Begin(fd.irName())
		defer t.End(idx, "")
	}
	g := c.enterFn(fd, span.ID())
	defer g.release()

	var (
		v   TypedValue
		err error
	)
	if fd.Decl.Ret != nil || fd.Decl.Body == nil {
		v, err = c.compileDeclared(fd)
	} else {
		v, err = c.compileInferred(fd)
	}
	if err != nil {
		span.End("error")
		return NoValue, err
	}
	span.End("")
	return v, nil
}

// compileDeclared compiles a function whose result type is known up front.
// The function value is cached before the body so recursive calls resolve.
func (c *Compiler) compileDeclared(fd *FuncDecl) (TypedValue, error) {
	fnType := c.signatureType(fd)
	ret := fd.ret
	f := c.newIRFunc(fd.irName(), fnType, fd.params, ret, fd.Decl.IsVariadic())
	f.AddAttr(mir.AttrNoUnwind)
	c.mod.Add(f)
	fd.Value = TypedValue{Val: mir.FuncRef(f), Type: fnType}
	if fd.Decl.Body == nil {
		return fd.Value, nil
	}

	ok := false
	defer func() {
		if !ok {
			c.mod.Remove(f)
			fd.Value = NoValue
		}
	}()

	c.beginBody(f, ret)
	if err := c.bindParams(fd, f); err != nil {
		return NoValue, err
	}
	fd.Returns = nil
	body, err := c.expr(fd.Decl.Body, ret)
	if err != nil {
		return NoValue, err
	}
	if !c.ctx.dead && !ast.EndsWithReturn(fd.Decl.Body) {
		site := body
		if ret == c.types.Builtins().Void {
			site = TypedValue{Type: ret}
		}
		c.addReturn(fd, site, ast.FinalSpan(fd.Decl.Body))
	}

	results, err := c.reconcileReturns(fd, ret, nil)
	if err != nil {
		return NoValue, err
	}
	c.emitReturns(fd, ret, results)
	c.sealBlocks(f)
	c.optimize(f)
	ok = true
	return fd.Value, nil
}

// compileInferred compiles a function without a result annotation into a
// preliminary void skeleton, infers the result from the last return site and
// moves the body into the final function.
func (c *Compiler) compileInferred(fd *FuncDecl) (TypedValue, error) {
	in := c.types
	void := in.Builtins().Void
	preType := in.Fn(fd.params, void)
	pre := c.newIRFunc(fd.irName()+".pre", preType, fd.params, void, fd.Decl.IsVariadic())
	ref := mir.FuncRef(pre)
	fd.Value = TypedValue{Val: ref, Type: preType}

	ok := false
	defer func() {
		if !ok {
			fd.Value = NoValue
		}
	}()

	c.beginBody(pre, types.NoTypeID)
	if err := c.bindParams(fd, pre); err != nil {
		return NoValue, err
	}
	fd.Returns = nil
	body, err := c.expr(fd.Decl.Body, types.NoTypeID)
	if err != nil {
		return NoValue, err
	}
	if !c.ctx.dead && !ast.EndsWithReturn(fd.Decl.Body) {
		c.addReturn(fd, body, ast.FinalSpan(fd.Decl.Body))
	}

	target := void
	var last *ReturnSite
	if n := len(fd.Returns); n > 0 {
		last = &fd.Returns[n-1]
		target = last.Value.Type
	}
	results, err := c.reconcileReturns(fd, target, last)
	if err != nil {
		return NoValue, err
	}
	c.emitReturns(fd, target, results)
	c.sealBlocks(pre)

	finalType := in.Fn(fd.params, target)
	final := c.newIRFunc(fd.irName(), finalType, fd.params, target, fd.Decl.IsVariadic())
	if err := final.TransplantBody(pre); err != nil {
		return NoValue, err
	}
	c.mod.Add(final)
	ref.Func = final
	ref.Type = finalType
	c.optimize(final)
	ok = true

	v := TypedValue{Val: ref, Type: finalType}
	if fd.Name == "" {
		fd.Value = NoValue
	} else {
		fd.Value = v
	}
	return v, nil
}

// newIRFunc creates a function skeleton. Pass-by-reference parameters are
// pointers in the IR.
func (c *Compiler) newIRFunc(name string, fnType types.TypeID, params []types.TypeID, ret types.TypeID, variadic bool) *mir.Func {
	in := c.types
	irParams := make([]types.TypeID, len(params))
	for i, p := range params {
		irParams[i] = p
		if in.IsByRef(p) {
			irParams[i] = in.Ptr(in.Unmut(p))
		}
	}
	f := mir.NewFunc(name, fnType, irParams, ret)
	f.Variadic = variadic
	for i, p := range params {
		if in.Kind(p) != types.KindFn {
			continue
		}
		f.AddParamAttr(i, mir.AttrNoCapture)
		if !in.IsMut(p) {
			f.AddParamAttr(i, mir.AttrReadOnly)
		}
	}
	return f
}

func (c *Compiler) beginBody(f *mir.Func, retHint types.TypeID) {
	cx := c.ctx
	cx.fn = f
	cx.retHint = retHint
	cx.dead = false
	c.b.SetInsertPoint(f.NewBlock("entry"))
}

// sealBlocks terminates every block left open, all of which are unreachable
// once the returns are emitted.
func (c *Compiler) sealBlocks(f *mir.Func) {
	for _, b := range f.Blocks {
		if !b.Terminated() {
			c.b.SetInsertPoint(b)
			c.b.Unreachable()
		}
	}
}

func (c *Compiler) optimize(f *mir.Func) {
	if c.errors == 0 {
		c.passes.Run(f)
	}
}
