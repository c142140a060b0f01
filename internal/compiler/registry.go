package compiler

import (
	"fmt"
	"slices"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/trace"
	"kiln/internal/types"
)

// RegisterDeclaration records decl in the active unit and fires the
// on_fn_decl hooks registered so far. Lambdas are compiled immediately and
// their function value returned; named declarations yield a void value.
//
// Registering the same declaration node twice, as happens when an enclosing
// body is compiled again for @run, returns silently.
func (c *Compiler) RegisterDeclaration(decl *ast.FnDecl) (TypedValue, error) {
	if decl.IsLambda() {
		return c.compileLambda(decl)
	}
	span := trace.Begin(c.tracer, trace.ScopeModule, "register_fn", c.span).WithExtra("name", decl.Name)

	fd, err := c.newFuncDecl(decl)
	if err != nil {
		span.End("error")
		return NoValue, err
	}
	if prev := c.view.Find(fd.Name, fd.Mangled); prev != nil {
		if prev.Decl == decl {
			span.End("seen")
			return TypedValue{Type: c.types.Builtins().Void}, nil
		}
		span.End("redefinition")
		return NoValue, c.fail(diag.SemaRedefinition, decl.NameSpan,
			fmt.Sprintf("redefinition of `%s` with signature %s", fd.Name, c.signature(fd)),
			note{prev.Span(), "previous definition is here"})
	}

	unit := c.view.Home()
	fd.Module = unit
	unit.Add(fd)
	fd.Handle = c.vm.Handles.Put(fd)

	// Hooks may register declarations themselves; iterate a snapshot.
	for _, hook := range slices.Clone(c.hooks) {
		c.runHook(hook, fd)
	}
	if decl.HasDirective(directiveOnFnDecl) {
		c.hooks = append(c.hooks, fd)
	}
	span.WithExtra("mangled", fd.Mangled).End("")
	return TypedValue{Type: c.types.Builtins().Void}, nil
}

// newFuncDecl builds the record for decl in the current context: receiver
// rewrite, signature translation and the mangled name.
func (c *Compiler) newFuncDecl(decl *ast.FnDecl) (*FuncDecl, error) {
	cx := c.ctx
	fd := &FuncDecl{
		Decl:     decl,
		Name:     decl.Name,
		Scope:    cx.Depth(),
		Module:   c.view.Home(),
		Obj:      cx.obj,
		Bindings: slices.Clone(cx.objBindings),
	}
	if err := c.rewriteReceiver(decl); err != nil {
		return nil, err
	}
	if err := c.translateSignature(fd); err != nil {
		return nil, err
	}
	switch {
	case decl.Name == "":
	case decl.Body == nil:
		// declaration-only functions bind to an external symbol
		fd.Mangled = decl.Name
	default:
		fd.Mangled = c.types.Mangle(decl.Name, fd.params)
	}
	return fd, nil
}

// rewriteReceiver gives an untyped receiver parameter the type of the active
// receiver object. A receiver outside an ext block is an error.
func (c *Compiler) rewriteReceiver(decl *ast.FnDecl) error {
	for i := range decl.Params {
		p := &decl.Params[i]
		if p.Kind != ast.ParamReceiver || p.Type != nil {
			continue
		}
		if c.ctx.objExpr == nil {
			return c.failf(diag.SemaStrayReceiver, p.Span,
				"receiver parameter `%s` outside of an ext block", p.Name)
		}
		p.Type = c.ctx.objExpr
	}
	return nil
}

// translateSignature fills fd's parameter and result types. Receiver object
// bindings are substituted so methods of ext Box<i32> see concrete types.
func (c *Compiler) translateSignature(fd *FuncDecl) error {
	in := c.types
	fixed := fd.Decl.FixedParams()
	fd.params = make([]types.TypeID, len(fixed))
	for i, p := range fixed {
		if p.Type == nil {
			return c.failf(diag.SemaStrayReceiver, p.Span,
				"receiver parameter `%s` was never given a type", p.Name)
		}
		t, err := c.translate(p.Type)
		if err != nil {
			return err
		}
		fd.params[i] = in.Subst(t, fd.Bindings)
	}
	fd.ret = in.Builtins().Void
	if fd.Decl.Ret != nil {
		t, err := c.translate(fd.Decl.Ret)
		if err != nil {
			return err
		}
		fd.ret = in.Subst(t, fd.Bindings)
	}
	fd.generic = slices.ContainsFunc(fd.params, in.IsGeneric)
	return nil
}

// signature renders fd's parameter list for diagnostics.
func (c *Compiler) signature(fd *FuncDecl) string {
	s := "("
	for i, p := range fd.params {
		if i > 0 {
			s += ", "
		}
		s += c.types.String(p)
	}
	if fd.Decl.IsVariadic() {
		if len(fd.params) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s + ")"
}

// signatureType is fd's function type with the declared result, or void when
// the result is inferred.
func (c *Compiler) signatureType(fd *FuncDecl) types.TypeID {
	if fd.Type != types.NoTypeID {
		return fd.Type
	}
	return c.types.Fn(fd.params, fd.ret)
}
