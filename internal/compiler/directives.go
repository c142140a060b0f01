package compiler

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/trace"
)

const (
	directiveInline   = "inline"
	directiveRun      = "run"
	directiveOnFnDecl = "on_fn_decl"
	keywordComptime   = "comptime"
)

// applyModifier peels the first modifier of fd, hides it while the handler
// runs and restores the full list afterwards, so re-resolution sees it again.
func (c *Compiler) applyModifier(fd *FuncDecl) (TypedValue, error) {
	decl := fd.Decl
	mods := decl.Modifiers
	mod := mods[0]
	decl.Modifiers = mods[1:]
	defer func() { decl.Modifiers = mods }()

	span := trace.Begin(c.tracer, trace.ScopeNode, "directive", c.span).
		WithExtra("fn", fd.irName()).
		WithExtra("modifier", mod.String())
	v, err := c.dispatchModifier(fd, mod)
	if err != nil {
		span.End("error")
		return NoValue, err
	}
	span.End("")
	return v, nil
}

func (c *Compiler) dispatchModifier(fd *FuncDecl, mod ast.Modifier) (TypedValue, error) {
	if mod.Kind == ast.ModKeyword {
		if mod.Name == keywordComptime && !c.ctx.comptime {
			return c.placeholder(fd), nil
		}
		return c.compFn(fd)
	}
	switch mod.Name {
	case directiveInline:
		v, err := c.compFn(fd)
		if err != nil {
			return NoValue, err
		}
		if f := v.Func(); f != nil {
			f.AddAttr(mir.AttrAlwaysInline)
		}
		return v, nil
	case directiveRun:
		return c.runNow(fd, mod)
	case directiveOnFnDecl:
		return c.placeholder(fd), nil
	}
	return NoValue, c.failf(diag.SemaUnrecognizedDirective, mod.Span, "unrecognized directive `@%s`", mod.Name)
}

// placeholder is the signature-only value of a function whose body is only
// compiled for compile-time execution. It is not cached.
func (c *Compiler) placeholder(fd *FuncDecl) TypedValue {
	return TypedValue{Type: c.signatureType(fd)}
}
