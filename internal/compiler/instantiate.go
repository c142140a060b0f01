package compiler

import (
	"fmt"
	"slices"

	"kiln/internal/diag"
	"kiln/internal/mono"
	"kiln/internal/source"
	"kiln/internal/trace"
	"kiln/internal/types"
)

// instantiate specializes the generic fd for the concrete argument types
// args. Specializations are memoized by mangled name: a second request for
// the same argument types compiles nothing.
func (c *Compiler) instantiate(fd *FuncDecl, check types.CheckResult, args []types.TypeID, at source.Span) (TypedValue, error) {
	in := c.types
	mangled := in.Mangle(fd.Name, args)
	span := trace.Begin(c.tracer, trace.ScopeNode, "instantiate", c.span).
		WithExtra("generic", fd.Mangled).
		WithExtra("specialized", mangled)
	bindings := mono.NormalizeBindings(check.Bindings)

	if spec := c.view.Find(fd.Name, mangled); spec != nil && spec != fd {
		c.record(fd.Mangled, bindings, mangled, at)
		span.End("cached")
		return c.Compile(spec)
	}

	ret := in.Builtins().Void
	if fd.Decl.Ret != nil {
		ret = in.Subst(fd.ret, check.Bindings)
	}
	spec := &FuncDecl{
		Decl:     fd.Decl,
		Name:     fd.Name,
		Mangled:  mangled,
		Scope:    fd.Scope,
		Module:   fd.Module,
		Type:     in.Fn(args, ret),
		Obj:      fd.Obj,
		Bindings: append(slices.Clone(fd.Bindings), check.Bindings...),
		Handle:   fd.Handle,
		params:   slices.Clone(args),
		ret:      ret,

		origin:       fd,
		instBindings: bindings,
	}
	if spec.Module != nil {
		spec.Module.Add(spec)
	}
	c.record(fd.Mangled, bindings, mangled, at)
	span.WithExtra("bindings", c.bindingList(bindings))

	cx := c.ctx
	cx.instDepth++
	defer func() { cx.instDepth-- }()
	if cx.instDepth > c.opts.MaxInstantiationDepth {
		err := c.fail(diag.SemaInstantiationDepth, at,
			fmt.Sprintf("instantiating `%s` exceeds the maximum depth of %d", mangled, c.opts.MaxInstantiationDepth),
			note{fd.Span(), "generic declared here"})
		spec.Err = err
		span.End("too deep")
		return NoValue, err
	}
	v, err := c.Compile(spec)
	if err != nil {
		span.End("error")
		return NoValue, err
	}
	span.End("")
	return v, nil
}

// record notes a use of a specialization in the instantiation map. Uses
// from scratch compilations belong to a discarded module and are skipped.
func (c *Compiler) record(generic string, bindings []types.Binding, specialized string, at source.Span) {
	if c.scratch > 0 {
		return
	}
	c.insts.Record(generic, bindings, specialized, at, c.callerName(), "")
}

func (c *Compiler) callerName() string {
	if st := c.ctx.callStack; len(st) > 0 {
		return st[len(st)-1].irName()
	}
	return ""
}

func (c *Compiler) bindingList(bindings []types.Binding) string {
	s := ""
	for i, b := range bindings {
		if i > 0 {
			s += ","
		}
		s += "'" + b.Name + "=" + c.types.String(b.Type)
	}
	return s
}
