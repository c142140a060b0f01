package compiler

import (
	"fmt"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/trace"
	"kiln/internal/vm"
)

// inScratch runs fn with a throwaway IR module installed and the compiler in
// compile-time mode. Function values compiled into the scratch module are
// forgotten afterwards, so later uses compile them again into the real one.
// Instantiations requested meanwhile are not recorded.
func (c *Compiler) inScratch(label string, fn func() error) error {
	saved, savedMode := c.mod, c.ctx.comptime
	scratch := mir.NewModule(c.mod.Name + "." + label)
	c.mod = scratch
	c.ctx.comptime = true
	c.scratch++
	defer func() {
		c.scratch--
		c.mod = saved
		c.ctx.comptime = savedMode
		c.forget(scratch)
	}()
	return fn()
}

func (c *Compiler) forget(scratch *mir.Module) {
	for _, unit := range c.units {
		for _, fd := range unit.Decls() {
			if f := fd.Value.Func(); f != nil && f.Module == scratch {
				fd.Value = NoValue
				fd.Returns = nil
			}
		}
	}
}

// runNow compiles fd normally, then compiles it again into a scratch module
// and executes that copy. The first artifact is the one cached and returned.
func (c *Compiler) runNow(fd *FuncDecl, mod ast.Modifier) (TypedValue, error) {
	first, err := c.compFn(fd)
	if err != nil {
		return NoValue, err
	}
	if len(fd.params) != 0 {
		return NoValue, c.failf(diag.SemaComptimeRunFailed, mod.Span,
			"@run function `%s` must not take parameters", c.displayName(fd))
	}

	var res vm.Value
	err = c.inScratch("run", func() error {
		recomp, err := c.compFn(fd)
		fd.Value = first
		if err != nil {
			return err
		}
		f := recomp.Func()
		if f == nil {
			return c.failf(diag.SemaComptimeRunFailed, mod.Span, "@run function `%s` has no body", c.displayName(fd))
		}
		res, err = c.vm.Call(trace.WithSpanID(c.base, c.span), f, nil)
		if err != nil {
			return c.failf(diag.SemaComptimeRunFailed, mod.Span, "@run `%s` failed: %v", c.displayName(fd), err)
		}
		return nil
	})
	fd.Value = first
	if err != nil {
		return NoValue, err
	}
	trace.Point(c.tracer, trace.ScopeNode, "run_result", res.String(), c.span)
	return first, nil
}

// runHook invokes hook with a handle to the freshly registered target.
// Failures are reported but do not fail the registration.
func (c *Compiler) runHook(hook, target *FuncDecl) {
	f := c.hookFunc(hook)
	if f == nil {
		return
	}
	args := []vm.Value{vm.HandleValue(target.Handle)}
	if _, err := c.vm.Call(trace.WithSpanID(c.base, c.span), f, args); err != nil {
		c.fail(diag.SemaHookFailed, target.Span(),
			fmt.Sprintf("@on_fn_decl hook `%s` failed on `%s`: %v", hook.Name, target.Name, err),
			note{hook.Span(), "hook declared here"})
	}
}

// hookFunc compiles an executable copy of hook once; nil means the hook
// cannot run and was reported. The copy has the on_fn_decl directive removed
// so it compiles its body.
func (c *Compiler) hookFunc(hook *FuncDecl) *mir.Func {
	if f, ok := c.hookFns[hook]; ok {
		return f
	}
	c.hookFns[hook] = nil
	if len(hook.params) != 1 || hook.params[0] != c.declType {
		c.fail(diag.SemaHookFailed, hook.Span(),
			fmt.Sprintf("@on_fn_decl hook `%s` must take exactly one FuncDecl parameter", hook.Name))
		return nil
	}
	decl := *hook.Decl
	decl.Modifiers = nil
	for _, m := range hook.Decl.Modifiers {
		if m.Kind != ast.ModDirective || m.Name != directiveOnFnDecl {
			decl.Modifiers = append(decl.Modifiers, m)
		}
	}
	cp := *hook
	cp.Decl = &decl
	cp.Value = NoValue
	cp.Err = nil
	cp.Returns = nil

	var f *mir.Func
	err := c.inScratch("hook", func() error {
		v, err := c.compFn(&cp)
		if err != nil {
			return err
		}
		f = v.Func()
		return nil
	})
	if err != nil {
		return nil
	}
	if f == nil {
		c.fail(diag.SemaHookFailed, hook.Span(), fmt.Sprintf("@on_fn_decl hook `%s` has no body", hook.Name))
		return nil
	}
	c.hookFns[hook] = f
	return f
}
