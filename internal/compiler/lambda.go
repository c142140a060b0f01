package compiler

import (
	"fmt"
	"slices"

	"kiln/internal/ast"
)

// compileLambda compiles an anonymous function on the spot. Lambdas get a
// unique IR symbol, are never indexed by name and cannot capture locals of
// the enclosing function.
func (c *Compiler) compileLambda(decl *ast.FnDecl) (TypedValue, error) {
	fd := &FuncDecl{
		Decl:     decl,
		Scope:    c.ctx.Depth(),
		Module:   c.view.Home(),
		Obj:      c.ctx.obj,
		Bindings: slices.Clone(c.ctx.objBindings),
		symbol:   fmt.Sprintf("__lambda_%d", c.lambdas),
	}
	c.lambdas++
	if err := c.rewriteReceiver(decl); err != nil {
		return NoValue, err
	}
	if err := c.translateSignature(fd); err != nil {
		return NoValue, err
	}
	return c.compFn(fd)
}
