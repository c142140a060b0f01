package compiler

import (
	"kiln/internal/diag"
	"kiln/internal/mir"
)

// bindParams declares one local per fixed parameter of fd in the
// function-entry scope. Parameter names must be unique.
func (c *Compiler) bindParams(fd *FuncDecl, f *mir.Func) error {
	seen := make(map[string]int, len(fd.params))
	scope := c.ctx.top()
	for i, p := range fd.Decl.FixedParams() {
		if first, dup := seen[p.Name]; dup {
			return c.failf(diag.SemaDuplicateParameter, p.Span,
				"parameter name `%s` is repeated for parameters %d and %d", p.Name, first+1, i+1)
		}
		seen[p.Name] = i
		ty := fd.params[i]
		scope.declareVar(p.Name, &local{
			val:   f.Params[i],
			ty:    ty,
			byRef: c.types.IsByRef(ty),
			span:  p.Span,
		})
	}
	return nil
}
