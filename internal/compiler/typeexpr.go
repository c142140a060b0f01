package compiler

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/types"
)

// translate turns a type annotation into a semantic type. Type variables
// bound as compile-time constants in an open scope are replaced by their
// value.
func (c *Compiler) translate(te *ast.TypeExpr) (types.TypeID, error) {
	in := c.types
	switch te.Kind {
	case ast.TypeVar:
		if t, ok := c.ctx.lookupConst(te.Name); ok {
			return t, nil
		}
		return in.Var(te.Name), nil
	case ast.TypeArray, ast.TypePtr, ast.TypeMut:
		elem, err := c.translate(te.Elem)
		if err != nil {
			return types.NoTypeID, err
		}
		switch te.Kind {
		case ast.TypeArray:
			return in.Array(elem), nil
		case ast.TypePtr:
			return in.Ptr(elem), nil
		}
		return in.Mut(elem), nil
	case ast.TypeFn:
		params, err := c.translateList(te.Args)
		if err != nil {
			return types.NoTypeID, err
		}
		res := in.Builtins().Void
		if te.Elem != nil {
			if res, err = c.translate(te.Elem); err != nil {
				return types.NoTypeID, err
			}
		}
		return in.Fn(params, res), nil
	}
	if len(te.Args) == 0 {
		if t, ok := in.ByName(te.Name); ok {
			return t, nil
		}
	}
	params, ok := c.dataTypes[te.Name]
	if !ok {
		return types.NoTypeID, c.failf(diag.SemaUnknownType, te.Span, "unknown type `%s`", te.String())
	}
	if len(params) != len(te.Args) {
		return types.NoTypeID, c.failf(diag.SemaUnknownType, te.Span,
			"type `%s` takes %d type arguments, got %d", te.Name, len(params), len(te.Args))
	}
	args, err := c.translateList(te.Args)
	if err != nil {
		return types.NoTypeID, err
	}
	return in.Data(te.Name, args), nil
}

func (c *Compiler) translateList(list []*ast.TypeExpr) ([]types.TypeID, error) {
	out := make([]types.TypeID, len(list))
	for i, te := range list {
		t, err := c.translate(te)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// objectBindings pairs the type parameters of a data type with the
// arguments of obj: ext Box<i32> over `type Box<'t>` binds 't to i32.
func (c *Compiler) objectBindings(obj types.TypeID) []types.Binding {
	info, ok := c.types.DataInfo(obj)
	if !ok {
		return nil
	}
	params := c.dataTypes[info.Name]
	out := make([]types.Binding, 0, len(params))
	for i, p := range params {
		if i < len(info.Args) {
			out = append(out, types.Binding{Name: p, Type: info.Args[i]})
		}
	}
	return out
}

// typeName is the spelling a cast function is declared under.
func (c *Compiler) typeName(t types.TypeID) string {
	return c.types.String(c.types.Unmut(t))
}
