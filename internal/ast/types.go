package ast

import (
	"strings"

	"kiln/internal/source"
)

type TypeExprKind uint8

const (
	TypeNamed TypeExprKind = iota // i32, Box<'t>
	TypeVar                       // 't
	TypeArray                     // [T]
	TypePtr                       // *T
	TypeFn                        // fn(T, U) -> R
	TypeMut                       // mut T
)

// TypeExpr is a syntactic type annotation.
type TypeExpr struct {
	Kind TypeExprKind
	Span source.Span
	Name string      // TypeNamed, TypeVar (without the quote)
	Args []*TypeExpr // generic arguments or fn parameters
	Elem *TypeExpr   // element, pointee, fn result or mut target
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "<none>"
	}
	switch t.Kind {
	case TypeVar:
		return "'" + t.Name
	case TypeArray:
		return "[" + t.Elem.String() + "]"
	case TypePtr:
		return "*" + t.Elem.String()
	case TypeMut:
		return "mut " + t.Elem.String()
	case TypeFn:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return "fn(" + strings.Join(parts, ", ") + ")->" + t.Elem.String()
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}
