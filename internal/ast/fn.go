package ast

import "kiln/internal/source"

// ParamKind distinguishes ordinary parameters from the `self` receiver.
type ParamKind uint8

const (
	ParamRegular ParamKind = iota
	ParamReceiver
)

type Param struct {
	Name string
	Type *TypeExpr // nil on a trailing variadic parameter and on an unrewritten receiver
	Kind ParamKind
	Span source.Span
}

type ModifierKind uint8

const (
	ModDirective ModifierKind = iota // @inline, @run, @on_fn_decl
	ModKeyword                       // comptime, pub
)

type Modifier struct {
	Kind ModifierKind
	Name string
	Span source.Span
}

func (m Modifier) String() string {
	if m.Kind == ModDirective {
		return "@" + m.Name
	}
	return m.Name
}

// FnDecl is one function declaration. Name is empty for lambdas and Body is
// nil for declaration-only (extern) functions.
type FnDecl struct {
	Name      string
	NameSpan  source.Span
	Params    []Param
	Ret       *TypeExpr
	Body      *Expr
	Modifiers []Modifier
	Span      source.Span
}

// IsVariadic reports a trailing parameter without a type.
func (d *FnDecl) IsVariadic() bool {
	if len(d.Params) == 0 {
		return false
	}
	last := d.Params[len(d.Params)-1]
	return last.Kind == ParamRegular && last.Type == nil
}

// FixedParams drops the variadic tail, if any.
func (d *FnDecl) FixedParams() []Param {
	if d.IsVariadic() {
		return d.Params[:len(d.Params)-1]
	}
	return d.Params
}

// HasDirective reports whether a modifier with this name is attached.
func (d *FnDecl) HasDirective(name string) bool {
	for _, m := range d.Modifiers {
		if m.Kind == ModDirective && m.Name == name {
			return true
		}
	}
	return false
}

// IsLambda reports an anonymous function.
func (d *FnDecl) IsLambda() bool { return d.Name == "" }
