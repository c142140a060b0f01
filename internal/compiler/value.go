package compiler

import (
	"kiln/internal/ast"
	"kiln/internal/mir"
	"kiln/internal/source"
	"kiln/internal/types"
	"kiln/internal/vm"
)

// TypedValue pairs an IR value with its semantic type.
//
// NoValue (zero Type) means compilation failed. A placeholder has a type but
// no value: the signature of a function whose body is only compiled for
// compile-time execution. Void expressions have Type void and no value.
type TypedValue struct {
	Val  *mir.Value
	Type types.TypeID
	// Addr is the address behind a pass-by-reference parameter read, so the
	// value can be forwarded by reference without a copy.
	Addr *mir.Value
}

// NoValue is the failure sentinel.
var NoValue = TypedValue{}

func (v TypedValue) IsNone() bool { return v.Type == types.NoTypeID }

// IsPlaceholder reports a signature-only function value.
func (v TypedValue) IsPlaceholder() bool { return v.Type != types.NoTypeID && v.Val == nil }

// Func returns the IR function behind a compiled function value.
func (v TypedValue) Func() *mir.Func {
	if v.Val == nil || v.Val.Kind != mir.ValFunc {
		return nil
	}
	return v.Val.Func
}

// ReturnSite is one return executed during body compilation. Block is left
// open until the return type is reconciled.
type ReturnSite struct {
	Value TypedValue
	Span  source.Span
	Block *mir.Block
}

// FuncDecl is the compilation record of one function declaration, or of one
// specialization of a generic declaration.
type FuncDecl struct {
	Decl    *ast.FnDecl
	Name    string // base name, "" for lambdas
	Mangled string
	Scope   int     // declaring scope depth
	Module  *Module // owning compilation unit
	Type    types.TypeID
	Value   TypedValue
	Returns []ReturnSite
	Err     error // memoized compile failure

	// Obj is the receiver object type for methods.
	Obj types.TypeID
	// Bindings are declared as compile-time type constants when the function
	// compiles: receiver-object arguments plus specialization bindings.
	Bindings []types.Binding

	Handle vm.Handle // identity passed to on_fn_decl hooks

	params  []types.TypeID // fixed parameter types
	ret     types.TypeID   // declared result, void when absent
	generic bool
	symbol  string // IR name of a lambda

	origin       *FuncDecl // generic declaration a specialization came from
	instBindings []types.Binding
}

// Params returns the fixed parameter types.
func (fd *FuncDecl) Params() []types.TypeID { return fd.params }

// IsGeneric reports a declaration whose signature mentions type variables
// and which has not been specialized.
func (fd *FuncDecl) IsGeneric() bool {
	return fd.generic && fd.Type == types.NoTypeID
}

// Arity counts fixed parameters.
func (fd *FuncDecl) Arity() int {
	return len(fd.Decl.FixedParams())
}

// Span is the location of the declaration name.
func (fd *FuncDecl) Span() source.Span {
	if fd.Decl.Name == "" {
		return fd.Decl.Span
	}
	return fd.Decl.NameSpan
}

func (fd *FuncDecl) irName() string {
	if fd.Name == "" {
		return fd.symbol
	}
	return fd.Mangled
}
