// Package ast holds the declaration tree produced by the parser.
//
// Expressions are a closed tagged variant: Expr.Kind selects exactly one of
// the payload fields, and every consumer switches over Kind. Nodes are
// immutable after parsing with two exceptions owned by the compiler: the
// one-time receiver parameter rewrite and the temporary hiding of a
// modifier while it is being dispatched.
package ast
