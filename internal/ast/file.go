package ast

import "kiln/internal/source"

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemType
	ItemExt
)

// TypeDecl declares an opaque nominal data type: type Box<'t>;
type TypeDecl struct {
	Name   string
	Params []string
	Span   source.Span
}

// ExtBlock attaches methods to a receiver type: ext Box<'t> { fn get(self) -> 't; }
type ExtBlock struct {
	Target *TypeExpr
	Fns    []*FnDecl
	Span   source.Span
}

type Item struct {
	Kind ItemKind
	Fn   *FnDecl
	Type *TypeDecl
	Ext  *ExtBlock
}

type File struct {
	Path  string
	Items []Item
	Span  source.Span
}
