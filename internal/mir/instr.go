package mir

import (
	"kiln/internal/types"
)

// Op enumerates instruction kinds.
type Op uint8

const (
	OpBinary Op = iota
	OpCmp
	OpCall
	OpAlloca
	OpLoad
	OpStore
	OpBitcast
	OpConv
)

func (op Op) String() string {
	return [...]string{"binary", "cmp", "call", "alloca", "load", "store", "bitcast", "conv"}[op]
}

// BinKind is the arithmetic or comparison operator.
type BinKind uint8

const (
	BinAdd BinKind = iota
	BinSub
	BinMul
	BinDiv
	CmpEq
	CmpLt
)

func (k BinKind) String() string {
	return [...]string{"add", "sub", "mul", "div", "eq", "lt"}[k]
}

// Instr is one instruction. Result is nil for stores and void calls.
type Instr struct {
	Op     Op
	Bin    BinKind
	Args   []*Value
	Callee *Value       // OpCall
	Type   types.TypeID // alloca element type
	Result *Value
	Block  *Block
}

// HasSideEffects reports instructions DCE must keep.
func (in *Instr) HasSideEffects() bool {
	return in.Op == OpCall || in.Op == OpStore
}

// Operands returns every value read by the instruction, callee included.
func (in *Instr) Operands() []*Value {
	if in.Callee == nil {
		return in.Args
	}
	return append([]*Value{in.Callee}, in.Args...)
}
