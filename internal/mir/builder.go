package mir

import (
	"kiln/internal/types"
)

// Builder appends instructions at an insertion point.
type Builder struct {
	types *types.Interner
	block *Block
}

func NewBuilder(in *types.Interner) *Builder {
	return &Builder{types: in}
}

// SetInsertPoint moves the builder to the end of b; nil clears it.
func (b *Builder) SetInsertPoint(block *Block) {
	b.block = block
}

// InsertBlock returns the current block, nil when unset.
func (b *Builder) InsertBlock() *Block {
	return b.block
}

// Types exposes the interner the builder derives pointer types from.
func (b *Builder) Types() *types.Interner {
	return b.types
}

func (b *Builder) emit(in *Instr, result types.TypeID) *Value {
	if b.block == nil {
		panic("mir: builder has no insertion point")
	}
	if b.block.Terminated() {
		panic("mir: emitting into terminated block " + b.block.Name)
	}
	in.Block = b.block
	if result != types.NoTypeID && result != b.types.Builtins().Void {
		v := b.block.Func.newValue(ValInstr, result)
		v.Def = in
		in.Result = v
	}
	b.block.Instrs = append(b.block.Instrs, in)
	return in.Result
}

// Binary emits an arithmetic instruction; both operands share the result type.
func (b *Builder) Binary(kind BinKind, lhs, rhs *Value) *Value {
	return b.emit(&Instr{Op: OpBinary, Bin: kind, Args: []*Value{lhs, rhs}}, lhs.Type)
}

// Cmp emits a comparison producing bool.
func (b *Builder) Cmp(kind BinKind, lhs, rhs *Value) *Value {
	return b.emit(&Instr{Op: OpCmp, Bin: kind, Args: []*Value{lhs, rhs}}, b.types.Builtins().Bool)
}

// Call emits a call; the result is nil for void callees.
func (b *Builder) Call(callee *Value, args []*Value, result types.TypeID) *Value {
	return b.emit(&Instr{Op: OpCall, Callee: callee, Args: args}, result)
}

// Alloca reserves a stack slot for one value of ty and returns its address.
func (b *Builder) Alloca(ty types.TypeID) *Value {
	return b.emit(&Instr{Op: OpAlloca, Type: ty}, b.types.Ptr(ty))
}

// Load reads a ty through ptr.
func (b *Builder) Load(ptr *Value, ty types.TypeID) *Value {
	return b.emit(&Instr{Op: OpLoad, Args: []*Value{ptr}, Type: ty}, ty)
}

// Store writes v through ptr.
func (b *Builder) Store(v, ptr *Value) {
	b.emit(&Instr{Op: OpStore, Args: []*Value{v, ptr}}, types.NoTypeID)
}

// Bitcast reinterprets v as ty without changing bits.
func (b *Builder) Bitcast(v *Value, ty types.TypeID) *Value {
	return b.emit(&Instr{Op: OpBitcast, Args: []*Value{v}, Type: ty}, ty)
}

// Conv emits a numeric conversion of v to ty.
func (b *Builder) Conv(v *Value, ty types.TypeID) *Value {
	return b.emit(&Instr{Op: OpConv, Args: []*Value{v}, Type: ty}, ty)
}

// Reinterpret spills v to a fresh slot, views the slot as a pointer to ty and
// reloads it. Used to coerce a value whose type differs only by type variables.
func (b *Builder) Reinterpret(v *Value, ty types.TypeID) *Value {
	slot := b.Alloca(v.Type)
	b.Store(v, slot)
	view := b.Bitcast(slot, b.types.Ptr(ty))
	return b.Load(view, ty)
}

// Ret terminates the current block with a return.
func (b *Builder) Ret(v *Value) {
	b.terminate(Terminator{Kind: TermReturn, Return: ReturnTerm{Value: v}})
}

// Br jumps unconditionally.
func (b *Builder) Br(target *Block) {
	b.terminate(Terminator{Kind: TermGoto, Goto: GotoTerm{Target: target}})
}

// CondBr branches on cond.
func (b *Builder) CondBr(cond *Value, then, els *Block) {
	b.terminate(Terminator{Kind: TermIf, If: IfTerm{Cond: cond, Then: then, Else: els}})
}

// Unreachable marks the end of a block control never reaches.
func (b *Builder) Unreachable() {
	b.terminate(Terminator{Kind: TermUnreachable})
}

func (b *Builder) terminate(t Terminator) {
	if b.block == nil || b.block.Terminated() {
		panic("mir: terminating an already terminated block")
	}
	b.block.Term = t
}
