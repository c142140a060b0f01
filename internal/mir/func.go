package mir

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"kiln/internal/types"
)

// Func attributes mirrored into the emitted IR.
const (
	AttrNoUnwind     = "nounwind"
	AttrAlwaysInline = "alwaysinline"
	AttrNoCapture    = "nocapture"
	AttrReadOnly     = "readonly"
)

// Func is one function artifact. A Func without blocks is an external
// declaration.
type Func struct {
	Name       string
	Type       types.TypeID // function type
	Result     types.TypeID
	Params     []*Value
	ParamAttrs [][]string
	Attrs      []string
	Blocks     []*Block
	Variadic   bool
	Module     *Module

	nextValue uint32
	nextBlock BlockID
}

// NewFunc creates a function skeleton with one parameter value per type.
func NewFunc(name string, fnType types.TypeID, params []types.TypeID, result types.TypeID) *Func {
	f := &Func{
		Name:       name,
		Type:       fnType,
		Result:     result,
		ParamAttrs: make([][]string, len(params)),
	}
	for i, pt := range params {
		v := f.newValue(ValParam, pt)
		v.Index = i
		f.Params = append(f.Params, v)
	}
	return f
}

func (f *Func) newValue(kind ValueKind, ty types.TypeID) *Value {
	f.nextValue++
	return &Value{ID: f.nextValue, Kind: kind, Type: ty}
}

// IsDecl reports an external declaration.
func (f *Func) IsDecl() bool { return len(f.Blocks) == 0 }

// Entry returns the first block, or nil for declarations.
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewBlock appends a fresh block.
func (f *Func) NewBlock(name string) *Block {
	b := &Block{ID: f.nextBlock, Name: name, Func: f}
	f.nextBlock++
	f.Blocks = append(f.Blocks, b)
	return b
}

// AddAttr sets a function attribute once.
func (f *Func) AddAttr(attr string) {
	if !slices.Contains(f.Attrs, attr) {
		f.Attrs = append(f.Attrs, attr)
	}
}

// HasAttr reports whether a function attribute is set.
func (f *Func) HasAttr(attr string) bool {
	return slices.Contains(f.Attrs, attr)
}

// AddParamAttr sets an attribute on parameter i once.
func (f *Func) AddParamAttr(i int, attr string) {
	if !slices.Contains(f.ParamAttrs[i], attr) {
		f.ParamAttrs[i] = append(f.ParamAttrs[i], attr)
	}
}

// TransplantBody moves every block of from into f and rebinds uses of
// from's parameters to f's. from is left empty.
func (f *Func) TransplantBody(from *Func) error {
	if len(from.Params) != len(f.Params) {
		return fmt.Errorf("transplant %s -> %s: %d params vs %d", from.Name, f.Name, len(from.Params), len(f.Params))
	}
	for _, b := range from.Blocks {
		b.Func = f
		b.ID = f.nextBlock
		f.nextBlock++
		f.Blocks = append(f.Blocks, b)
	}
	from.Blocks = nil
	if from.nextValue > f.nextValue {
		f.nextValue = from.nextValue
	}
	for i, p := range from.Params {
		f.ReplaceAllUsesWith(p, f.Params[i])
	}
	return nil
}

// ReplaceAllUsesWith rewrites every operand equal to old into repl.
func (f *Func) ReplaceAllUsesWith(old, repl *Value) {
	swap := func(v *Value) *Value {
		if v == old {
			return repl
		}
		return v
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			for i := range in.Args {
				in.Args[i] = swap(in.Args[i])
			}
			if in.Callee != nil {
				in.Callee = swap(in.Callee)
			}
		}
		switch b.Term.Kind {
		case TermReturn:
			if b.Term.Return.Value != nil {
				b.Term.Return.Value = swap(b.Term.Return.Value)
			}
		case TermIf:
			b.Term.If.Cond = swap(b.Term.If.Cond)
		}
	}
}

// Renumber assigns dense block ids in order.
func (f *Func) Renumber() {
	for i, b := range f.Blocks {
		id, err := safecast.Conv[int32](i)
		if err != nil {
			panic(fmt.Errorf("block count overflow: %w", err))
		}
		b.ID = BlockID(id)
	}
	f.nextBlock = BlockID(len(f.Blocks))
}
