package mir

type BlockID int32

// TermKind enumerates block terminators.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermGoto
	TermIf
	TermUnreachable
)

type ReturnTerm struct {
	Value *Value // nil for void
}

type GotoTerm struct {
	Target *Block
}

type IfTerm struct {
	Cond *Value
	Then *Block
	Else *Block
}

type Terminator struct {
	Kind TermKind

	Return ReturnTerm
	Goto   GotoTerm
	If     IfTerm
}

// Successors lists blocks control may transfer to.
func (t *Terminator) Successors() []*Block {
	switch t.Kind {
	case TermGoto:
		return []*Block{t.Goto.Target}
	case TermIf:
		return []*Block{t.If.Then, t.If.Else}
	}
	return nil
}

type Block struct {
	ID     BlockID
	Name   string
	Instrs []*Instr
	Term   Terminator
	Func   *Func
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}
