package llvm

import (
	"fmt"

	"kiln/internal/mir"
)

func (fe *funcEmitter) emitTerminator(term *mir.Terminator) error {
	buf := &fe.emitter.buf
	switch term.Kind {
	case mir.TermReturn:
		if term.Return.Value == nil {
			fmt.Fprintf(buf, "  ret void\n")
			return nil
		}
		val, ty, err := fe.emitOperand(term.Return.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  ret %s %s\n", ty, val)
	case mir.TermGoto:
		fmt.Fprintf(buf, "  br label %%bb%d\n", term.Goto.Target.ID)
	case mir.TermIf:
		cond, ty, err := fe.emitOperand(term.If.Cond)
		if err != nil {
			return err
		}
		if ty != "i1" {
			return fmt.Errorf("if condition must be i1, got %s", ty)
		}
		fmt.Fprintf(buf, "  br i1 %s, label %%bb%d, label %%bb%d\n", cond, term.If.Then.ID, term.If.Else.ID)
	case mir.TermUnreachable:
		fmt.Fprintf(buf, "  unreachable\n")
	default:
		return fmt.Errorf("block is not terminated")
	}
	return nil
}
