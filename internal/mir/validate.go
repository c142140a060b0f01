package mir

import (
	"fmt"
)

// Validate checks structural invariants: every block is terminated, belongs
// to f, and branches only to blocks of f.
func Validate(f *Func) error {
	owned := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		owned[b] = true
	}
	for _, b := range f.Blocks {
		if b.Func != f {
			return fmt.Errorf("%s: block %s belongs to another function", f.Name, b.Name)
		}
		if !b.Terminated() {
			return fmt.Errorf("%s: block %s has no terminator", f.Name, b.Name)
		}
		for _, succ := range b.Term.Successors() {
			if !owned[succ] {
				return fmt.Errorf("%s: block %s branches outside the function", f.Name, b.Name)
			}
		}
		for _, in := range b.Instrs {
			for _, op := range in.Operands() {
				if op == nil {
					return fmt.Errorf("%s: %s in block %s has a nil operand", f.Name, in.Op, b.Name)
				}
			}
		}
	}
	return nil
}
