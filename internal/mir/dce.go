package mir

// DCE removes side-effect-free instructions whose results are never read.
// It iterates until nothing changes.
func DCE(f *Func) {
	for {
		used := make(map[*Value]bool)
		for _, b := range f.Blocks {
			for _, in := range b.Instrs {
				for _, op := range in.Operands() {
					used[op] = true
				}
			}
			switch b.Term.Kind {
			case TermReturn:
				used[b.Term.Return.Value] = true
			case TermIf:
				used[b.Term.If.Cond] = true
			}
		}
		changed := false
		for _, b := range f.Blocks {
			kept := b.Instrs[:0]
			for _, in := range b.Instrs {
				if in.HasSideEffects() || used[in.Result] {
					kept = append(kept, in)
					continue
				}
				changed = true
			}
			b.Instrs = kept
		}
		if !changed {
			return
		}
	}
}
