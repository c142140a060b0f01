package mir

// SimplifyCFG performs control flow graph simplification on a function:
// trivial goto blocks are bypassed, unreachable blocks are removed, and the
// rest is renumbered.
func SimplifyCFG(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}
	entry := f.Blocks[0]
	redirects := buildRedirectMap(f)
	applyRedirects(f, redirects)

	reachable := make(map[*Block]bool, len(f.Blocks))
	var visit func(b *Block)
	visit = func(b *Block) {
		if b == nil || reachable[b] {
			return
		}
		reachable[b] = true
		for _, succ := range b.Term.Successors() {
			visit(succ)
		}
	}
	visit(entry)

	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		}
	}
	f.Blocks = kept
	f.Renumber()
}

// buildRedirectMap maps each empty goto-only block (other than entry) to the
// final target of its chain.
func buildRedirectMap(f *Func) map[*Block]*Block {
	redirects := make(map[*Block]*Block)
	for _, b := range f.Blocks[1:] {
		if !isTrivialGoto(b) {
			continue
		}
		target := b.Term.Goto.Target
		seen := map[*Block]bool{b: true}
		for isTrivialGoto(target) && !seen[target] {
			seen[target] = true
			target = target.Term.Goto.Target
		}
		if target != b {
			redirects[b] = target
		}
	}
	return redirects
}

func isTrivialGoto(b *Block) bool {
	return b != nil && len(b.Instrs) == 0 && b.Term.Kind == TermGoto
}

func applyRedirects(f *Func, redirects map[*Block]*Block) {
	if len(redirects) == 0 {
		return
	}
	redirect := func(b *Block) *Block {
		if r, ok := redirects[b]; ok {
			return r
		}
		return b
	}
	for _, b := range f.Blocks {
		switch b.Term.Kind {
		case TermGoto:
			b.Term.Goto.Target = redirect(b.Term.Goto.Target)
		case TermIf:
			b.Term.If.Then = redirect(b.Term.If.Then)
			b.Term.If.Else = redirect(b.Term.If.Else)
		}
	}
}
