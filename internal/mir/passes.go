package mir

// Pass transforms one function in place.
type Pass struct {
	Name string
	Run  func(*Func)
}

// PassManager runs a fixed pipeline chosen by optimization level.
type PassManager struct {
	passes []Pass
}

// NewPassManager builds the pipeline: level 0 only cleans the CFG, level 1
// and above add dead code elimination followed by another CFG cleanup.
func NewPassManager(level int) *PassManager {
	pm := &PassManager{passes: []Pass{{Name: "simplify_cfg", Run: SimplifyCFG}}}
	if level >= 1 {
		pm.passes = append(pm.passes, Pass{Name: "dce", Run: DCE}, Pass{Name: "simplify_cfg", Run: SimplifyCFG})
	}
	return pm
}

// Passes lists the pipeline in order.
func (pm *PassManager) Passes() []Pass {
	return pm.passes
}

// Run applies every pass to f.
func (pm *PassManager) Run(f *Func) {
	if f == nil || f.IsDecl() {
		return
	}
	for _, p := range pm.passes {
		p.Run(f)
	}
}
