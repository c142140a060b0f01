package llvm

import (
	"fmt"
	"strings"

	"kiln/internal/mir"
)

func (e *Emitter) emitFunction(f *mir.Func) error {
	sig := e.sigs[f]
	params := make([]string, 0, len(f.Params))
	for i, p := range f.Params {
		param := sig.params[i]
		if i < len(f.ParamAttrs) && len(f.ParamAttrs[i]) > 0 {
			param += " " + strings.Join(f.ParamAttrs[i], " ")
		}
		params = append(params, fmt.Sprintf("%s %s", param, valueName(p)))
	}
	if sig.variadic {
		params = append(params, "...")
	}
	attrs := ""
	if len(f.Attrs) > 0 {
		attrs = " " + strings.Join(f.Attrs, " ")
	}
	fmt.Fprintf(&e.buf, "define %s %s(%s)%s {\n", sig.ret, globalName(f.Name), strings.Join(params, ", "), attrs)

	fe := &funcEmitter{emitter: e, f: f}
	for _, bb := range f.Blocks {
		fmt.Fprintf(&e.buf, "bb%d:\n", bb.ID)
		for _, in := range bb.Instrs {
			if err := fe.emitInstr(in); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
		if err := fe.emitTerminator(&bb.Term); err != nil {
			return fmt.Errorf("%s: bb%d: %w", f.Name, bb.ID, err)
		}
	}
	fmt.Fprint(&e.buf, "}\n\n")
	return nil
}

func valueName(v *mir.Value) string {
	if v.Kind == mir.ValParam {
		return fmt.Sprintf("%%p%d", v.Index)
	}
	return fmt.Sprintf("%%v%d", v.ID)
}
