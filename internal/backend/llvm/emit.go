package llvm

import (
	"fmt"
	"strings"

	"kiln/internal/mir"
	"kiln/internal/types"
)

type funcSig struct {
	ret      string
	params   []string
	variadic bool
}

// Emitter renders a mir.Module as textual LLVM IR.
type Emitter struct {
	mod   *mir.Module
	types *types.Interner
	buf   strings.Builder
	sigs  map[*mir.Func]funcSig
}

type funcEmitter struct {
	emitter *Emitter
	f       *mir.Func
}

func EmitModule(mod *mir.Module, typesIn *types.Interner) (string, error) {
	if mod == nil {
		return "", nil
	}
	e := &Emitter{
		mod:   mod,
		types: typesIn,
		sigs:  make(map[*mir.Func]funcSig, len(mod.Funcs)),
	}
	if err := e.prepareFunctions(); err != nil {
		return "", err
	}
	e.emitPreamble()
	if err := e.emitFunctions(); err != nil {
		return "", err
	}
	return e.buf.String(), nil
}

func (e *Emitter) emitPreamble() {
	fmt.Fprintf(&e.buf, "; ModuleID = '%s'\n", e.mod.Name)
	fmt.Fprintf(&e.buf, "source_filename = \"%s\"\n\n", e.mod.Name)
}

// prepareFunctions lowers signatures from the IR params, which already carry
// pointer types for pass-by-reference parameters.
func (e *Emitter) prepareFunctions() error {
	for _, f := range e.mod.Funcs {
		sig := funcSig{variadic: f.Variadic}
		for _, p := range f.Params {
			ty, err := llvmType(e.types, p.Type)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			sig.params = append(sig.params, ty)
		}
		ret, err := llvmType(e.types, f.Result)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		sig.ret = ret
		e.sigs[f] = sig
	}
	return nil
}

// signature lowers a semantic function type.
func (e *Emitter) signature(fnType types.TypeID, variadic bool) (funcSig, error) {
	info, ok := e.types.FnInfo(fnType)
	if !ok {
		return funcSig{}, fmt.Errorf("not a function type: %s", e.types.String(fnType))
	}
	sig := funcSig{variadic: variadic}
	for _, p := range info.Params {
		ty, err := llvmType(e.types, p)
		if err != nil {
			return funcSig{}, err
		}
		sig.params = append(sig.params, ty)
	}
	ret, err := llvmType(e.types, info.Result)
	if err != nil {
		return funcSig{}, err
	}
	sig.ret = ret
	return sig, nil
}

func (e *Emitter) emitFunctions() error {
	for _, f := range e.mod.Funcs {
		if f.IsDecl() {
			e.emitDecl(f)
			continue
		}
		if err := e.emitFunction(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitDecl(f *mir.Func) {
	sig := e.sigs[f]
	params := sig.params
	if sig.variadic {
		params = append(append([]string(nil), params...), "...")
	}
	fmt.Fprintf(&e.buf, "declare %s %s(%s)\n\n", sig.ret, globalName(f.Name), strings.Join(params, ", "))
}

// globalName quotes names outside LLVM's bare identifier alphabet.
func globalName(name string) string {
	for _, r := range name {
		if !(r == '_' || r == '.' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Sprintf("@\"%s\"", escapeName(name))
		}
	}
	return "@" + name
}

func escapeName(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&sb, "\\%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
