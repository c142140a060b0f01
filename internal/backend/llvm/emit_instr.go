package llvm

import (
	"fmt"
	"math"
	"strings"

	"kiln/internal/mir"
	"kiln/internal/types"
)

func (fe *funcEmitter) emitOperand(v *mir.Value) (val, ty string, err error) {
	if v == nil {
		return "", "", fmt.Errorf("nil operand")
	}
	ty, err = llvmType(fe.emitter.types, v.Type)
	if err != nil {
		return "", "", err
	}
	switch v.Kind {
	case mir.ValParam, mir.ValInstr:
		return valueName(v), ty, nil
	case mir.ValConstInt:
		return fmt.Sprintf("%d", v.Int), ty, nil
	case mir.ValConstBool:
		if v.Int != 0 {
			return "true", ty, nil
		}
		return "false", ty, nil
	case mir.ValConstFloat:
		f := v.Float
		if ty == "float" {
			f = float64(float32(f))
		}
		return fmt.Sprintf("0x%016X", math.Float64bits(f)), ty, nil
	case mir.ValFunc:
		return globalName(v.Func.Name), "ptr", nil
	case mir.ValUndef:
		return "undef", ty, nil
	default:
		return "", "", fmt.Errorf("unsupported value kind %d", v.Kind)
	}
}

func (fe *funcEmitter) emitInstr(in *mir.Instr) error {
	buf := &fe.emitter.buf
	switch in.Op {
	case mir.OpBinary:
		return fe.emitBinary(in)
	case mir.OpCmp:
		return fe.emitCmp(in)
	case mir.OpCall:
		return fe.emitCall(in)
	case mir.OpAlloca:
		ty, err := llvmType(fe.emitter.types, in.Type)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = alloca %s\n", valueName(in.Result), ty)
	case mir.OpLoad:
		ptr, _, err := fe.emitOperand(in.Args[0])
		if err != nil {
			return err
		}
		ty, err := llvmType(fe.emitter.types, in.Type)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = load %s, ptr %s\n", valueName(in.Result), ty, ptr)
	case mir.OpStore:
		val, ty, err := fe.emitOperand(in.Args[0])
		if err != nil {
			return err
		}
		ptr, _, err := fe.emitOperand(in.Args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  store %s %s, ptr %s\n", ty, val, ptr)
	case mir.OpBitcast:
		val, from, err := fe.emitOperand(in.Args[0])
		if err != nil {
			return err
		}
		to, err := llvmType(fe.emitter.types, in.Type)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = bitcast %s %s to %s\n", valueName(in.Result), from, val, to)
	case mir.OpConv:
		return fe.emitConv(in)
	default:
		return fmt.Errorf("unsupported instruction %s", in.Op)
	}
	return nil
}

func (fe *funcEmitter) binaryOperands(in *mir.Instr) (lhs, rhs, ty string, err error) {
	lhs, ty, err = fe.emitOperand(in.Args[0])
	if err != nil {
		return "", "", "", err
	}
	rhs, _, err = fe.emitOperand(in.Args[1])
	if err != nil {
		return "", "", "", err
	}
	return lhs, rhs, ty, nil
}

func (fe *funcEmitter) emitBinary(in *mir.Instr) error {
	lhs, rhs, ty, err := fe.binaryOperands(in)
	if err != nil {
		return err
	}
	typesIn := fe.emitter.types
	opType := in.Args[0].Type
	var op string
	switch {
	case isFloat(typesIn, opType):
		op = [...]string{"fadd", "fsub", "fmul", "fdiv"}[in.Bin]
	case in.Bin == mir.BinDiv && isUnsigned(typesIn, opType):
		op = "udiv"
	default:
		op = [...]string{"add", "sub", "mul", "sdiv"}[in.Bin]
	}
	fmt.Fprintf(&fe.emitter.buf, "  %s = %s %s %s, %s\n", valueName(in.Result), op, ty, lhs, rhs)
	return nil
}

func (fe *funcEmitter) emitCmp(in *mir.Instr) error {
	lhs, rhs, ty, err := fe.binaryOperands(in)
	if err != nil {
		return err
	}
	typesIn := fe.emitter.types
	opType := in.Args[0].Type
	var op string
	switch {
	case isFloat(typesIn, opType):
		op = map[mir.BinKind]string{mir.CmpEq: "fcmp oeq", mir.CmpLt: "fcmp olt"}[in.Bin]
	case isUnsigned(typesIn, opType):
		op = map[mir.BinKind]string{mir.CmpEq: "icmp eq", mir.CmpLt: "icmp ult"}[in.Bin]
	default:
		op = map[mir.BinKind]string{mir.CmpEq: "icmp eq", mir.CmpLt: "icmp slt"}[in.Bin]
	}
	if op == "" {
		return fmt.Errorf("%s is not a comparison", in.Bin)
	}
	fmt.Fprintf(&fe.emitter.buf, "  %s = %s %s %s, %s\n", valueName(in.Result), op, ty, lhs, rhs)
	return nil
}

func (fe *funcEmitter) emitCall(in *mir.Instr) error {
	callee, _, err := fe.emitOperand(in.Callee)
	if err != nil {
		return err
	}
	sig, err := fe.calleeSig(in.Callee)
	if err != nil {
		return err
	}
	args := make([]string, 0, len(in.Args))
	for _, a := range in.Args {
		val, ty, err := fe.emitOperand(a)
		if err != nil {
			return err
		}
		args = append(args, ty+" "+val)
	}
	fnTy := sig.ret
	if sig.variadic {
		fnTy = fmt.Sprintf("%s (%s)", sig.ret, strings.Join(append(append([]string(nil), sig.params...), "..."), ", "))
	}
	buf := &fe.emitter.buf
	if in.Result == nil {
		fmt.Fprintf(buf, "  call %s %s(%s)\n", fnTy, callee, strings.Join(args, ", "))
		return nil
	}
	fmt.Fprintf(buf, "  %s = call %s %s(%s)\n", valueName(in.Result), fnTy, callee, strings.Join(args, ", "))
	return nil
}

func (fe *funcEmitter) calleeSig(callee *mir.Value) (funcSig, error) {
	if callee.Kind == mir.ValFunc {
		if sig, ok := fe.emitter.sigs[callee.Func]; ok {
			return sig, nil
		}
		return fe.emitter.signature(callee.Func.Type, callee.Func.Variadic)
	}
	return fe.emitter.signature(callee.Type, false)
}

func (fe *funcEmitter) emitConv(in *mir.Instr) error {
	val, from, err := fe.emitOperand(in.Args[0])
	if err != nil {
		return err
	}
	to, err := llvmType(fe.emitter.types, in.Type)
	if err != nil {
		return err
	}
	op, err := convOp(fe.emitter.types, in.Args[0].Type, in.Type)
	if err != nil {
		return err
	}
	fmt.Fprintf(&fe.emitter.buf, "  %s = %s %s %s to %s\n", valueName(in.Result), op, from, val, to)
	return nil
}

// convOp picks the LLVM cast between two numeric types.
func convOp(typesIn *types.Interner, from, to types.TypeID) (string, error) {
	ft, ok1 := typesIn.Lookup(from)
	tt, ok2 := typesIn.Lookup(to)
	if !ok1 || !ok2 || !ft.IsNumeric() || !tt.IsNumeric() {
		return "", fmt.Errorf("cannot convert %s to %s", typesIn.String(from), typesIn.String(to))
	}
	fromFloat := ft.Kind == types.KindFloat
	toFloat := tt.Kind == types.KindFloat
	switch {
	case fromFloat && toFloat:
		switch {
		case ft.Width < tt.Width:
			return "fpext", nil
		case ft.Width > tt.Width:
			return "fptrunc", nil
		}
		return "bitcast", nil
	case fromFloat:
		if tt.Kind == types.KindUint {
			return "fptoui", nil
		}
		return "fptosi", nil
	case toFloat:
		if ft.Kind == types.KindUint {
			return "uitofp", nil
		}
		return "sitofp", nil
	}
	switch {
	case ft.Width < tt.Width && ft.Kind == types.KindUint:
		return "zext", nil
	case ft.Width < tt.Width:
		return "sext", nil
	case ft.Width > tt.Width:
		return "trunc", nil
	}
	return "bitcast", nil
}
