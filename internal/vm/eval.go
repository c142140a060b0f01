package vm

import (
	"math"

	"kiln/internal/mir"
	"kiln/internal/types"
)

func (vm *VM) eval(fr *frame, v *mir.Value) (Value, *VMError) {
	switch v.Kind {
	case mir.ValConstInt:
		return IntValue(v.Int), nil
	case mir.ValConstFloat:
		return FloatValue(v.Float), nil
	case mir.ValConstBool:
		return BoolValue(v.Int != 0), nil
	case mir.ValFunc:
		return Value{Kind: VKFunc, Func: v.Func}, nil
	case mir.ValUndef:
		return vm.zero(v.Type), nil
	}
	val, ok := fr.vals[v]
	if !ok {
		return Value{}, vm.panicf(PanicTypeMismatch, "value %%v%d used before definition in %s", v.ID, fr.fn.Name)
	}
	return val, nil
}

func (vm *VM) zero(ty types.TypeID) Value {
	switch vm.Types.Kind(ty) {
	case types.KindFloat:
		return FloatValue(0)
	case types.KindBool:
		return BoolValue(false)
	case types.KindVoid:
		return Void
	default:
		return IntValue(0)
	}
}

func (vm *VM) args(fr *frame, in *mir.Instr) ([]Value, *VMError) {
	out := make([]Value, len(in.Args))
	for i, a := range in.Args {
		v, err := vm.eval(fr, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (vm *VM) exec(fr *frame, in *mir.Instr) *VMError {
	args, err := vm.args(fr, in)
	if err != nil {
		return err
	}
	var res Value
	switch in.Op {
	case mir.OpBinary:
		res, err = vm.binary(in, args[0], args[1])
	case mir.OpCmp:
		res, err = vm.compare(in, args[0], args[1])
	case mir.OpCall:
		res, err = vm.execCall(fr, in, args)
	case mir.OpAlloca:
		res = Value{Kind: VKPtr, Ptr: &Cell{V: vm.zero(in.Type)}}
	case mir.OpLoad:
		if args[0].Kind != VKPtr {
			return vm.panicf(PanicTypeMismatch, "load through %s", args[0].Kind)
		}
		res = vm.reinterpret(args[0].Ptr.V, in.Type)
	case mir.OpStore:
		if args[1].Kind != VKPtr {
			return vm.panicf(PanicTypeMismatch, "store through %s", args[1].Kind)
		}
		args[1].Ptr.V = args[0]
	case mir.OpBitcast:
		res = args[0]
	case mir.OpConv:
		res = vm.convert(args[0], in.Args[0].Type, in.Type)
	default:
		return vm.panicf(PanicUnimplemented, "opcode %s", in.Op)
	}
	if err != nil {
		return err
	}
	if in.Result != nil {
		fr.vals[in.Result] = res
	}
	return nil
}

func (vm *VM) execCall(fr *frame, in *mir.Instr, args []Value) (Value, *VMError) {
	callee, err := vm.eval(fr, in.Callee)
	if err != nil {
		return Value{}, err
	}
	if callee.Kind != VKFunc {
		return Value{}, vm.panicf(PanicTypeMismatch, "call through %s", callee.Kind)
	}
	return vm.call(callee.Func, args)
}

// reinterpret views the bits of v as ty, the way a load through a bitcast
// pointer does.
func (vm *VM) reinterpret(v Value, ty types.TypeID) Value {
	switch vm.Types.Kind(ty) {
	case types.KindFloat:
		if v.Kind == VKFloat {
			return v
		}
		return FloatValue(math.Float64frombits(v.bits()))
	case types.KindInt, types.KindUint, types.KindVar:
		if v.Kind == VKFloat {
			return IntValue(int64(v.bits())) //nolint:gosec // bit image
		}
		if v.Kind == VKBool {
			return IntValue(v.Int)
		}
	case types.KindBool:
		if v.Kind != VKBool {
			return BoolValue(v.bits() != 0)
		}
	}
	return v
}

// wrap truncates an integer result to the width of ty.
func (vm *VM) wrap(x int64, ty types.TypeID) int64 {
	tt, ok := vm.Types.Lookup(ty)
	if !ok || tt.Width == 0 || tt.Width == types.Width64 {
		return x
	}
	shift := 64 - uint(tt.Width)
	if tt.Kind == types.KindUint {
		return int64(uint64(x) << shift >> shift) //nolint:gosec // masked to width
	}
	return x << shift >> shift
}

func (vm *VM) binary(in *mir.Instr, a, b Value) (Value, *VMError) {
	ty := in.Args[0].Type
	if a.Kind == VKFloat && b.Kind == VKFloat {
		var r float64
		switch in.Bin {
		case mir.BinAdd:
			r = a.Float + b.Float
		case mir.BinSub:
			r = a.Float - b.Float
		case mir.BinMul:
			r = a.Float * b.Float
		case mir.BinDiv:
			r = a.Float / b.Float
		}
		if vm.isF32(ty) {
			r = float64(float32(r))
		}
		return FloatValue(r), nil
	}
	if a.Kind != VKInt || b.Kind != VKInt {
		return Value{}, vm.panicf(PanicTypeMismatch, "%s on %s and %s", in.Bin, a.Kind, b.Kind)
	}
	var r int64
	switch in.Bin {
	case mir.BinAdd:
		r = a.Int + b.Int
	case mir.BinSub:
		r = a.Int - b.Int
	case mir.BinMul:
		r = a.Int * b.Int
	case mir.BinDiv:
		if b.Int == 0 {
			return Value{}, vm.panicf(PanicDivByZero, "division by zero")
		}
		if vm.Types.Kind(ty) == types.KindUint {
			r = int64(uint64(a.Int) / uint64(b.Int)) //nolint:gosec // unsigned view
		} else {
			r = a.Int / b.Int
		}
	}
	return IntValue(vm.wrap(r, ty)), nil
}

func (vm *VM) compare(in *mir.Instr, a, b Value) (Value, *VMError) {
	if a.Kind != b.Kind {
		return Value{}, vm.panicf(PanicTypeMismatch, "%s on %s and %s", in.Bin, a.Kind, b.Kind)
	}
	if a.Kind == VKFloat {
		if in.Bin == mir.CmpEq {
			return BoolValue(a.Float == b.Float), nil
		}
		return BoolValue(a.Float < b.Float), nil
	}
	if in.Bin == mir.CmpEq {
		return BoolValue(a.Int == b.Int), nil
	}
	if vm.Types.Kind(in.Args[0].Type) == types.KindUint {
		return BoolValue(uint64(a.Int) < uint64(b.Int)), nil //nolint:gosec // unsigned view
	}
	return BoolValue(a.Int < b.Int), nil
}

func (vm *VM) convert(v Value, from, to types.TypeID) Value {
	toKind := vm.Types.Kind(to)
	switch {
	case toKind == types.KindFloat && v.Kind == VKFloat:
		if vm.isF32(to) {
			return FloatValue(float64(float32(v.Float)))
		}
		return v
	case toKind == types.KindFloat:
		if vm.Types.Kind(from) == types.KindUint {
			return FloatValue(float64(uint64(v.Int))) //nolint:gosec // unsigned view
		}
		return FloatValue(float64(v.Int))
	case v.Kind == VKFloat:
		return IntValue(vm.wrap(int64(v.Float), to))
	default:
		return IntValue(vm.wrap(v.Int, to))
	}
}

func (vm *VM) isF32(ty types.TypeID) bool {
	tt, ok := vm.Types.Lookup(ty)
	return ok && tt.Kind == types.KindFloat && tt.Width == types.Width32
}
