package vm_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"kiln/internal/mir"
	"kiln/internal/types"
	"kiln/internal/vm"
)

// buildFactorial builds fact(n) = n < 2 ? 1 : n * fact(n - 1) over i64.
func buildFactorial(in *types.Interner) *mir.Func {
	i64 := in.Builtins().I64
	f := mir.NewFunc("fact", in.Fn([]types.TypeID{i64}, i64), []types.TypeID{i64}, i64)
	b := mir.NewBuilder(in)
	entry := f.NewBlock("entry")
	base := f.NewBlock("base")
	rec := f.NewBlock("rec")

	b.SetInsertPoint(entry)
	b.CondBr(b.Cmp(mir.CmpLt, f.Params[0], mir.ConstInt(i64, 2)), base, rec)
	b.SetInsertPoint(base)
	b.Ret(mir.ConstInt(i64, 1))
	b.SetInsertPoint(rec)
	n1 := b.Binary(mir.BinSub, f.Params[0], mir.ConstInt(i64, 1))
	sub := b.Call(mir.FuncRef(f), []*mir.Value{n1}, i64)
	b.Ret(b.Binary(mir.BinMul, f.Params[0], sub))
	return f
}

func TestCallRecursive(t *testing.T) {
	in := types.NewInterner()
	machine := vm.New(in, vm.Options{})
	got, err := machine.Call(context.Background(), buildFactorial(in), []vm.Value{vm.IntValue(10)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got.Kind != vm.VKInt || got.Int != 3628800 {
		t.Fatalf("fact(10) = %s", got)
	}
}

func TestStepLimit(t *testing.T) {
	in := types.NewInterner()
	machine := vm.New(in, vm.Options{StepLimit: 10})
	_, err := machine.Call(context.Background(), buildFactorial(in), []vm.Value{vm.IntValue(20)})
	var vmErr *vm.VMError
	if !errors.As(err, &vmErr) || vmErr.Code != vm.PanicStepLimit {
		t.Fatalf("expected step limit panic, got %v", err)
	}
	if len(vmErr.Backtrace) == 0 || vmErr.Backtrace[0] != "fact" {
		t.Errorf("unexpected backtrace %v", vmErr.Backtrace)
	}
}

func TestIntegerWrapsToWidth(t *testing.T) {
	in := types.NewInterner()
	i8 := in.Builtins().I8
	f := mir.NewFunc("f", in.Fn(nil, i8), nil, i8)
	b := mir.NewBuilder(in)
	b.SetInsertPoint(f.NewBlock("entry"))
	b.Ret(b.Binary(mir.BinAdd, mir.ConstInt(i8, 127), mir.ConstInt(i8, 1)))

	got, err := vm.New(in, vm.Options{}).Call(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got.Int != -128 {
		t.Fatalf("127i8 + 1 = %d, want -128", got.Int)
	}
}

func TestReinterpretRoundTripsBits(t *testing.T) {
	in := types.NewInterner()
	f64 := in.Builtins().F64
	tv := in.Var("t")
	f := mir.NewFunc("id", in.Fn([]types.TypeID{tv}, f64), []types.TypeID{tv}, f64)
	b := mir.NewBuilder(in)
	b.SetInsertPoint(f.NewBlock("entry"))
	b.Ret(b.Reinterpret(f.Params[0], f64))

	got, err := vm.New(in, vm.Options{}).Call(context.Background(), f, []vm.Value{vm.FloatValue(2.5)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got.Kind != vm.VKFloat || got.Float != 2.5 {
		t.Fatalf("got %s", got)
	}
}

func TestNativesAndHandles(t *testing.T) {
	in := types.NewInterner()
	i32 := in.Builtins().I32
	void := in.Builtins().Void
	var out bytes.Buffer
	machine := vm.New(in, vm.Options{Out: &out})

	h := machine.Handles.Put("payload")
	machine.RegisterNative("arity", func(m *vm.VM, args []vm.Value) (vm.Value, error) {
		obj, ok := m.Handles.Get(args[0].Handle())
		if !ok || obj != "payload" {
			return vm.Value{}, errors.New("bad handle")
		}
		return vm.IntValue(7), nil
	})

	arity := mir.NewFunc("arity", in.Fn([]types.TypeID{i32}, i32), []types.TypeID{i32}, i32)
	printFn := mir.NewFunc("print", in.Fn([]types.TypeID{i32}, void), []types.TypeID{i32}, void)
	f := mir.NewFunc("hook", in.Fn([]types.TypeID{i32}, void), []types.TypeID{i32}, void)
	b := mir.NewBuilder(in)
	b.SetInsertPoint(f.NewBlock("entry"))
	n := b.Call(mir.FuncRef(arity), []*mir.Value{f.Params[0]}, i32)
	b.Call(mir.FuncRef(printFn), []*mir.Value{n}, void)
	b.Ret(nil)

	if _, err := machine.Call(context.Background(), f, []vm.Value{vm.HandleValue(h)}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.String() != "7\n" {
		t.Fatalf("output %q", out.String())
	}

	missing := mir.NewFunc("nowhere", in.Fn(nil, void), nil, void)
	_, err := machine.Call(context.Background(), missing, nil)
	var vmErr *vm.VMError
	if !errors.As(err, &vmErr) || vmErr.Code != vm.PanicUnknownNative {
		t.Fatalf("expected unknown native, got %v", err)
	}
}

func TestDivisionByZero(t *testing.T) {
	in := types.NewInterner()
	i32 := in.Builtins().I32
	f := mir.NewFunc("f", in.Fn([]types.TypeID{i32}, i32), []types.TypeID{i32}, i32)
	b := mir.NewBuilder(in)
	b.SetInsertPoint(f.NewBlock("entry"))
	b.Ret(b.Binary(mir.BinDiv, mir.ConstInt(i32, 1), f.Params[0]))
	_, err := vm.New(in, vm.Options{}).Call(context.Background(), f, []vm.Value{vm.IntValue(0)})
	var vmErr *vm.VMError
	if !errors.As(err, &vmErr) || vmErr.Code != vm.PanicDivByZero {
		t.Fatalf("expected division panic, got %v", err)
	}
}
