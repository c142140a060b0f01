package vm

import (
	"context"
	"io"
	"os"

	"kiln/internal/mir"
	"kiln/internal/trace"
	"kiln/internal/types"
)

const (
	DefaultStepLimit = 1_000_000
	DefaultMaxDepth  = 256
)

// Native implements a declaration-only function.
type Native func(vm *VM, args []Value) (Value, error)

// Options configures VM execution.
type Options struct {
	StepLimit int       // instructions per Call; 0 means DefaultStepLimit
	MaxDepth  int       // nested calls; 0 means DefaultMaxDepth
	Out       io.Writer // destination of the print natives; nil means stdout
}

type frame struct {
	fn   *mir.Func
	vals map[*mir.Value]Value
}

// VM interprets mir functions. A VM is not safe for concurrent use.
type VM struct {
	Types   *types.Interner
	Handles HandleTable
	Out     io.Writer

	natives map[string]Native
	stack   []*frame
	steps   int
	limit   int
	depth   int
	tracer  trace.Tracer
}

// New creates a VM with the default natives installed.
func New(typesIn *types.Interner, opts Options) *VM {
	vm := &VM{
		Types:   typesIn,
		Out:     opts.Out,
		natives: make(map[string]Native),
		limit:   opts.StepLimit,
		depth:   opts.MaxDepth,
		tracer:  trace.Nop,
	}
	if vm.Out == nil {
		vm.Out = os.Stdout
	}
	if vm.limit <= 0 {
		vm.limit = DefaultStepLimit
	}
	if vm.depth <= 0 {
		vm.depth = DefaultMaxDepth
	}
	installDefaultNatives(vm)
	return vm
}

// RegisterNative binds a declaration-only function name to a host function.
func (vm *VM) RegisterNative(name string, fn Native) {
	vm.natives[name] = fn
}

// HasNative reports whether name is bound.
func (vm *VM) HasNative(name string) bool {
	_, ok := vm.natives[name]
	return ok
}

// Steps reports instructions executed by the last Call.
func (vm *VM) Steps() int { return vm.steps }

// Call runs fn to completion. The tracer in ctx, if any, receives one point
// per call at debug level.
func (vm *VM) Call(ctx context.Context, fn *mir.Func, args []Value) (Value, error) {
	vm.steps = 0
	vm.stack = vm.stack[:0]
	vm.tracer = trace.FromContext(ctx)
	span := trace.Begin(vm.tracer, trace.ScopeNode, "vm_call", trace.CurrentSpan(ctx)).WithExtra("fn", fn.Name)
	res, vmErr := vm.call(fn, args)
	if vmErr != nil {
		span.End(vmErr.Error())
		return Value{}, vmErr
	}
	span.End("")
	return res, nil
}

func (vm *VM) call(fn *mir.Func, args []Value) (Value, *VMError) {
	if len(vm.stack) >= vm.depth {
		return Value{}, vm.panicf(PanicCallDepth, "call depth exceeds %d", vm.depth)
	}
	if vm.tracer.Enabled() {
		trace.Point(vm.tracer, trace.ScopeNode, "vm_enter", fn.Name, 0)
	}
	if fn.IsDecl() {
		return vm.callNative(fn, args)
	}
	if len(args) != len(fn.Params) && !fn.Variadic {
		return Value{}, vm.panicf(PanicTypeMismatch, "%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	fr := &frame{fn: fn, vals: make(map[*mir.Value]Value, len(fn.Params)+8)}
	for i, p := range fn.Params {
		fr.vals[p] = args[i]
	}
	vm.stack = append(vm.stack, fr)
	defer func() { vm.stack = vm.stack[:len(vm.stack)-1] }()

	bb := fn.Entry()
	for {
		for _, in := range bb.Instrs {
			vm.steps++
			if vm.steps > vm.limit {
				return Value{}, vm.panicf(PanicStepLimit, "step limit %d exceeded", vm.limit)
			}
			if err := vm.exec(fr, in); err != nil {
				return Value{}, err
			}
		}
		next, ret, done, err := vm.terminate(fr, &bb.Term)
		if err != nil {
			return Value{}, err
		}
		if done {
			return ret, nil
		}
		bb = next
	}
}

func (vm *VM) callNative(fn *mir.Func, args []Value) (Value, *VMError) {
	native, ok := vm.natives[fn.Name]
	if !ok {
		return Value{}, vm.panicf(PanicUnknownNative, "no native bound for %s", fn.Name)
	}
	res, err := native(vm, args)
	if err != nil {
		if vmErr, ok := err.(*VMError); ok {
			return Value{}, vmErr
		}
		return Value{}, vm.panicf(PanicNativeFailed, "%s: %v", fn.Name, err)
	}
	return res, nil
}

func (vm *VM) terminate(fr *frame, term *mir.Terminator) (next *mir.Block, ret Value, done bool, err *VMError) {
	switch term.Kind {
	case mir.TermReturn:
		if term.Return.Value == nil {
			return nil, Void, true, nil
		}
		v, err := vm.eval(fr, term.Return.Value)
		return nil, v, true, err
	case mir.TermGoto:
		return term.Goto.Target, Value{}, false, nil
	case mir.TermIf:
		c, err := vm.eval(fr, term.If.Cond)
		if err != nil {
			return nil, Value{}, false, err
		}
		if c.Kind != VKBool {
			return nil, Value{}, false, vm.panicf(PanicTypeMismatch, "branch on %s", c.Kind)
		}
		if c.Bool() {
			return term.If.Then, Value{}, false, nil
		}
		return term.If.Else, Value{}, false, nil
	case mir.TermUnreachable:
		return nil, Value{}, false, vm.panicf(PanicUnreachable, "reached unreachable in %s", fr.fn.Name)
	default:
		return nil, Value{}, false, vm.panicf(PanicUnimplemented, "unterminated block in %s", fr.fn.Name)
	}
}
