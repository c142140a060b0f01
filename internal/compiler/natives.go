package compiler

import (
	"fmt"

	"fortio.org/safecast"

	"kiln/internal/vm"
)

// installNatives binds the FuncDecl reflection functions hooks can declare
// and call:
//
//	fn decl_arity(d: FuncDecl) -> i32;
//	fn decl_is_generic(d: FuncDecl) -> bool;
//	fn decl_has_body(d: FuncDecl) -> bool;
//	fn decl_scope(d: FuncDecl) -> i32;
func (c *Compiler) installNatives() {
	c.vm.RegisterNative("decl_arity", c.declNative(func(fd *FuncDecl) (vm.Value, error) {
		n, err := safecast.Conv[int32](fd.Arity())
		return vm.IntValue(int64(n)), err
	}))
	c.vm.RegisterNative("decl_is_generic", c.declNative(func(fd *FuncDecl) (vm.Value, error) {
		return vm.BoolValue(fd.IsGeneric()), nil
	}))
	c.vm.RegisterNative("decl_has_body", c.declNative(func(fd *FuncDecl) (vm.Value, error) {
		return vm.BoolValue(fd.Decl.Body != nil), nil
	}))
	c.vm.RegisterNative("decl_scope", c.declNative(func(fd *FuncDecl) (vm.Value, error) {
		n, err := safecast.Conv[int32](fd.Scope)
		return vm.IntValue(int64(n)), err
	}))
}

func (c *Compiler) declNative(fn func(*FuncDecl) (vm.Value, error)) vm.Native {
	return func(m *vm.VM, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 || args[0].Kind != vm.VKHandle {
			return vm.Value{}, fmt.Errorf("expected one FuncDecl handle, got %d arguments", len(args))
		}
		obj, ok := m.Handles.Get(args[0].Handle())
		if !ok {
			return vm.Value{}, fmt.Errorf("stale FuncDecl handle %d", args[0].Handle())
		}
		fd, ok := obj.(*FuncDecl)
		if !ok {
			return vm.Value{}, fmt.Errorf("handle %d is not a FuncDecl", args[0].Handle())
		}
		return fn(fd)
	}
}
