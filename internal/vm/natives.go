package vm

import (
	"fmt"
	"strings"
)

func installDefaultNatives(vm *VM) {
	vm.RegisterNative("print", nativePrint)
	vm.RegisterNative("println", nativePrint)
	vm.RegisterNative("printf", nativePrint)
}

// nativePrint writes its arguments space-separated with a trailing newline.
func nativePrint(vm *VM, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if _, err := fmt.Fprintln(vm.Out, strings.Join(parts, " ")); err != nil {
		return Value{}, err
	}
	return Void, nil
}
