package vm

import (
	"fmt"
	"strings"
)

// PanicCode identifies the type of VM panic.
type PanicCode int

// Stable panic codes - do not change values.
const (
	PanicStepLimit     PanicCode = 1001 // VM1001: step budget exhausted
	PanicTypeMismatch  PanicCode = 1003 // VM1003: type mismatch
	PanicDivByZero     PanicCode = 1004 // VM1004: integer division by zero
	PanicUnknownNative PanicCode = 1005 // VM1005: declaration without native
	PanicUnreachable   PanicCode = 1006 // VM1006: reached unreachable
	PanicBadHandle     PanicCode = 1007 // VM1007: stale or foreign handle
	PanicNativeFailed  PanicCode = 1008 // VM1008: native returned an error
	PanicCallDepth     PanicCode = 1009 // VM1009: call stack too deep
	PanicUnimplemented PanicCode = 1999 // VM1999: unimplemented opcode/terminator
)

// String returns the code as "VM1001" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// VMError represents a runtime panic in the VM.
type VMError struct {
	Code      PanicCode
	Message   string
	Backtrace []string // function names from top to bottom
}

// Error implements the error interface.
func (p *VMError) Error() string {
	return fmt.Sprintf("panic %s: %s", p.Code, p.Message)
}

// Format renders the panic followed by its backtrace.
func (p *VMError) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "panic %s: %s\n", p.Code, p.Message)
	if len(p.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, fn := range p.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s\n", i, fn)
		}
	}
	return sb.String()
}

func (vm *VM) panicf(code PanicCode, format string, args ...any) *VMError {
	bt := make([]string, 0, len(vm.stack))
	for i := len(vm.stack) - 1; i >= 0; i-- {
		bt = append(bt, vm.stack[i].fn.Name)
	}
	return &VMError{Code: code, Message: fmt.Sprintf(format, args...), Backtrace: bt}
}
