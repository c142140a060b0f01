// Package vm interprets mir functions for compile-time execution.
package vm

import (
	"fmt"
	"math"

	"kiln/internal/mir"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VKInvalid represents an invalid value.
	VKInvalid ValueKind = iota
	// VKInt represents any integer, type variables included.
	VKInt
	// VKFloat represents a float value.
	VKFloat
	// VKBool represents a boolean value.
	VKBool
	// VKFunc represents a function value.
	VKFunc
	// VKPtr represents the address of a stack cell.
	VKPtr
	// VKHandle represents an opaque host handle.
	VKHandle
	// VKVoid is the result of void calls.
	VKVoid
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case VKInt:
		return "int"
	case VKFloat:
		return "float"
	case VKBool:
		return "bool"
	case VKFunc:
		return "func"
	case VKPtr:
		return "ptr"
	case VKHandle:
		return "handle"
	case VKVoid:
		return "void"
	default:
		return "invalid"
	}
}

// Cell is one slot of VM memory produced by alloca.
type Cell struct {
	V Value
}

// Value is a runtime value.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Func  *mir.Func
	Ptr   *Cell
}

func IntValue(v int64) Value     { return Value{Kind: VKInt, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: VKFloat, Float: v} }
func BoolValue(v bool) Value {
	if v {
		return Value{Kind: VKBool, Int: 1}
	}
	return Value{Kind: VKBool}
}
func HandleValue(h Handle) Value { return Value{Kind: VKHandle, Int: int64(h)} }

// Void is the value of a void call.
var Void = Value{Kind: VKVoid}

// Bool reports the truth of a bool value.
func (v Value) Bool() bool { return v.Int != 0 }

// Handle returns the handle payload.
func (v Value) Handle() Handle { return Handle(v.Int) }

// bits returns the raw 64-bit image used when memory is reinterpreted.
func (v Value) bits() uint64 {
	if v.Kind == VKFloat {
		return math.Float64bits(v.Float)
	}
	return uint64(v.Int) //nolint:gosec // bit image
}

func (v Value) String() string {
	switch v.Kind {
	case VKInt:
		return fmt.Sprintf("%d", v.Int)
	case VKFloat:
		return fmt.Sprintf("%g", v.Float)
	case VKBool:
		return fmt.Sprintf("%t", v.Bool())
	case VKFunc:
		return "fn " + v.Func.Name
	case VKPtr:
		return fmt.Sprintf("ptr(%p)", v.Ptr)
	case VKHandle:
		return fmt.Sprintf("handle#%d", v.Int)
	case VKVoid:
		return "void"
	default:
		return "invalid"
	}
}
