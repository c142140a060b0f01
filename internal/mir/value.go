package mir

import (
	"kiln/internal/types"
)

// ValueKind says where a value comes from.
type ValueKind uint8

const (
	ValParam ValueKind = iota
	ValInstr
	ValConstInt
	ValConstFloat
	ValConstBool
	ValFunc  // address of a function
	ValUndef // poison for void results
)

// Value is an SSA value. Constants and function references are not owned by
// any function; params and instruction results are.
type Value struct {
	ID    uint32
	Kind  ValueKind
	Type  types.TypeID
	Index int     // parameter position for ValParam
	Int   int64   // ValConstInt, ValConstBool (0/1)
	Float float64 // ValConstFloat
	Func  *Func   // ValFunc
	Def   *Instr  // ValInstr
}

// ConstInt makes an integer constant of type ty.
func ConstInt(ty types.TypeID, v int64) *Value {
	return &Value{Kind: ValConstInt, Type: ty, Int: v}
}

// ConstFloat makes a float constant of type ty.
func ConstFloat(ty types.TypeID, v float64) *Value {
	return &Value{Kind: ValConstFloat, Type: ty, Float: v}
}

// ConstBool makes a boolean constant.
func ConstBool(ty types.TypeID, v bool) *Value {
	c := &Value{Kind: ValConstBool, Type: ty}
	if v {
		c.Int = 1
	}
	return c
}

// FuncRef is the value of a function used as a callee or a function argument.
func FuncRef(f *Func) *Value {
	return &Value{Kind: ValFunc, Type: f.Type, Func: f}
}

// Undef is a placeholder value of type ty.
func Undef(ty types.TypeID) *Value {
	return &Value{Kind: ValUndef, Type: ty}
}

// IsConst reports literal constants.
func (v *Value) IsConst() bool {
	return v.Kind == ValConstInt || v.Kind == ValConstFloat || v.Kind == ValConstBool
}
