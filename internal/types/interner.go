package types

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID
	I8      TypeID
	I16     TypeID
	I32     TypeID
	I64     TypeID
	U8      TypeID
	U16     TypeID
	U32     TypeID
	U64     TypeID
	F32     TypeID
	F64     TypeID
}

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// DataInfo stores metadata for nominal data types.
type DataInfo struct {
	Name string
	Args []TypeID
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Width   Width
	Mutable bool
	Payload uint32
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Function, variable and data types are deduplicated through string keys.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins

	fns   []FnInfo
	vars  []string
	datas []DataInfo
	slots map[string]uint32 // structural key -> side-table slot
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
		slots: make(map[string]uint32, 32),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.I8 = in.Intern(MakeInt(Width8))
	in.builtins.I16 = in.Intern(MakeInt(Width16))
	in.builtins.I32 = in.Intern(MakeInt(Width32))
	in.builtins.I64 = in.Intern(MakeInt(Width64))
	in.builtins.U8 = in.Intern(MakeUint(Width8))
	in.builtins.U16 = in.Intern(MakeUint(Width16))
	in.builtins.U32 = in.Intern(MakeUint(Width32))
	in.builtins.U64 = in.Intern(MakeUint(Width64))
	in.builtins.F32 = in.Intern(MakeFloat(Width32))
	in.builtins.F64 = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[typeKey(t)]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

func (in *Interner) slot(key string, add func() int) uint32 {
	if s, ok := in.slots[key]; ok {
		return s
	}
	s, err := safecast.Conv[uint32](add())
	if err != nil {
		panic(fmt.Errorf("type side table overflow: %w", err))
	}
	in.slots[key] = s
	return s
}

// Fn creates or finds a function type.
func (in *Interner) Fn(params []TypeID, result TypeID) TypeID {
	var sb strings.Builder
	sb.WriteString("fn")
	for _, p := range params {
		fmt.Fprintf(&sb, ",%d", p)
	}
	fmt.Fprintf(&sb, "->%d", result)
	s := in.slot(sb.String(), func() int {
		in.fns = append(in.fns, FnInfo{Params: slices.Clone(params), Result: result})
		return len(in.fns) - 1
	})
	return in.Intern(Type{Kind: KindFn, Payload: s})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// Var creates or finds the type variable 'name.
func (in *Interner) Var(name string) TypeID {
	name = strings.TrimPrefix(name, "'")
	s := in.slot("var:"+name, func() int {
		in.vars = append(in.vars, name)
		return len(in.vars) - 1
	})
	return in.Intern(Type{Kind: KindVar, Payload: s})
}

// VarName returns the name of a type variable without the leading quote.
func (in *Interner) VarName(id TypeID) (string, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindVar {
		return "", false
	}
	return in.vars[tt.Payload], true
}

// Data creates or finds the nominal data type Name<args>.
func (in *Interner) Data(name string, args []TypeID) TypeID {
	var sb strings.Builder
	sb.WriteString("data:")
	sb.WriteString(name)
	for _, a := range args {
		fmt.Fprintf(&sb, ",%d", a)
	}
	s := in.slot(sb.String(), func() int {
		in.datas = append(in.datas, DataInfo{Name: name, Args: slices.Clone(args)})
		return len(in.datas) - 1
	})
	return in.Intern(Type{Kind: KindData, Payload: s})
}

// DataInfo retrieves data type metadata by TypeID.
func (in *Interner) DataInfo(id TypeID) (*DataInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindData {
		return nil, false
	}
	return &in.datas[tt.Payload], true
}

// Array returns [elem].
func (in *Interner) Array(elem TypeID) TypeID {
	return in.Intern(MakeArray(elem))
}

// Ptr returns *elem.
func (in *Interner) Ptr(elem TypeID) TypeID {
	return in.Intern(MakePtr(elem))
}

// Mut returns id marked as `mut`.
func (in *Interner) Mut(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Mutable {
		return id
	}
	tt.Mutable = true
	return in.Intern(tt)
}

// Unmut strips the `mut` marker.
func (in *Interner) Unmut(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || !tt.Mutable {
		return id
	}
	tt.Mutable = false
	return in.Intern(tt)
}

// IsMut reports whether id carries `mut`.
func (in *Interner) IsMut(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Mutable
}

// Kind is a shorthand for the descriptor kind, KindInvalid for unknown ids.
func (in *Interner) Kind(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// IsByRef reports whether values of id are passed by address:
// arrays and `mut` types.
func (in *Interner) IsByRef(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && (tt.Mutable || tt.Kind == KindArray)
}

// IsGeneric reports whether id mentions any type variable.
func (in *Interner) IsGeneric(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindVar:
		return true
	case KindArray, KindPtr:
		return in.IsGeneric(tt.Elem)
	case KindFn:
		info := in.fns[tt.Payload]
		return slices.ContainsFunc(info.Params, in.IsGeneric) || in.IsGeneric(info.Result)
	case KindData:
		return slices.ContainsFunc(in.datas[tt.Payload].Args, in.IsGeneric)
	}
	return false
}

// ByName resolves a primitive spelling; int, uint and float alias 32/32/64 bit.
func (in *Interner) ByName(name string) (TypeID, bool) {
	b := in.builtins
	switch name {
	case "void":
		return b.Void, true
	case "bool":
		return b.Bool, true
	case "i8":
		return b.I8, true
	case "i16":
		return b.I16, true
	case "i32", "int":
		return b.I32, true
	case "i64":
		return b.I64, true
	case "u8":
		return b.U8, true
	case "u16":
		return b.U16, true
	case "u32", "uint":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "f32":
		return b.F32, true
	case "f64", "float":
		return b.F64, true
	}
	return NoTypeID, false
}
