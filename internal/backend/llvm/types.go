package llvm

import (
	"fmt"

	"kiln/internal/types"
)

// llvmType lowers a semantic type. Type variables that survive to the
// backend lower to i64; aggregates, pointers and functions are opaque ptr.
func llvmType(typesIn *types.Interner, id types.TypeID) (string, error) {
	if id == types.NoTypeID {
		return "void", nil
	}
	if typesIn == nil {
		return "void", fmt.Errorf("missing type interner")
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "void", fmt.Errorf("unknown type id %d", id)
	}
	switch tt.Kind {
	case types.KindVoid:
		return "void", nil
	case types.KindBool:
		return "i1", nil
	case types.KindInt, types.KindUint:
		return intWidthType(tt.Width), nil
	case types.KindFloat:
		if tt.Width == types.Width32 {
			return "float", nil
		}
		return "double", nil
	case types.KindVar:
		return "i64", nil
	case types.KindArray, types.KindPtr, types.KindFn, types.KindData:
		return "ptr", nil
	default:
		return "void", fmt.Errorf("unsupported type kind %s", tt.Kind)
	}
}

func intWidthType(w types.Width) string {
	return fmt.Sprintf("i%d", w)
}

func isFloat(typesIn *types.Interner, id types.TypeID) bool {
	return typesIn.Kind(id) == types.KindFloat
}

func isUnsigned(typesIn *types.Interner, id types.TypeID) bool {
	return typesIn.Kind(id) == types.KindUint
}
