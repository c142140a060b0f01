package types

import (
	"fmt"
	"strings"
)

// String renders id in source spelling: i32, 't, [i32], *u8, fn(i32)->i32, Box<i64>, mut i32.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	var s string
	switch tt.Kind {
	case KindVoid:
		s = "void"
	case KindBool:
		s = "bool"
	case KindInt:
		s = fmt.Sprintf("i%d", tt.Width)
	case KindUint:
		s = fmt.Sprintf("u%d", tt.Width)
	case KindFloat:
		s = fmt.Sprintf("f%d", tt.Width)
	case KindArray:
		s = "[" + in.String(tt.Elem) + "]"
	case KindPtr:
		s = "*" + in.String(tt.Elem)
	case KindVar:
		s = "'" + in.vars[tt.Payload]
	case KindFn:
		info := in.fns[tt.Payload]
		parts := make([]string, len(info.Params))
		for i, p := range info.Params {
			parts[i] = in.String(p)
		}
		s = "fn(" + strings.Join(parts, ", ") + ")->" + in.String(info.Result)
	case KindData:
		info := in.datas[tt.Payload]
		s = info.Name
		if len(info.Args) > 0 {
			parts := make([]string, len(info.Args))
			for i, a := range info.Args {
				parts[i] = in.String(a)
			}
			s += "<" + strings.Join(parts, ", ") + ">"
		}
	default:
		s = tt.Kind.String()
	}
	if tt.Mutable {
		return "mut " + s
	}
	return s
}
