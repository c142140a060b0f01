package types

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mangle derives the signature-qualified symbol for name over args:
// name_T1_T2. Names are NFC-normalised so visually equal identifiers agree.
func (in *Interner) Mangle(name string, args []TypeID) string {
	var sb strings.Builder
	sb.WriteString(norm.NFC.String(name))
	for _, a := range args {
		sb.WriteByte('_')
		in.mangleType(&sb, a)
	}
	return sb.String()
}

func (in *Interner) mangleType(sb *strings.Builder, id TypeID) {
	tt, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("X")
		return
	}
	if tt.Mutable {
		sb.WriteString("M")
	}
	switch tt.Kind {
	case KindVoid:
		sb.WriteString("v")
	case KindBool:
		sb.WriteString("b")
	case KindInt:
		fmt.Fprintf(sb, "i%d", tt.Width)
	case KindUint:
		fmt.Fprintf(sb, "u%d", tt.Width)
	case KindFloat:
		fmt.Fprintf(sb, "f%d", tt.Width)
	case KindArray:
		sb.WriteString("A")
		in.mangleType(sb, tt.Elem)
	case KindPtr:
		sb.WriteString("P")
		in.mangleType(sb, tt.Elem)
	case KindVar:
		sb.WriteString("V")
		sb.WriteString(norm.NFC.String(in.vars[tt.Payload]))
	case KindFn:
		info := in.fns[tt.Payload]
		sb.WriteString("F")
		for _, p := range info.Params {
			in.mangleType(sb, p)
		}
		sb.WriteString("R")
		in.mangleType(sb, info.Result)
		sb.WriteString("E")
	case KindData:
		info := in.datas[tt.Payload]
		fmt.Fprintf(sb, "D%d%s", len(info.Name), norm.NFC.String(info.Name))
		for _, a := range info.Args {
			in.mangleType(sb, a)
		}
		sb.WriteString("E")
	}
}
