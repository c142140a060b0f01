package types

// Subst replaces every bound type variable inside id. Unbound variables stay.
func (in *Interner) Subst(id TypeID, bindings []Binding) TypeID {
	if len(bindings) == 0 || !in.IsGeneric(id) {
		return id
	}
	tt := in.MustLookup(id)
	var out TypeID
	switch tt.Kind {
	case KindVar:
		name := in.vars[tt.Payload]
		out = id
		for _, b := range bindings {
			if b.Name == name {
				out = b.Type
				break
			}
		}
	case KindArray:
		out = in.Array(in.Subst(tt.Elem, bindings))
	case KindPtr:
		out = in.Ptr(in.Subst(tt.Elem, bindings))
	case KindFn:
		info := in.fns[tt.Payload]
		params := make([]TypeID, len(info.Params))
		for i, p := range info.Params {
			params[i] = in.Subst(p, bindings)
		}
		out = in.Fn(params, in.Subst(info.Result, bindings))
	case KindData:
		info := in.datas[tt.Payload]
		args := make([]TypeID, len(info.Args))
		for i, a := range info.Args {
			args[i] = in.Subst(a, bindings)
		}
		out = in.Data(info.Name, args)
	default:
		return id
	}
	if tt.Mutable {
		return in.Mut(out)
	}
	return out
}
