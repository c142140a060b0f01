package types

import "slices"

// CheckRes is the coarse outcome of matching a parameter list against arguments.
type CheckRes uint8

const (
	Failure CheckRes = iota
	Success
	SuccessWithTypeVars
)

func (r CheckRes) String() string {
	switch r {
	case Success:
		return "success"
	case SuccessWithTypeVars:
		return "success_with_typevars"
	default:
		return "failure"
	}
}

// Binding maps a type variable name to the concrete type it was unified with.
type Binding struct {
	Name string
	Type TypeID
}

// CheckResult is the outcome of a type check. Matches counts concrete
// components that were equal; a higher count is a strictly better match.
type CheckResult struct {
	Res      CheckRes
	Matches  int
	Bindings []Binding
}

// Ok reports anything but Failure.
func (r CheckResult) Ok() bool { return r.Res != Failure }

// Lookup returns the binding for name.
func (r CheckResult) Lookup(name string) (TypeID, bool) {
	for _, b := range r.Bindings {
		if b.Name == name {
			return b.Type, true
		}
	}
	return NoTypeID, false
}

type unifier struct {
	in       *Interner
	bindings []Binding
	matches  int
	vars     bool
}

func (u *unifier) bind(name string, t TypeID) bool {
	u.vars = true
	idx := slices.IndexFunc(u.bindings, func(b Binding) bool { return b.Name == name })
	if idx < 0 {
		u.bindings = append(u.bindings, Binding{Name: name, Type: t})
		return true
	}
	bound := u.bindings[idx].Type
	if bound == t {
		return true
	}
	// a variable bound to another variable resolves to the first concrete side
	if u.in.Kind(bound) == KindVar && u.in.Kind(t) != KindVar {
		u.bindings[idx].Type = t
		return true
	}
	return u.in.Kind(t) == KindVar
}

// unify walks expected and actual in lockstep. Mutability is a passing mode,
// not part of identity, and is ignored on both sides.
func (u *unifier) unify(expected, actual TypeID) bool {
	expected, actual = u.in.Unmut(expected), u.in.Unmut(actual)
	et, ok1 := u.in.Lookup(expected)
	at, ok2 := u.in.Lookup(actual)
	if !ok1 || !ok2 {
		return false
	}
	if et.Kind == KindVar {
		if at.Kind == KindVar && et.Payload == at.Payload {
			u.matches++
			return true
		}
		return u.bind(u.in.vars[et.Payload], actual)
	}
	if at.Kind == KindVar {
		return u.bind(u.in.vars[at.Payload], expected)
	}
	if et.Kind != at.Kind {
		return false
	}
	switch et.Kind {
	case KindVoid, KindBool:
		u.matches++
		return true
	case KindInt, KindUint, KindFloat:
		if et.Width != at.Width {
			return false
		}
		u.matches++
		return true
	case KindArray, KindPtr:
		u.matches++
		return u.unify(et.Elem, at.Elem)
	case KindFn:
		ef, af := u.in.fns[et.Payload], u.in.fns[at.Payload]
		if len(ef.Params) != len(af.Params) {
			return false
		}
		u.matches++
		for i := range ef.Params {
			if !u.unify(ef.Params[i], af.Params[i]) {
				return false
			}
		}
		return u.unify(ef.Result, af.Result)
	case KindData:
		ed, ad := u.in.datas[et.Payload], u.in.datas[at.Payload]
		if ed.Name != ad.Name || len(ed.Args) != len(ad.Args) {
			return false
		}
		u.matches++
		for i := range ed.Args {
			if !u.unify(ed.Args[i], ad.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (u *unifier) result(ok bool) CheckResult {
	if !ok {
		return CheckResult{Res: Failure}
	}
	if u.vars {
		return CheckResult{Res: SuccessWithTypeVars, Matches: u.matches, Bindings: u.bindings}
	}
	return CheckResult{Res: Success, Matches: u.matches}
}

// Check matches one expected type against one actual type.
func (in *Interner) Check(expected, actual TypeID) CheckResult {
	u := &unifier{in: in}
	return u.result(u.unify(expected, actual))
}

// CheckArgs matches a parameter list against call-site argument types with
// one shared set of bindings. Lengths must agree.
func (in *Interner) CheckArgs(params, args []TypeID) CheckResult {
	if len(params) != len(args) {
		return CheckResult{Res: Failure}
	}
	u := &unifier{in: in}
	for i := range params {
		if !u.unify(params[i], args[i]) {
			return CheckResult{Res: Failure}
		}
	}
	return u.result(true)
}
