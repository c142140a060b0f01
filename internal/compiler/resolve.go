package compiler

import (
	"fmt"
	"strings"

	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/trace"
	"kiln/internal/types"
)

// ResolveDecl picks the declaration of name that a call with argument types
// args binds to.
//
// Candidates must accept len(args) arguments and be declared at a scope depth
// visible from the current one. A single candidate is returned without a type
// check; its compatibility is verified when it is compiled for args. With
// several candidates an exact signature match wins outright; otherwise every
// candidate is scored and the unique highest match count wins.
func (c *Compiler) ResolveDecl(name string, args []types.TypeID, at source.Span) (*FuncDecl, error) {
	span := trace.Begin(c.tracer, trace.ScopeNode, "resolve", c.span).WithExtra("name", name)
	all := c.view.Lookup(name)
	if len(all) == 0 {
		span.End("not found")
		return nil, c.failf(diag.SemaNoOverload, at, "no function named `%s`", name)
	}

	depth := c.ctx.Depth()
	cands := make([]*FuncDecl, 0, len(all))
	for _, fd := range all {
		if fd.Scope <= depth && acceptsArity(fd, len(args)) {
			cands = append(cands, fd)
		}
	}
	span.WithExtra("candidates", fmt.Sprint(len(cands)))

	switch len(cands) {
	case 0:
		span.End("no candidate")
		return nil, c.fail(diag.SemaNoOverload, at,
			fmt.Sprintf("no overload of `%s` takes %d arguments", name, len(args)), c.candidateNotes(all)...)
	case 1:
		span.End("single")
		return cands[0], nil
	}

	mangled := c.types.Mangle(name, args)
	for _, fd := range cands {
		if fd.Mangled != mangled {
			continue
		}
		span.End("exact")
		if _, err := c.compileWithArgs(fd, args, at); err != nil {
			return nil, err
		}
		return fd, nil
	}

	best := -1
	var winners []*FuncDecl
	for _, fd := range cands {
		res := c.types.CheckArgs(fd.params, args[:len(fd.params)])
		if !res.Ok() {
			continue
		}
		if res.Matches > best {
			best = res.Matches
			winners = winners[:0]
		}
		if res.Matches >= best {
			winners = append(winners, fd)
		}
	}
	switch len(winners) {
	case 1:
		span.WithExtra("matches", fmt.Sprint(best)).End("scored")
		return winners[0], nil
	case 0:
		span.End("no match")
		return nil, c.fail(diag.SemaNoOverload, at,
			fmt.Sprintf("no overload of `%s` matches arguments %s", name, c.typeList(args)), c.candidateNotes(cands)...)
	}
	span.End("ambiguous")
	return nil, c.fail(diag.SemaAmbiguousOverload, at,
		fmt.Sprintf("call to `%s` with arguments %s is ambiguous", name, c.typeList(args)), c.candidateNotes(winners)...)
}

// ResolveAndCompile resolves name for args and compiles the chosen
// declaration, specializing it when it is generic.
func (c *Compiler) ResolveAndCompile(name string, args []types.TypeID, at source.Span) (TypedValue, error) {
	fd, err := c.ResolveDecl(name, args, at)
	if err != nil {
		return NoValue, err
	}
	return c.compileWithArgs(fd, args, at)
}

// compileWithArgs verifies fd against args and compiles it, going through
// the instantiator when the match bound type variables of a generic fd.
func (c *Compiler) compileWithArgs(fd *FuncDecl, args []types.TypeID, at source.Span) (TypedValue, error) {
	if fd.Err != nil {
		return NoValue, fd.Err
	}
	fixed := args[:len(fd.params)]
	res := c.types.CheckArgs(fd.params, fixed)
	if !res.Ok() {
		return NoValue, c.fail(diag.SemaNoOverload, at,
			fmt.Sprintf("`%s%s` cannot be called with arguments %s", fd.Name, c.signature(fd), c.typeList(args)),
			note{fd.Span(), "declared here"})
	}
	if fd.IsGeneric() {
		return c.instantiate(fd, res, fixed, at)
	}
	if fd.origin != nil {
		c.record(fd.origin.Mangled, fd.instBindings, fd.Mangled, at)
	}
	return c.Compile(fd)
}

func acceptsArity(fd *FuncDecl, n int) bool {
	if fd.Decl.IsVariadic() {
		return n >= len(fd.params)
	}
	return n == len(fd.params)
}

func (c *Compiler) candidateNotes(cands []*FuncDecl) []note {
	notes := make([]note, len(cands))
	for i, fd := range cands {
		notes[i] = note{fd.Span(), fmt.Sprintf("candidate `%s%s`", fd.Name, c.signature(fd))}
	}
	return notes
}

func (c *Compiler) typeList(list []types.TypeID) string {
	parts := make([]string, len(list))
	for i, t := range list {
		parts[i] = c.types.String(t)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
