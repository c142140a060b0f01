package compiler

import (
	"slices"

	"kiln/internal/ast"
	"kiln/internal/mir"
	"kiln/internal/source"
	"kiln/internal/types"
)

// Context is the mutable state threaded through reentrant compilation. It is
// owned by one Compiler and only mutated through enterFn/release and the
// scope helpers.
type Context struct {
	callStack      []*FuncDecl
	continueLabels []*loopLabel
	breakLabels    []*loopLabel
	scopes         []*scope // scopes[0] is the top level
	fnScope        int      // index of the innermost function-entry scope

	// Receiver object of the ext block being registered.
	obj         types.TypeID
	objExpr     *ast.TypeExpr
	objBindings []types.Binding

	comptime  bool
	instDepth int

	// Body compilation state of the innermost function.
	fn      *mir.Func
	retHint types.TypeID
	dead    bool // the insertion point cannot be reached
}

type loopLabel struct {
	target *mir.Block
	used   bool
}

func newContext() *Context {
	return &Context{scopes: []*scope{newScope()}}
}

// Depth is the current lexical scope depth; 0 is the top level.
func (cx *Context) Depth() int {
	return len(cx.scopes) - 1
}

// CallDepth is the number of functions being compiled.
func (cx *Context) CallDepth() int {
	return len(cx.callStack)
}

// Comptime reports compile-time evaluation mode.
func (cx *Context) Comptime() bool {
	return cx.comptime
}

func (cx *Context) top() *scope {
	return cx.scopes[len(cx.scopes)-1]
}

func (cx *Context) pushScope() {
	cx.scopes = append(cx.scopes, newScope())
}

func (cx *Context) popScope() {
	if len(cx.scopes) > 1 {
		cx.scopes = cx.scopes[:len(cx.scopes)-1]
	}
}

// truncate closes scopes down to depth, never past it.
func (cx *Context) truncate(depth int) {
	if depth < 0 {
		depth = 0
	}
	if depth < cx.Depth() {
		clear(cx.scopes[depth+1:])
		cx.scopes = cx.scopes[:depth+1]
	}
}

// lookupVar searches the current function's scopes only.
func (cx *Context) lookupVar(name string) (*local, bool) {
	for i := len(cx.scopes) - 1; i >= cx.fnScope && i >= 0; i-- {
		if lv, ok := cx.scopes[i].vars[name]; ok {
			return lv, true
		}
	}
	return nil, false
}

// lookupConst searches every open scope for a compile-time type constant.
func (cx *Context) lookupConst(name string) (types.TypeID, bool) {
	for i := len(cx.scopes) - 1; i >= 0; i-- {
		if t, ok := cx.scopes[i].consts[name]; ok {
			return t, true
		}
	}
	return types.NoTypeID, false
}

type local struct {
	val   *mir.Value
	ty    types.TypeID
	byRef bool
	span  source.Span
}

type scope struct {
	vars   map[string]*local
	consts map[string]types.TypeID
}

func newScope() *scope {
	return &scope{}
}

func (s *scope) declareVar(name string, lv *local) {
	if s.vars == nil {
		s.vars = make(map[string]*local)
	}
	s.vars[name] = lv
}

func (s *scope) declareConst(name string, t types.TypeID) {
	if s.consts == nil {
		s.consts = make(map[string]types.TypeID)
	}
	s.consts[name] = t
}

// fnGuard snapshots everything a nested function compilation mutates.
// release restores it on every exit path.
type fnGuard struct {
	c              *Compiler
	continueLabels []*loopLabel
	breakLabels    []*loopLabel
	depth          int
	fnScope        int
	calls          int
	view           *View
	block          *mir.Block
	fn             *mir.Func
	retHint        types.TypeID
	dead           bool
	span           uint64
}

// enterFn pushes fd, isolates the loop labels, opens the function-entry scope
// and declares fd's concrete bindings as type constants in it.
func (c *Compiler) enterFn(fd *FuncDecl, span uint64) *fnGuard {
	cx := c.ctx
	g := &fnGuard{
		c:              c,
		continueLabels: cx.continueLabels,
		breakLabels:    cx.breakLabels,
		depth:          cx.Depth(),
		fnScope:        cx.fnScope,
		calls:          len(cx.callStack),
		view:           c.view,
		block:          c.b.InsertBlock(),
		fn:             cx.fn,
		retHint:        cx.retHint,
		dead:           cx.dead,
		span:           c.span,
	}
	cx.callStack = append(cx.callStack, fd)
	cx.continueLabels = nil
	cx.breakLabels = nil
	cx.pushScope()
	cx.fnScope = cx.Depth()
	for _, b := range fd.Bindings {
		if !c.types.IsGeneric(b.Type) {
			cx.top().declareConst(b.Name, b.Type)
		}
	}
	if fd.Module != nil && c.view.Home() != fd.Module {
		c.view = c.view.With(fd.Module)
	}
	c.span = span
	return g
}

func (g *fnGuard) release() {
	c, cx := g.c, g.c.ctx
	cx.callStack = slices.Delete(cx.callStack, g.calls, len(cx.callStack))
	cx.continueLabels = g.continueLabels
	cx.breakLabels = g.breakLabels
	cx.truncate(g.depth)
	cx.fnScope = g.fnScope
	cx.fn = g.fn
	cx.retHint = g.retHint
	cx.dead = g.dead
	c.view = g.view
	c.b.SetInsertPoint(g.block)
	c.span = g.span
}
