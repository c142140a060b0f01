package compiler

import (
	"context"
	"errors"
	"fmt"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/mono"
	"kiln/internal/observ"
	"kiln/internal/trace"
	"kiln/internal/types"
	"kiln/internal/vm"
)

// DefaultMaxInstantiationDepth bounds nested generic specialization.
const DefaultMaxInstantiationDepth = 64

// Options configures a Compiler.
type Options struct {
	Reporter              diag.Reporter
	OptLevel              int
	MaxInstantiationDepth int
	// Comptime starts the compiler in compile-time evaluation mode, so
	// `comptime` functions compile to real code.
	Comptime bool
	VM       vm.Options
	// Timings, when set, receives one phase per compiled function.
	Timings *observ.Timer
}

// Compiler compiles the function declarations of one or more files into a
// single mir.Module. It is not safe for concurrent use.
type Compiler struct {
	base     context.Context
	tracer   trace.Tracer
	types    *types.Interner
	reporter diag.Reporter
	opts     Options

	ctx    *Context
	view   *View
	units  []*Module
	mod    *mir.Module
	b      *mir.Builder
	passes *mir.PassManager
	insts  *mono.InstantiationMap
	vm     *vm.VM

	hooks   []*FuncDecl
	hookFns map[*FuncDecl]*mir.Func

	dataTypes map[string][]string // declared data type name -> type parameters
	declType  types.TypeID        // opaque FuncDecl handle type
	errors    int
	lambdas   int
	scratch   int    // nesting of inScratch
	span      uint64 // innermost open trace span
}

// New creates a compiler whose IR module is called name. The tracer is taken
// from ctx.
func New(ctx context.Context, name string, in *types.Interner, opts Options) *Compiler {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.MaxInstantiationDepth <= 0 {
		opts.MaxInstantiationDepth = DefaultMaxInstantiationDepth
	}
	root := NewModule(name)
	c := &Compiler{
		base:      ctx,
		tracer:    trace.FromContext(ctx),
		types:     in,
		reporter:  opts.Reporter,
		opts:      opts,
		ctx:       newContext(),
		view:      NewView(root),
		units:     []*Module{root},
		mod:       mir.NewModule(name),
		b:         mir.NewBuilder(in),
		passes:    mir.NewPassManager(opts.OptLevel),
		insts:     mono.NewInstantiationMap(),
		vm:        vm.New(in, opts.VM),
		hookFns:   make(map[*FuncDecl]*mir.Func),
		dataTypes: map[string][]string{"FuncDecl": nil},
		declType:  in.Data("FuncDecl", nil),
	}
	c.ctx.comptime = opts.Comptime
	c.span = trace.CurrentSpan(ctx)
	c.installNatives()
	return c
}

// Types returns the interner shared with the caller.
func (c *Compiler) Types() *types.Interner { return c.types }

// Module returns the IR produced so far.
func (c *Compiler) Module() *mir.Module { return c.mod }

// Instantiations returns every generic specialization with its use sites.
func (c *Compiler) Instantiations() *mono.InstantiationMap { return c.insts }

// Context exposes the compilation context for inspection.
func (c *Compiler) Context() *Context { return c.ctx }

// View is the active declaration lookup view.
func (c *Compiler) View() *View { return c.view }

// VM is the compile-time execution host.
func (c *Compiler) VM() *vm.VM { return c.vm }

// ErrorCount is the number of errors reported so far.
func (c *Compiler) ErrorCount() int { return c.errors }

// CurrentFunction returns the function being compiled. It panics when no
// compilation is in progress.
func (c *Compiler) CurrentFunction() *FuncDecl {
	st := c.ctx.callStack
	if len(st) == 0 {
		panic("compiler: CurrentFunction called outside any function compilation")
	}
	return st[len(st)-1]
}

// CompileFile registers every type, function and ext method of file in a
// fresh unit and compiles each non-generic function of it. Failures are reported as
// they happen; the returned error joins them.
func (c *Compiler) CompileFile(file *ast.File) error {
	span := trace.Begin(c.tracer, trace.ScopeModule, "compile_file", c.span).WithExtra("path", file.Path)
	parent := c.span
	c.span = span.ID()
	defer func() { c.span = parent }()

	// Each file becomes the home unit; earlier files stay visible.
	unit := NewModule(file.Path)
	c.units = append(c.units, unit)
	c.view = c.view.With(unit)

	var errs []error
	for _, item := range file.Items {
		if item.Kind == ast.ItemType {
			c.declareDataType(item.Type)
		}
	}
	for _, item := range file.Items {
		switch item.Kind {
		case ast.ItemFn:
			if _, err := c.RegisterDeclaration(item.Fn); err != nil {
				errs = append(errs, err)
			}
		case ast.ItemExt:
			errs = append(errs, c.registerExt(item.Ext)...)
		}
	}
	for _, fd := range unit.Decls() {
		if fd.IsGeneric() || fd.Err != nil {
			continue
		}
		if _, err := c.Compile(fd); err != nil {
			errs = append(errs, err)
		}
	}
	span.WithExtra("functions", fmt.Sprint(len(unit.Decls()))).End(fmt.Sprintf("errors=%d", len(errs)))
	return errors.Join(errs...)
}

func (c *Compiler) declareDataType(td *ast.TypeDecl) {
	c.dataTypes[td.Name] = td.Params
}

// registerExt registers the methods of an ext block with the block's target
// as the active receiver object.
func (c *Compiler) registerExt(ext *ast.ExtBlock) []error {
	obj, err := c.translate(ext.Target)
	if err != nil {
		return []error{err}
	}
	cx := c.ctx
	savedObj, savedExpr, savedBind := cx.obj, cx.objExpr, cx.objBindings
	cx.obj, cx.objExpr, cx.objBindings = obj, ext.Target, c.objectBindings(obj)
	defer func() { cx.obj, cx.objExpr, cx.objBindings = savedObj, savedExpr, savedBind }()

	var errs []error
	for _, fn := range ext.Fns {
		if _, err := c.RegisterDeclaration(fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
