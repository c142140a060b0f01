package driver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kiln/internal/backend/llvm"
	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/observ"
	"kiln/internal/parser"
	"kiln/internal/source"
	"kiln/internal/trace"
	"kiln/internal/types"
	"kiln/internal/vm"
)

// Options configures one file compilation.
type Options struct {
	OptLevel              int
	MaxInstantiationDepth int
	Comptime              bool
	MaxDiagnostics        int
	// EmitIR renders the textual LLVM module of a clean compilation.
	EmitIR bool
	// Cache, when set, serves and stores results keyed by content and
	// options. Results served from the cache carry no Compiler.
	Cache *DiskCache
	// FunctionTimings records one phase per compiled function.
	FunctionTimings bool
	// Out receives the output of compile-time print natives.
	Out io.Writer
}

// Result is the outcome of compiling one file.
type Result struct {
	Path           string
	FileID         source.FileID
	Bag            *diag.Bag
	Compiler       *compiler.Compiler
	IR             string
	Functions      int
	Instantiations int
	Cached         bool
	Timing         observ.Report
	FuncTiming     observ.Report
}

// Broken reports whether the file produced errors.
func (r *Result) Broken() bool { return r.Bag.HasErrors() }

// LoadAndCompile reads path into fs and compiles it.
func LoadAndCompile(ctx context.Context, fs *source.FileSet, path string, opts Options) (*Result, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return CompileFile(ctx, fs.Get(id), opts)
}

// CompileFile parses and compiles one loaded file. Diagnostics land in the
// result's bag; the error is reserved for infrastructure failures such as
// cache I/O.
func CompileFile(ctx context.Context, file *source.File, opts Options) (*Result, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "driver.compile", trace.CurrentSpan(ctx)).
		WithExtra("path", file.Path)
	ctx = trace.WithSpan(ctx, span)

	res := &Result{
		Path:   file.Path,
		FileID: file.ID,
		Bag:    diag.NewBag(opts.MaxDiagnostics),
	}
	timer := observ.NewTimer()

	key := KeyFor(file, opts)
	if opts.Cache != nil {
		payload, ok, err := opts.Cache.Get(key)
		if err != nil {
			trace.Point(tracer, trace.ScopePass, "cache.corrupt", err.Error(), span.ID())
		} else if ok {
			decodeDiagnostics(payload.Diagnostics, file.ID, res.Bag)
			res.IR = payload.IR
			res.Functions = payload.Functions
			res.Instantiations = payload.Instantiations
			res.Cached = true
			span.End("cached")
			return res, nil
		}
	}

	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	idx := timer.Begin("parse")
	astFile := parser.ParseFile(file, parser.Options{Reporter: reporter})
	timer.End(idx, fmt.Sprintf("%d items", len(astFile.Items)))

	if !res.Bag.HasErrors() {
		var fnTimer *observ.Timer
		if opts.FunctionTimings {
			fnTimer = observ.NewTimer()
		}
		c := compiler.New(ctx, file.Stem(), types.NewInterner(), compiler.Options{
			Reporter:              reporter,
			OptLevel:              opts.OptLevel,
			MaxInstantiationDepth: opts.MaxInstantiationDepth,
			Comptime:              opts.Comptime,
			VM:                    vm.Options{Out: opts.Out},
			Timings:               fnTimer,
		})
		res.Compiler = c

		idx = timer.Begin("compile")
		cerr := c.CompileFile(astFile)
		res.Functions = len(c.Module().Funcs)
		res.Instantiations = c.Instantiations().Len()
		timer.End(idx, fmt.Sprintf("%d functions", res.Functions))
		if fnTimer != nil {
			res.FuncTiming = fnTimer.Report()
		}

		if cerr == nil && !res.Bag.HasErrors() && opts.EmitIR {
			idx = timer.Begin("emit")
			ir, err := llvm.EmitModule(c.Module(), c.Types())
			timer.End(idx, "")
			if err != nil {
				span.End("error")
				return nil, fmt.Errorf("%s: emit: %w", file.Path, err)
			}
			res.IR = ir
		}
	}
	res.Bag.Sort()
	res.Timing = timer.Report()

	if opts.Cache != nil {
		payload := &Payload{
			Path:           file.Path,
			Broken:         res.Broken(),
			IR:             res.IR,
			Functions:      res.Functions,
			Instantiations: res.Instantiations,
			Diagnostics:    encodeDiagnostics(res.Bag.Items()),
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			span.End("error")
			return res, fmt.Errorf("%s: cache: %w", file.Path, err)
		}
	}
	span.WithExtra("errors", fmt.Sprint(res.Bag.ErrorCount())).End("")
	return res, nil
}

// ErrNoCompiler is returned by Run for results that were not compiled in
// this process.
var ErrNoCompiler = errors.New("result has no live compiler")

// Run resolves entry with no arguments in res and executes it on the
// compile-time VM. A non-nil out replaces the destination of print natives.
func Run(ctx context.Context, res *Result, entry string, out io.Writer) (vm.Value, error) {
	if res.Compiler == nil {
		return vm.Value{}, ErrNoCompiler
	}
	if res.Broken() {
		return vm.Value{}, fmt.Errorf("%s: cannot run a file with errors", res.Path)
	}
	c := res.Compiler
	if out != nil {
		c.VM().Out = out
	}
	v, err := c.ResolveAndCompile(entry, nil, source.Span{File: res.FileID})
	if err != nil {
		return vm.Value{}, err
	}
	f := v.Func()
	if f == nil {
		return vm.Value{}, fmt.Errorf("%s: `%s` has no executable body", res.Path, entry)
	}
	return c.VM().Call(ctx, f, nil)
}
