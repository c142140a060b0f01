// Package buildpipeline compiles a set of independent source files in
// parallel and writes their outputs.
package buildpipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"kiln/internal/driver"
	"kiln/internal/source"
	"kiln/internal/trace"
)

// Request configures one build.
type Request struct {
	Files   []string
	BaseDir string // display names are relative to it
	Jobs    int    // <= 0 means GOMAXPROCS
	Options driver.Options
	// OutputDir, when set, receives one <name>.ll per clean file.
	OutputDir string
	Progress  ProgressSink
}

// Unit is the outcome for one file.
type Unit struct {
	*driver.Result
	Name    string // display name
	Output  string // compile-time print output
	Elapsed time.Duration
	IRPath  string
}

// Result is the outcome of a build, with units in request order.
type Result struct {
	Files   *source.FileSet
	Units   []*Unit
	Timings *Timings
}

// Broken counts the units that reported errors.
func (r *Result) Broken() int {
	n := 0
	for _, u := range r.Units {
		if u.Result != nil && u.Broken() {
			n++
		}
	}
	return n
}

// Build loads every file, compiles them in parallel with one compiler per
// file, then writes IR outputs. Diagnostics do not make Build fail; the
// error is reserved for I/O and cancellation.
func Build(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || len(req.Files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build", trace.CurrentSpan(ctx)).
		WithExtra("files", fmt.Sprint(len(req.Files)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	names := DisplayNames(req.Files, req.BaseDir)
	res := &Result{Files: source.NewFileSet(), Timings: &Timings{}}
	emitQueued(req.Progress, names)

	// The file set is filled before the fan-out; workers only read it.
	loadStart := time.Now()
	ids := make([]source.FileID, len(req.Files))
	for i, path := range req.Files {
		id, err := res.Files.Load(path)
		if err != nil {
			emit(req.Progress, Event{File: names[i], Stage: StageLoad, Status: StatusError, Err: err})
			return nil, err
		}
		ids[i] = id
	}
	res.Timings.Add(StageLoad, time.Since(loadStart))

	res.Units = make([]*Unit, len(req.Files))
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range req.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, err := compileUnit(gctx, res.Files.Get(ids[i]), names[i], req)
			if err != nil {
				return err
			}
			res.Units[i] = unit
			res.Timings.Add(StageCompile, unit.Elapsed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	if out := req.Options.Out; out != nil {
		for _, u := range res.Units {
			if _, err := io.WriteString(out, u.Output); err != nil {
				return res, err
			}
		}
	}
	if req.OutputDir != "" {
		if err := writeOutputs(res, req); err != nil {
			return res, err
		}
	}
	span.WithExtra("broken", fmt.Sprint(res.Broken()))
	return res, nil
}

func compileUnit(ctx context.Context, file *source.File, name string, req *Request) (*Unit, error) {
	emit(req.Progress, Event{File: name, Stage: StageCompile, Status: StatusWorking})
	opts := req.Options
	var out bytes.Buffer
	if opts.Out != nil {
		opts.Out = &out
	}
	start := time.Now()
	r, err := driver.CompileFile(ctx, file, opts)
	elapsed := time.Since(start)
	if err != nil {
		emit(req.Progress, Event{File: name, Stage: StageCompile, Status: StatusError, Err: err, Elapsed: elapsed})
		return nil, err
	}
	unit := &Unit{Result: r, Name: name, Output: out.String(), Elapsed: elapsed}
	if r.Broken() {
		emit(req.Progress, Event{
			File: name, Stage: StageCompile, Status: StatusError, Elapsed: elapsed,
			Err: fmt.Errorf("%d errors", r.Bag.ErrorCount()),
		})
	} else {
		emit(req.Progress, Event{File: name, Stage: StageCompile, Status: StatusDone, Elapsed: elapsed})
	}
	return unit, nil
}

func writeOutputs(res *Result, req *Request) error {
	if err := os.MkdirAll(req.OutputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	start := time.Now()
	for _, u := range res.Units {
		if u.Broken() || u.IR == "" {
			continue
		}
		emit(req.Progress, Event{File: u.Name, Stage: StageEmit, Status: StatusWorking})
		path := filepath.Join(req.OutputDir, res.Files.Get(u.FileID).Stem()+".ll")
		if err := os.WriteFile(path, []byte(u.IR), 0o600); err != nil {
			err = fmt.Errorf("failed to write %q: %w", path, err)
			emit(req.Progress, Event{File: u.Name, Stage: StageEmit, Status: StatusError, Err: err})
			return err
		}
		u.IRPath = path
		emit(req.Progress, Event{File: u.Name, Stage: StageEmit, Status: StatusDone})
	}
	res.Timings.Add(StageEmit, time.Since(start))
	return nil
}
