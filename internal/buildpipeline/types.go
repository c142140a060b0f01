package buildpipeline

import (
	"sync"
	"time"
)

// Stage is a pipeline step, in execution order.
type Stage uint8

const (
	StageLoad    Stage = iota // read sources into the file set
	StageCompile              // parse and compile one file
	StageEmit                 // write textual IR
	StageRun                  // execute the entry function
	numStages
)

var stageNames = [numStages]string{"load", "compile", "emit", "run"}

func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return "unknown"
}

// Stages lists every stage in execution order.
func Stages() []Stage { return []Stage{StageLoad, StageCompile, StageEmit, StageRun} }

// Status is where a file is within its current stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

var statusNames = [...]string{"queued", "working", "done", "error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Event reports a file entering or leaving a stage. Err is set with
// StatusError; Elapsed with the end of a compile.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Build calls OnEvent from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings accumulates wall time per stage. Compile time is the sum over
// files, so with several jobs it can exceed the build's elapsed time. Safe
// for concurrent use.
type Timings struct {
	mu   sync.Mutex
	durs [numStages]time.Duration
	seen [numStages]bool
}

func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil || stage >= numStages {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.durs[stage] += dur
	t.seen[stage] = true
}

// Has reports whether stage was recorded at all.
func (t *Timings) Has(stage Stage) bool {
	if stage >= numStages {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[stage]
}

func (t *Timings) Duration(stage Stage) time.Duration {
	if stage >= numStages {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.durs[stage]
}
