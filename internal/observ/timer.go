// Package observ records wall-clock timings of compilation phases.
package observ

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase is one timed region. Depth counts the phases still open when it
// began, so a function compiled while instantiating another sits one level
// deeper.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	Depth int
	ended bool
}

// Timer collects phases in the order they were opened. It is safe for
// concurrent use, but Depth is only meaningful for strictly nested use from
// one goroutine.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	open   int
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin opens a phase and returns the handle End expects.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now(), Depth: t.open})
	t.open++
	return len(t.phases) - 1
}

// End closes the phase idx with note. Unknown or already closed handles are
// ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].ended {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
	p.ended = true
	t.open--
}

func (t *Timer) Summary() string { return t.Report().String() }

type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
	Depth      int     `json:"depth,omitempty"`
}

// Report is a snapshot of a timer. TotalMS sums only the outermost phases
// so nested time is not counted twice.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	r := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		if p.Depth == 0 {
			total += p.Dur
		}
		r.Phases[i] = PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note, Depth: p.Depth}
	}
	r.TotalMS = millis(total)
	return r
}

// Slowest returns up to n phases by descending duration; ties keep their
// original order. n < 0 returns all of them.
func (r Report) Slowest(n int) []PhaseReport {
	out := append([]PhaseReport(nil), r.Phases...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DurationMS > out[j].DurationMS })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// String lays the phases out as an indented table ending in the total.
func (r Report) String() string {
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Phases {
		name := strings.Repeat("  ", p.Depth) + p.Name
		fmt.Fprintf(&sb, "  %-24s %8.2f ms", name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-24s %8.2f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
