package observ

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTimerReportKeepsOrder(t *testing.T) {
	tm := NewTimer()
	outer := tm.Begin("compile")
	inner := tm.Begin("f_i32")
	tm.End(inner, "")
	tm.End(outer, "2 functions")
	tm.End(99, "ignored")

	r := tm.Report()
	var names []string
	for _, p := range r.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"compile", "f_i32"}, names); diff != "" {
		t.Fatalf("phases (-want +got):\n%s", diff)
	}
	if r.Phases[1].Depth != 1 || r.Phases[0].Depth != 0 {
		t.Fatalf("depths = %d, %d", r.Phases[0].Depth, r.Phases[1].Depth)
	}
	if r.TotalMS != r.Phases[0].DurationMS {
		t.Fatalf("total %v counts nested time (outer %v)", r.TotalMS, r.Phases[0].DurationMS)
	}
	if s := tm.Summary(); !strings.Contains(s, "// 2 functions") || !strings.Contains(s, "    f_i32") || !strings.Contains(s, "total") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestEndTwiceKeepsDepth(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("a")
	tm.End(a, "first")
	tm.End(a, "second")
	b := tm.Begin("b")
	tm.End(b, "")
	r := tm.Report()
	if r.Phases[0].Note != "first" || r.Phases[1].Depth != 0 {
		t.Fatalf("report = %+v", r.Phases)
	}
}

func TestReportSlowest(t *testing.T) {
	r := Report{Phases: []PhaseReport{{Name: "a", DurationMS: 1}, {Name: "b", DurationMS: 5}, {Name: "c", DurationMS: 5}, {Name: "d", DurationMS: 2}}}
	var got []string
	for _, p := range r.Slowest(3) {
		got = append(got, p.Name)
	}
	if diff := cmp.Diff([]string{"b", "c", "d"}, got); diff != "" {
		t.Fatalf("slowest (-want +got):\n%s", diff)
	}
	if r.Phases[0].Name != "a" {
		t.Fatalf("Slowest reordered the report")
	}
}

func TestTimerConcurrentUse(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("unit"), "")
		}()
	}
	wg.Wait()
	if n := len(tm.Report().Phases); n != 8 {
		t.Fatalf("phases = %d", n)
	}
}
