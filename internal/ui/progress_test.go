package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"kiln/internal/buildpipeline"
)

func TestProgressModelTracksFiles(t *testing.T) {
	m := NewProgressModel("build", []string{"a.kn", "b.kn"}, nil).(*progressModel)

	m.apply(buildpipeline.Event{File: "a.kn", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusWorking})
	if got := m.rows[0].label(); got != "compiling" {
		t.Fatalf("label = %q", got)
	}
	m.apply(buildpipeline.Event{File: "a.kn", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusDone, Elapsed: 3 * time.Millisecond})
	m.apply(buildpipeline.Event{File: "b.kn", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusError, Err: errors.New("2 errors")})
	m.apply(buildpipeline.Event{File: "other.kn", Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusDone})

	if got := m.percent(); got < 0.94 || got > 0.96 {
		t.Fatalf("percent = %v", got)
	}
	view := m.View()
	for _, want := range []string{"build  2/2", "a.kn", "b.kn", "done", "error", "2 errors", "3ms"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view misses %q:\n%s", want, view)
		}
	}

	m.apply(buildpipeline.Event{File: "a.kn", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})
	if got := m.percent(); got != 1 {
		t.Fatalf("percent after emit = %v", got)
	}
}

func TestTruncateUsesDisplayWidth(t *testing.T) {
	got := truncate("ファイル名.kn", 8)
	if runewidth.StringWidth(got) > 8 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestSummary(t *testing.T) {
	s := Summary(3, 1, 1500*time.Microsecond)
	for _, want := range []string{"3 built", "1 failed", "2ms"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary %q misses %q", s, want)
		}
	}
}
