package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelScopeGating(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	sp := Begin(tr, ScopeNode, "compile_fn", 0).WithExtra("mangled", "f_i32")
	sp.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 events, got %d:\n%s", len(lines), buf.String())
	}
	var end struct {
		Kind   string            `json:"kind"`
		Name   string            `json:"name"`
		Detail string            `json:"detail"`
		Extra  map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if end.Kind != "end" || end.Name != "compile_fn" || end.Detail != "ok" || end.Extra["mangled"] != "f_i32" {
		t.Fatalf("unexpected end event: %+v", end)
	}
}

func TestRingWrapsInOrder(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeNode, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d", len(snap))
	}
	got := snap[0].Name + snap[1].Name + snap[2].Name
	if got != "cde" {
		t.Fatalf("order = %q, want cde", got)
	}
}

func TestBeginDisabledIsInert(t *testing.T) {
	sp := Begin(Nop, ScopeDriver, "x", 0)
	if sp.ID() != 0 {
		t.Fatalf("nop span must have zero id")
	}
	if d := sp.WithExtra("k", "v").End(""); d != 0 {
		t.Fatalf("nop span must not measure time")
	}
	tr := NewStreamTracer(&bytes.Buffer{}, LevelPhase, FormatText)
	if Begin(tr, ScopeNode, "node", 0).ID() != 0 {
		t.Fatalf("node scope must be filtered at phase level")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("expected Nop without a tracer")
	}
	r := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	if FromContext(ctx) != Tracer(r) {
		t.Fatal("tracer not propagated")
	}
	sp := Begin(r, ScopePass, "p", 0)
	ctx = WithSpan(ctx, sp)
	if CurrentSpan(ctx) != sp.ID() {
		t.Fatal("span id not propagated")
	}
}

func TestMultiTracerFanOut(t *testing.T) {
	a := NewRingTracer(4, LevelDebug)
	b := NewRingTracer(4, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	Point(m, ScopeNode, "x", "", 0)
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatal("expected both tracers to receive the event")
	}
	if m.Ring() != a {
		t.Fatal("Ring() should return the first ring tracer")
	}
}

func TestParseLevelNamesAndNumbers(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, " Phase ": LevelPhase, "0": LevelOff, "3": LevelDetail} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("5"); err == nil {
		t.Fatal("out of range level accepted")
	}
}

func TestEndCarriesDurationAndExtras(t *testing.T) {
	r := NewRingTracer(8, LevelDebug)
	sp := Begin(r, ScopeNode, "instantiate", 0).WithExtra("generic", "id")
	sp.End("")
	sp.WithExtra("late", "x")

	ends := r.Find("instantiate")
	if len(ends) != 2 || ends[1].Kind != KindSpanEnd {
		t.Fatalf("events = %+v", ends)
	}
	if ends[1].Extra["generic"] != "id" || ends[1].Extra["late"] != "" {
		t.Fatalf("extras not snapshotted at End: %v", ends[1].Extra)
	}
	if ends[1].Seq <= ends[0].Seq {
		t.Fatalf("sequence not increasing")
	}
}

func TestNewPicksStorage(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := tr.(*MultiTracer)
	if !ok || m.Ring() == nil {
		t.Fatalf("ModeBoth gave %T", tr)
	}
	Point(tr, ScopePass, "parse", "3 items", 0)
	Point(tr, ScopeNode, "hidden", "", 0)
	if !strings.Contains(buf.String(), "parse (3 items)") || strings.Contains(buf.String(), "hidden") {
		t.Fatalf("stream output = %q", buf.String())
	}
	if len(m.Ring().Snapshot()) != 1 {
		t.Fatalf("ring did not receive the event")
	}
	if off, _ := New(Config{Level: LevelOff}); off != Nop {
		t.Fatalf("LevelOff must give Nop")
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatalf("invalid mode accepted")
	}
}
