package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last N accepted events in memory.
type RingTracer struct {
	gate
	mu     sync.RWMutex
	events []Event
	next   uint64 // total events stored; next%len(events) is the write slot
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{gate: gate{level}, events: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.accepts(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stored.Seq = NextSeq()
	t.events[t.next%uint64(len(t.events))] = stored
	t.next++
}

// Snapshot returns a copy of the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := uint64(len(t.events))
	if t.next <= n {
		return append([]Event(nil), t.events[:t.next]...)
	}
	head := t.next % n
	out := make([]Event, 0, n)
	out = append(out, t.events[head:]...)
	return append(out, t.events[:head]...)
}

// Find returns the stored events with the given name, oldest first.
func (t *RingTracer) Find(name string) []Event {
	var out []Event
	for _, ev := range t.Snapshot() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
