package trace

import (
	"fmt"
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory so they can be dumped
// after a module fails.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	written uint64
	level   Level
}

// NewRingTracer creates a ring of the given capacity (4096 when <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit stores ev, overwriting the oldest event once the ring is full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.Retains(ev.Scope) {
		return
	}
	t.mu.Lock()
	t.buf[t.written%uint64(len(t.buf))] = *ev
	t.written++
	t.mu.Unlock()
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := uint64(len(t.buf))
	if t.written <= size {
		return append([]Event(nil), t.buf[:t.written]...)
	}
	start := t.written % size
	out := make([]Event, 0, size)
	out = append(out, t.buf[start:]...)
	return append(out, t.buf[:start]...)
}

// Dropped reports how many events were overwritten.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size := uint64(len(t.buf)); t.written > size {
		return t.written - size
	}
	return 0
}

// Dump writes every stored event to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return t.DumpModule(w, format, "")
}

// DumpModule writes the stored events that belong to module, together with
// the run-wide events around them. An empty module dumps everything. In
// text format the dump starts with a note when older events were dropped.
func (t *RingTracer) DumpModule(w io.Writer, format Format, module string) error {
	if n := t.Dropped(); n > 0 && format != FormatNDJSON {
		if _, err := fmt.Fprintf(w, "(%d earlier events dropped)\n", n); err != nil {
			return err
		}
	}
	events := t.Snapshot()
	for i := range events {
		ev := &events[i]
		if module != "" && ev.Module != "" && ev.Module != module {
			continue
		}
		if _, err := w.Write(FormatEvent(ev, format)); err != nil {
			return err
		}
	}
	return nil
}

// Flush does nothing, events stay in memory.
func (t *RingTracer) Flush() error { return nil }

// Close does nothing.
func (t *RingTracer) Close() error { return nil }

// Level returns the retention level.
func (t *RingTracer) Level() Level { return t.level }

// Enabled reports whether any event is retained.
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
