package trace

import (
	"io"
	"strings"
	"sync"
)

// RingTracer keeps the last N events of an analysis in memory. When a
// command fails the CLI reads it back to say which stage and which
// function diff were still open, then dumps the tail.
type RingTracer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
	level    Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}

	return &RingTracer{
		events:   make([]Event, capacity),
		capacity: capacity,
		level:    level,
	}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events[t.head] = *ev
	t.head = (t.head + 1) % t.capacity

	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns a copy of all stored events in chronological order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.full {
		result := make([]Event, t.head)
		copy(result, t.events[:t.head])
		return result
	}

	// head..capacity is older than 0..head
	result := make([]Event, t.capacity)
	copy(result, t.events[t.head:])
	copy(result[t.capacity-t.head:], t.events[:t.head])
	return result
}

// Tail returns at most the last n events, oldest first.
func (t *RingTracer) Tail(n int) []Event {
	events := t.Snapshot()
	if n >= 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events
}

// OpenSpans returns the names of spans that began and have not ended,
// outermost first, e.g. ["cmd:analyze" "analyze" "diff" "fn:main"].
// Spans whose begin was already overwritten are not reported.
func (t *RingTracer) OpenSpans() []string {
	events := t.Snapshot()
	open := make(map[uint64]int, 8)
	order := make([]uint64, 0, 8)
	names := make(map[uint64]string, 8)
	for i := range events {
		ev := &events[i]
		switch ev.Kind {
		case KindSpanBegin:
			open[ev.SpanID] = len(order)
			order = append(order, ev.SpanID)
			names[ev.SpanID] = ev.Name
		case KindSpanEnd:
			delete(open, ev.SpanID)
		}
	}
	result := make([]string, 0, len(open))
	for _, id := range order {
		if _, ok := open[id]; ok {
			result = append(result, names[id])
		}
	}
	return result
}

// FailedFunctions lists the functions whose diff span ended with an error,
// in the order they failed.
func (t *RingTracer) FailedFunctions() []string {
	events := t.Snapshot()
	var result []string
	for i := range events {
		ev := &events[i]
		if ev.Kind != KindSpanEnd || ev.Scope != ScopeFunction {
			continue
		}
		if _, failed := ev.Extra["error"]; !failed {
			continue
		}
		result = append(result, strings.TrimPrefix(ev.Name, "fn:"))
	}
	return result
}

// Dump writes all events to the provided writer in the specified format.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return writeEvents(w, t.Snapshot(), format)
}

func writeEvents(w io.Writer, events []Event, format Format) error {
	for i := range events {
		data := FormatEvent(&events[i], format)
		if _, err := w.Write(data); err != nil {
			return err
		}
	}

	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
