package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a liveness event every interval while a long external
// step runs. A trace that keeps beating with no SpanEnd usually means opt
// is stuck on a pass.
type Heartbeat struct {
	tracer   Tracer
	label    string
	interval time.Duration
	started  time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not positive.
// label names what is being waited on and prefixes every event detail.
func StartHeartbeat(tracer Tracer, interval time.Duration, label string) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		label:    label,
		interval: interval,
		started:  time.Now(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for beat := 1; ; beat++ {
		select {
		case now := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    getGoroutineID(),
				Name:   "heartbeat",
				Detail: h.detail(beat, now),
			})
		case <-h.stop:
			return
		}
	}
}

func (h *Heartbeat) detail(beat int, now time.Time) string {
	elapsed := now.Sub(h.started).Round(time.Millisecond)
	if h.label == "" {
		return fmt.Sprintf("#%d after %s", beat, elapsed)
	}
	return fmt.Sprintf("%s #%d after %s", h.label, beat, elapsed)
}

// Stop is idempotent and safe on nil.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
