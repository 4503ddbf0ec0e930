// Package progress carries pipeline events to observers: live SSE streams,
// the audit log, and the CLI.
package progress

import (
	"sync"

	"github.com/sells-group/lead-finder/internal/model"
)

// Sink receives pipeline events in emission order. Emit must not block the
// pipeline indefinitely.
type Sink interface {
	Emit(ev model.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(model.Event)

// Emit implements Sink.
func (f SinkFunc) Emit(ev model.Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(model.Event) {})

type fanout []Sink

// Fanout returns a Sink that forwards each event to every non-nil sink in
// order.
func Fanout(sinks ...Sink) Sink {
	var out fanout
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Emit(ev model.Event) {
	for _, s := range f {
		s.Emit(ev)
	}
}

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

// Emit implements Sink.
func (r *Recorder) Emit(ev model.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

// Count returns how many recorded events have type t.
func (r *Recorder) Count(t model.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
