package pipeline

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sells-group/lead-finder/internal/model"
)

// StopToken is a cooperative stop flag. Setting it is idempotent; the
// pipeline reads it only at the top of the per-place loop.
type StopToken struct {
	stopped atomic.Bool
}

// Stop sets the flag.
func (t *StopToken) Stop() { t.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (t *StopToken) Stopped() bool { return t.stopped.Load() }

// Run is one lead search: its ID, its request, its stop flag, and the
// records it emitted.
type Run struct {
	ID      string
	Request model.SearchRequest

	stop    StopToken
	records []model.LeadRecord
}

// NewRun returns a run for req. An empty id gets a fresh UUID.
func NewRun(id string, req model.SearchRequest) *Run {
	if id == "" {
		id = uuid.New().String()
	}
	return &Run{ID: id, Request: req}
}

// Stop asks the run to start no further places.
func (r *Run) Stop() { r.stop.Stop() }

// Stopped reports whether Stop was called.
func (r *Run) Stopped() bool { return r.stop.Stopped() }

// Records returns the emitted records. Only valid once Execute returned.
func (r *Run) Records() []model.LeadRecord {
	return append([]model.LeadRecord(nil), r.records...)
}
