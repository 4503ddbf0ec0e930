package progress

import "sync"

// Stopper is anything a run can be stopped through.
type Stopper interface {
	Stop()
}

// Registry tracks live runs by search ID so they can be stopped from
// another request. Safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	runs map[string]Stopper
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]Stopper)}
}

// Register adds a run. A later Register with the same ID replaces it.
func (r *Registry) Register(id string, s Stopper) {
	r.mu.Lock()
	r.runs[id] = s
	r.mu.Unlock()
}

// Remove forgets a run.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.runs, id)
	r.mu.Unlock()
}

// Stop signals the run with id and reports whether it was found.
func (r *Registry) Stop(id string) bool {
	r.mu.Lock()
	s, ok := r.runs[id]
	r.mu.Unlock()
	if ok {
		s.Stop()
	}
	return ok
}

// Len returns the number of live runs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
