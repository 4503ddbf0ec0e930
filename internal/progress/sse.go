package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
)

// DoneMarker terminates every event stream.
const DoneMarker = "[DONE]"

// SSEWriter frames events as server-sent events.
type SSEWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSEWriter sets the event-stream headers on w. It fails if w cannot
// flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, eris.New("progress: streaming unsupported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &SSEWriter{w: w, f: f}, nil
}

// Write sends one event frame.
func (s *SSEWriter) Write(ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "progress: marshal event")
	}
	return s.frame(string(data))
}

// Done sends the end-of-stream marker.
func (s *SSEWriter) Done() error {
	return s.frame(DoneMarker)
}

func (s *SSEWriter) frame(payload string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return eris.Wrap(err, "progress: write frame")
	}
	s.f.Flush()
	return nil
}

// Pump copies events to the client until the channel closes, then writes
// the end-of-stream marker. It returns early with ctx's error when the
// client goes away.
func (s *SSEWriter) Pump(ctx context.Context, events <-chan model.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return s.Done()
			}
			if err := s.Write(ev); err != nil {
				return err
			}
		}
	}
}
