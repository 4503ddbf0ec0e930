package progress

import (
	"sync"

	"github.com/sells-group/lead-finder/internal/model"
)

// Stream is a channel-backed Sink consumed by one reader. Once the reader
// detaches, further events are dropped so the producer never stalls.
type Stream struct {
	ch       chan model.Event
	done     chan struct{}
	closeOne sync.Once
	stopOne  sync.Once
}

// NewStream returns a stream buffering up to buf events.
func NewStream(buf int) *Stream {
	return &Stream{
		ch:   make(chan model.Event, buf),
		done: make(chan struct{}),
	}
}

// Emit implements Sink. It blocks while the buffer is full and the reader is
// still attached.
func (s *Stream) Emit(ev model.Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- ev:
	case <-s.done:
	}
}

// Events is the read side. It is closed by Close.
func (s *Stream) Events() <-chan model.Event { return s.ch }

// Close ends the stream. Only the producer may call it, after its final Emit.
func (s *Stream) Close() {
	s.closeOne.Do(func() { close(s.ch) })
}

// Detach tells the producer that nobody is reading any more.
func (s *Stream) Detach() {
	s.stopOne.Do(func() { close(s.done) })
}
