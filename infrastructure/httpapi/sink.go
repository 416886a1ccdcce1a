package httpapi

import (
	"sync"

	"github.com/demetriomjr/real-state-crm/errors"
)

// streamSink adapts one SSE connection to the hub's sink contract. Write
// never blocks: frames go into a bounded channel the connection goroutine
// drains, and a full channel is reported as a write failure so the hub can
// evict the slow consumer instead of stalling the fan-out.
type streamSink struct {
	mu     sync.Mutex
	closed bool
	frames chan []byte
}

func newStreamSink(buffer int) *streamSink {
	return &streamSink{frames: make(chan []byte, buffer)}
}

func (s *streamSink) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrSinkClosed
	}
	select {
	case s.frames <- frame:
		return nil
	default:
		return errors.ErrSinkOverflow
	}
}

// Close is idempotent; closing the channel is what unblocks the connection
// goroutine and ends the HTTP response.
func (s *streamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}
