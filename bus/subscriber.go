package bus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Next once the subscriber has been disconnected
// and its queue drained.
var ErrClosed = errors.New("subscriber closed")

// Subscriber is one connected client. Its queue is bounded: when full, the
// oldest pending event is dropped so the newest always gets through.
type Subscriber struct {
	ID string

	mu      sync.Mutex
	queue   []Event
	limit   int
	closed  bool
	dropped int
	notify  chan struct{}
	done    chan struct{}
}

func newSubscriber(id string, limit int) *Subscriber {
	if limit <= 0 {
		limit = DefaultBuffer
	}
	return &Subscriber{
		ID:     id,
		limit:  limit,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks. It reports false if the subscriber is closed.
func (s *Subscriber) enqueue(ev Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if len(s.queue) >= s.limit {
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.dropped++
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

// Next blocks until an event is available, ctx is done or the subscriber is
// closed. Events queued before Close are still returned.
func (s *Subscriber) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue[0] = Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, ErrClosed
		}

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Done is closed when the subscriber is disconnected.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Dropped counts events discarded because the queue was full.
func (s *Subscriber) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
