// Package bus is the in-process, room-scoped publish/subscribe hub that
// carries order lifecycle and location events to connected clients.
//
// The hub performs no authorization: callers check access before Join.
// Delivery is best effort and at most once; nothing is persisted or replayed.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBuffer = 32
	mirrorBuffer  = 256
	mirrorTimeout = 5 * time.Second
)

// Mirror receives a copy of every published event, e.g. to relay it to an
// external broker. Forward is called from a single goroutine in publish order.
type Mirror interface {
	Forward(ctx context.Context, ev Event) error
}

type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*Subscriber]struct{}
	joined  map[*Subscriber]map[string]struct{}
	buffer  int
	closed  bool
	log     zerolog.Logger
	mirror  Mirror
	mirrorQ chan Event
	wg      sync.WaitGroup
	now     func() time.Time
}

type Option func(*Hub)

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

func WithMirror(m Mirror) Option {
	return func(h *Hub) { h.mirror = m }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		rooms:  make(map[string]map[*Subscriber]struct{}),
		joined: make(map[*Subscriber]map[string]struct{}),
		buffer: DefaultBuffer,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.mirror != nil {
		h.mirrorQ = make(chan Event, mirrorBuffer)
		h.wg.Add(1)
		go h.runMirror()
	}
	return h
}

// NewSubscriber creates a handle for one client connection.
func (h *Hub) NewSubscriber(id string) *Subscriber {
	return newSubscriber(id, h.buffer)
}

// Join adds s to room. Joining twice is a no-op.
func (h *Hub) Join(room string, s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}

	rooms, ok := h.joined[s]
	if !ok {
		rooms = make(map[string]struct{})
		h.joined[s] = rooms
	}
	rooms[room] = struct{}{}

	h.log.Debug().Str("room", room).Str("subscriber", s.ID).Msg("joined room")
}

// Leave removes s from room.
func (h *Hub) Leave(room string, s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, s)
}

func (h *Hub) leaveLocked(room string, s *Subscriber) {
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.joined[s]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.joined, s)
		}
	}
}

// Disconnect removes s from every room and closes it.
func (h *Hub) Disconnect(s *Subscriber) {
	h.mu.Lock()
	for room := range h.joined[s] {
		h.leaveLocked(room, s)
	}
	h.mu.Unlock()

	s.close()
	h.log.Debug().Str("subscriber", s.ID).Msg("subscriber disconnected")
}

// Publish delivers an event to every current member of room and returns how
// many received it. It never blocks on slow subscribers.
func (h *Hub) Publish(room, eventType string, payload any) int {
	ev := Event{Room: room, Type: eventType, Payload: payload, At: h.now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.rooms[room] {
		if s.enqueue(ev) {
			delivered++
		}
	}

	if h.mirrorQ != nil && !h.closed {
		select {
		case h.mirrorQ <- ev:
		default:
			h.log.Warn().Str("room", room).Str("type", eventType).Msg("event mirror queue full, dropping")
		}
	}

	h.log.Debug().Str("room", room).Str("type", eventType).Int("delivered", delivered).Msg("event published")
	return delivered
}

// Members returns the number of subscribers currently in room.
func (h *Hub) Members(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// Rooms returns how many rooms have at least one member.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close disconnects every subscriber and waits for the mirror to drain.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.joined))
	for s := range h.joined {
		subs = append(subs, s)
	}
	h.rooms = make(map[string]map[*Subscriber]struct{})
	h.joined = make(map[*Subscriber]map[string]struct{})
	if h.mirrorQ != nil {
		close(h.mirrorQ)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
	h.wg.Wait()
}

func (h *Hub) runMirror() {
	defer h.wg.Done()
	for ev := range h.mirrorQ {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		if err := h.mirror.Forward(ctx, ev); err != nil {
			h.log.Error().Err(err).Str("room", ev.Room).Str("type", ev.Type).Msg("failed to mirror event")
		}
		cancel()
	}
}
