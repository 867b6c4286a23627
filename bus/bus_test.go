package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, s *Subscriber) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := s.Next(ctx)
	require.NoError(t, err)
	return ev
}

func assertEmpty(t *testing.T, s *Subscriber) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishOnlyReachesRoomMembers(t *testing.T) {
	t.Parallel()

	h := New()
	defer h.Close()

	a := h.NewSubscriber("a")
	b := h.NewSubscriber("b")
	h.Join(OrderRoom(1), a)
	h.Join(OrderRoom(2), b)

	n := h.Publish(OrderRoom(1), EventStatusUpdate, StatusUpdatePayload{OrderID: 1})
	assert.Equal(t, 1, n)

	ev := next(t, a)
	assert.Equal(t, "order_1", ev.Room)
	assert.Equal(t, EventStatusUpdate, ev.Type)
	assert.False(t, ev.At.IsZero())
	assertEmpty(t, b)
}

func TestPublishToEmptyRoom(t *testing.T) {
	t.Parallel()

	h := New()
	defer h.Close()
	assert.Equal(t, 0, h.Publish(RestaurantRoom(9), EventNewOrder, nil))
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	t.Parallel()

	h := New()
	defer h.Close()

	s := h.NewSubscriber("s")
	h.Join(OrderRoom(1), s)
	for i := 0; i < 10; i++ {
		h.Publish(OrderRoom(1), EventLocationUpdate, LocationPayload{Lat: float64(i)})
	}
	for i := 0; i < 10; i++ {
		ev := next(t, s)
		assert.Equal(t, float64(i), ev.Payload.(LocationPayload).Lat)
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	t.Parallel()

	h := New(WithBuffer(3))
	defer h.Close()

	s := h.NewSubscriber("slow")
	h.Join(OrderRoom(1), s)
	for i := 0; i < 5; i++ {
		h.Publish(OrderRoom(1), EventLocationUpdate, LocationPayload{Lat: float64(i)})
	}

	assert.Equal(t, 2, s.Dropped())
	for _, want := range []float64{2, 3, 4} {
		assert.Equal(t, want, next(t, s).Payload.(LocationPayload).Lat)
	}
	assertEmpty(t, s)
}

func TestJoinTwiceDeliversOnce(t *testing.T) {
	t.Parallel()

	h := New()
	defer h.Close()

	s := h.NewSubscriber("s")
	h.Join(OrderRoom(1), s)
	h.Join(OrderRoom(1), s)
	assert.Equal(t, 1, h.Members(OrderRoom(1)))
	assert.Equal(t, 1, h.Publish(OrderRoom(1), EventStatusUpdate, nil))
}

func TestLeaveAndDisconnect(t *testing.T) {
	t.Parallel()

	h := New()
	defer h.Close()

	s := h.NewSubscriber("s")
	h.Join(OrderRoom(1), s)
	h.Join(RestaurantRoom(2), s)
	assert.Equal(t, 2, h.Rooms())

	h.Leave(OrderRoom(1), s)
	assert.Equal(t, 0, h.Members(OrderRoom(1)))
	assert.Equal(t, 1, h.Members(RestaurantRoom(2)))

	h.Publish(RestaurantRoom(2), EventNewOrder, NewOrderPayload{OrderID: 3})
	h.Disconnect(s)
	assert.Equal(t, 0, h.Rooms())

	select {
	case <-s.Done():
	default:
		t.Fatal("expected done channel to be closed")
	}

	// queued before disconnect, still readable
	ev := next(t, s)
	assert.Equal(t, EventNewOrder, ev.Type)

	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, h.Publish(RestaurantRoom(2), EventNewOrder, nil))
}

func TestNextWakesOnPublish(t *testing.T) {
	t.Parallel()

	h := New()
	defer h.Close()

	s := h.NewSubscriber("s")
	h.Join(OrderRoom(1), s)

	got := make(chan Event, 1)
	go func() {
		ev, err := s.Next(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	time.Sleep(10 * time.Millisecond)
	h.Publish(OrderRoom(1), EventStatusUpdate, nil)

	select {
	case ev := <-got:
		assert.Equal(t, EventStatusUpdate, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not woken")
	}
}

type recordingMirror struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *recordingMirror) Forward(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *recordingMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestMirrorReceivesEveryEvent(t *testing.T) {
	t.Parallel()

	m := &recordingMirror{}
	h := New(WithMirror(m))

	h.Publish(OrderRoom(1), EventStatusUpdate, nil)
	h.Publish(RestaurantRoom(1), EventNewOrder, nil)
	h.Close()

	require.Equal(t, 2, m.count())
	assert.Equal(t, EventStatusUpdate, m.events[0].Type)
	assert.Equal(t, EventNewOrder, m.events[1].Type)

	// publishing after close must not panic on the closed mirror queue
	assert.Equal(t, 0, h.Publish(OrderRoom(1), EventStatusUpdate, nil))
}

func TestMirrorErrorDoesNotAffectSubscribers(t *testing.T) {
	t.Parallel()

	m := &recordingMirror{err: errors.New("broker down")}
	h := New(WithMirror(m))
	defer h.Close()

	s := h.NewSubscriber("s")
	h.Join(OrderRoom(1), s)
	assert.Equal(t, 1, h.Publish(OrderRoom(1), EventStatusUpdate, nil))
	assert.Equal(t, EventStatusUpdate, next(t, s).Type)
}

func TestConcurrentPublishers(t *testing.T) {
	t.Parallel()

	h := New(WithBuffer(1000))
	defer h.Close()

	s := h.NewSubscriber("s")
	h.Join(OrderRoom(1), s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Publish(OrderRoom(1), EventLocationUpdate, nil)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 400; i++ {
		next(t, s)
	}
	assert.Equal(t, 0, s.Dropped())
}

func TestRoomNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "order_42", OrderRoom(42))
	assert.Equal(t, "restaurant_7", RestaurantRoom(7))
}
