package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftserve/bus"
	"swiftserve/models"
)

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func statusEvent() bus.Event {
	return bus.Event{
		Room: bus.OrderRoom(12),
		Type: bus.EventStatusUpdate,
		Payload: bus.StatusUpdatePayload{
			OrderID:        12,
			Status:         models.StatusPickedUp,
			PreviousStatus: models.StatusReadyForPickup,
			AgentName:      "kiran",
		},
		At: at,
	}
}

func TestRoutingKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "order.12.status_update", routingKey(statusEvent()))
	assert.Equal(t, "restaurant.3.new_order", routingKey(bus.Event{Room: bus.RestaurantRoom(3), Type: bus.EventNewOrder}))
}

func TestEncode(t *testing.T) {
	t.Parallel()

	body, err := encode(statusEvent())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "order_12", got["room"])
	assert.Equal(t, "status_update", got["type"])
	payload := got["payload"].(map[string]any)
	assert.Equal(t, "Picked Up", payload["status"])
	assert.Equal(t, "kiran", payload["agent_name"])
	assert.NotContains(t, payload, "message")

	_, err = encode(bus.Event{Type: "broken", Payload: make(chan int)})
	assert.Error(t, err)
}

func TestAMQPPublishing(t *testing.T) {
	t.Parallel()

	pub, err := amqpPublishing(statusEvent())
	require.NoError(t, err)
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp091.Transient, pub.DeliveryMode)
	assert.Equal(t, bus.EventStatusUpdate, pub.Type)
	assert.Equal(t, at, pub.Timestamp)
	assert.NotEmpty(t, pub.Body)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_KeysByRoom(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	sink := &KafkaSink{w: w}

	require.NoError(t, sink.Forward(context.Background(), statusEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order_12", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "status_update", string(w.msgs[0].Headers[0].Value))

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_WrapsWriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("leader not available")
	sink := &KafkaSink{w: &fakeWriter{err: boom}}
	err := sink.Forward(context.Background(), statusEvent())
	assert.ErrorIs(t, err, boom)
}

func TestKafkaSink_AsHubMirror(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	hub := bus.New(bus.WithMirror(&KafkaSink{w: w}))
	hub.Publish(bus.RestaurantRoom(3), bus.EventNewOrder, bus.NewOrderPayload{OrderID: 1, Total: 9.5})
	hub.Publish(bus.OrderRoom(1), bus.EventStatusUpdate, nil)
	hub.Close()

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "restaurant_3", string(w.msgs[0].Key))
	assert.Equal(t, "order_1", string(w.msgs[1].Key))
}

func TestNewKafkaSink(t *testing.T) {
	t.Parallel()

	sink := NewKafkaSink([]string{"localhost:9092"}, "order-events")
	w, ok := sink.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "order-events", w.Topic)
	assert.Equal(t, "localhost:9092", w.Addr.String())
}

type fakeChannel struct {
	closed    bool
	exchanges []string
	keys      []string
}

func (c *fakeChannel) ExchangeDeclare(name, _ string, _, _, _, _ bool, _ amqp091.Table) error {
	c.exchanges = append(c.exchanges, name)
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, _ amqp091.Publishing) error {
	if c.closed {
		return amqp091.ErrClosed
	}
	c.keys = append(c.keys, key)
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConn struct {
	closed   bool
	channels []*fakeChannel
}

func (c *fakeConn) channel() (amqpChannel, error) {
	ch := &fakeChannel{}
	c.channels = append(c.channels, ch)
	return ch, nil
}

func (c *fakeConn) IsClosed() bool { return c.closed }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func newFakeAMQPSink() (*AMQPSink, *[]*fakeConn) {
	var conns []*fakeConn
	s := &AMQPSink{
		exchange: "order_events",
		log:      zerolog.Nop(),
		dial: func(string) (amqpConn, error) {
			c := &fakeConn{}
			conns = append(conns, c)
			return c, nil
		},
	}
	return s, &conns
}

func TestAMQPSink_ReopensClosedChannel(t *testing.T) {
	t.Parallel()

	s, conns := newFakeAMQPSink()
	require.NoError(t, s.Forward(context.Background(), statusEvent()))
	require.Len(t, *conns, 1)
	conn := (*conns)[0]
	require.Len(t, conn.channels, 1)

	// channel-level exception: the connection stays up
	conn.channels[0].closed = true

	require.NoError(t, s.Forward(context.Background(), statusEvent()))
	assert.Len(t, *conns, 1, "connection must not be redialed")
	require.Len(t, conn.channels, 2)
	assert.Equal(t, []string{"order_events"}, conn.channels[1].exchanges)
	assert.Equal(t, []string{"order.12.status_update"}, conn.channels[1].keys)
}

func TestAMQPSink_RedialsClosedConnection(t *testing.T) {
	t.Parallel()

	s, conns := newFakeAMQPSink()
	require.NoError(t, s.Forward(context.Background(), statusEvent()))
	(*conns)[0].closed = true

	require.NoError(t, s.Forward(context.Background(), statusEvent()))
	require.Len(t, *conns, 2)
	require.Len(t, (*conns)[1].channels, 1)
	assert.Equal(t, []string{"order.12.status_update"}, (*conns)[1].channels[0].keys)

	require.NoError(t, s.Close())
	assert.True(t, (*conns)[1].closed)
}

func TestAMQPSink_DialError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	s := &AMQPSink{log: zerolog.Nop(), dial: func(string) (amqpConn, error) { return nil, boom }}
	err := s.Forward(context.Background(), statusEvent())
	assert.ErrorIs(t, err, boom)
}
