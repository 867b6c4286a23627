package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"swiftserve/bus"
)

// amqpChannel is the part of *amqp091.Channel the sink uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpConn interface {
	channel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type dialedConn struct{ *amqp091.Connection }

func (c dialedConn) channel() (amqpChannel, error) { return c.Channel() }

func dialAMQP(url string) (amqpConn, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	return dialedConn{conn}, nil
}

// AMQPSink publishes events to a topic exchange using routingKey.
type AMQPSink struct {
	url      string
	exchange string
	log      zerolog.Logger
	dial     func(url string) (amqpConn, error)

	mu   sync.Mutex
	conn amqpConn
	ch   amqpChannel
}

// DialAMQP connects and declares the exchange.
func DialAMQP(url, exchange string, log zerolog.Logger) (*AMQPSink, error) {
	s := &AMQPSink{url: url, exchange: exchange, log: log, dial: dialAMQP}
	if err := s.ensure(); err != nil {
		if s.conn != nil {
			s.conn.Close()
		}
		return nil, err
	}
	return s, nil
}

// ensure redials a closed connection and reopens a closed channel. A
// channel-level exception closes only the channel.
func (s *AMQPSink) ensure() error {
	if s.conn == nil || s.conn.IsClosed() {
		if s.conn != nil {
			s.log.Warn().Str("exchange", s.exchange).Msg("amqp connection lost, reconnecting")
		}
		conn, err := s.dial(s.url)
		if err != nil {
			return fmt.Errorf("amqp: dial: %w", err)
		}
		s.conn, s.ch = conn, nil
	}

	if s.ch == nil || s.ch.IsClosed() {
		if s.ch != nil {
			s.log.Warn().Str("exchange", s.exchange).Msg("amqp channel closed, reopening")
		}
		ch, err := s.conn.channel()
		if err != nil {
			return fmt.Errorf("amqp: open channel: %w", err)
		}
		err = ch.ExchangeDeclare(
			s.exchange, // name
			"topic",    // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			ch.Close()
			return fmt.Errorf("amqp: declare exchange %s: %w", s.exchange, err)
		}
		s.ch = ch
	}
	return nil
}

func (s *AMQPSink) Forward(ctx context.Context, ev bus.Event) error {
	pub, err := amqpPublishing(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(); err != nil {
		return err
	}

	key := routingKey(ev)
	if err := s.ch.PublishWithContext(ctx, s.exchange, key, false, false, pub); err != nil {
		return fmt.Errorf("amqp: publish %s: %w", key, err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func amqpPublishing(ev bus.Event) (amqp091.Publishing, error) {
	body, err := encode(ev)
	if err != nil {
		return amqp091.Publishing{}, err
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Transient,
		Timestamp:    ev.At,
		Type:         ev.Type,
		Body:         body,
	}, nil
}
