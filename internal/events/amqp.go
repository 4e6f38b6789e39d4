package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"equiprent/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	defaultQueueSize      = 1024
	defaultDialTimeout    = 5 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultMinBackoff     = 250 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	maxPublishAttempts    = 5
)

// amqpSession is one connection and channel pair.
type amqpSession interface {
	publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
	healthy() bool
	close()
}

type channelSession struct {
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
}

func (s *channelSession) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	return s.ch.PublishWithContext(ctx, s.exchange, routingKey, false, false, msg)
}

// healthy is false once either the connection or the channel is gone; a
// channel-level exception closes the channel and leaves the connection open.
func (s *channelSession) healthy() bool {
	return !s.conn.IsClosed() && !s.ch.IsClosed()
}

func (s *channelSession) close() {
	_ = s.ch.Close()
	_ = s.conn.Close()
}

// AMQPForwarder republishes bus events to a RabbitMQ topic exchange using the
// event type as routing key. Handle only enqueues; a single goroutine
// publishes, reconnecting with backoff. Events are dropped when the queue is
// full or after repeated publish failures.
type AMQPForwarder struct {
	queue   chan *Event
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	dial           func() (amqpSession, error)
	session        amqpSession
	publishTimeout time.Duration
	minBackoff     time.Duration
	maxBackoff     time.Duration
	logger         zerolog.Logger
}

// NewAMQPForwarder dials the broker once so a bad URL fails at startup.
func NewAMQPForwarder(url, exchange string, logger zerolog.Logger) (*AMQPForwarder, error) {
	dial := func() (amqpSession, error) { return dialSession(url, exchange) }
	return newForwarder(dial, defaultQueueSize, defaultMinBackoff, logger)
}

func newForwarder(dial func() (amqpSession, error), queueSize int, minBackoff time.Duration, logger zerolog.Logger) (*AMQPForwarder, error) {
	s, err := dial()
	if err != nil {
		return nil, err
	}
	f := &AMQPForwarder{
		queue:          make(chan *Event, queueSize),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
		dial:           dial,
		session:        s,
		publishTimeout: defaultPublishTimeout,
		minBackoff:     minBackoff,
		maxBackoff:     defaultMaxBackoff,
		logger:         logger.With().Str("component", "amqp").Logger(),
	}
	go f.run()
	return f, nil
}

func dialSession(url, exchange string) (amqpSession, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(defaultDialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	return &channelSession{exchange: exchange, conn: conn, ch: ch}, nil
}

// Handle is a Bus handler; register it with SubscribeAll. It never blocks.
func (f *AMQPForwarder) Handle(event *Event) error {
	select {
	case <-f.done:
		metrics.IncEventDropped("closed")
		return nil
	default:
	}

	select {
	case f.queue <- event:
	default:
		metrics.IncEventDropped("queue_full")
		f.logger.Warn().Str("event", event.Type).Msg("amqp queue full, event dropped")
	}
	return nil
}

func (f *AMQPForwarder) run() {
	defer close(f.stopped)
	for {
		select {
		case <-f.done:
			return
		case event := <-f.queue:
			f.deliver(event)
		}
	}
}

func (f *AMQPForwarder) deliver(event *Event) {
	backoff := f.minBackoff
	for attempt := 1; ; attempt++ {
		err := f.publish(event)
		if err == nil {
			return
		}
		if attempt == maxPublishAttempts {
			metrics.IncEventDropped("publish_failed")
			f.logger.Error().Err(err).Str("event", event.Type).Msg("amqp publish failed, event dropped")
			return
		}
		f.logger.Warn().Err(err).Str("event", event.Type).Int("attempt", attempt).Dur("retry_in", backoff).Msg("amqp publish failed")

		select {
		case <-f.done:
			metrics.IncEventDropped("closed")
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, f.maxBackoff)
	}
}

func (f *AMQPForwarder) publish(event *Event) error {
	if f.session == nil || !f.session.healthy() {
		if f.session != nil {
			f.session.close()
			f.session = nil
		}
		s, err := f.dial()
		if err != nil {
			return err
		}
		f.session = s
		f.logger.Info().Msg("amqp reconnected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.publishTimeout)
	defer cancel()
	return f.session.publish(ctx, event.Type, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.CreatedAt,
		Type:         event.Type,
		Body:         event.Payload,
	})
}

// Close stops the publisher, makes one attempt at each queued event over a
// live session and closes the connection.
func (f *AMQPForwarder) Close() error {
	f.once.Do(func() {
		close(f.done)
		<-f.stopped

	drain:
		for {
			select {
			case event := <-f.queue:
				if f.session == nil || !f.session.healthy() || f.publish(event) != nil {
					metrics.IncEventDropped("closed")
				}
			default:
				break drain
			}
		}

		if f.session != nil {
			f.session.close()
			f.session = nil
		}
	})
	return nil
}
