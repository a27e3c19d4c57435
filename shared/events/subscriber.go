package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery. Deliveries arrive at least once and with no
// ordering guarantee across queues; handlers must tolerate duplicates.
type Handler func(ctx context.Context, d amqp091.Delivery) error

// Subscriber consumes the queues of a remote entity's topology through a
// fixed worker pool. Register all handlers before calling Start.
type Subscriber struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	log      *slog.Logger
	handlers map[string]Handler // queue name → handler
	msgs     chan amqp091.Delivery
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	workers  int
}

func NewSubscriber(conn *amqp091.Connection, log *slog.Logger, workers int) (*Subscriber, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 4
	}
	return &Subscriber{
		conn:     conn,
		ch:       ch,
		log:      log,
		handlers: make(map[string]Handler),
		msgs:     make(chan amqp091.Delivery, workers*8),
		done:     make(chan struct{}),
		workers:  workers,
	}, nil
}

// Handle binds handler to a queue. Not safe to call after Start.
func (s *Subscriber) Handle(queue string, handler Handler) {
	s.handlers[queue] = handler
}

// Start begins consuming every registered queue. The topology (exchange,
// queues, bindings) must already be declared.
func (s *Subscriber) Start(ctx context.Context) error {
	var startErr error
	s.once.Do(func() {
		if err := s.ch.Qos(10, 0, false); err != nil {
			startErr = err
			return
		}
		for queue := range s.handlers {
			deliveries, err := s.ch.Consume(queue, "", false, false, false, false, nil)
			if err != nil {
				startErr = err
				return
			}
			go s.pump(queue, deliveries)
		}
		s.runWorkerPool(ctx)
		s.log.Info("subscriber started", slog.Int("queues", len(s.handlers)))
	})
	return startErr
}

// pump forwards one queue's deliveries into the shared worker channel.
func (s *Subscriber) pump(queue string, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-s.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				s.log.Warn("delivery channel closed", slog.String("queue", queue))
				return
			}
			select {
			case s.msgs <- d:
			case <-s.done:
				return
			}
		}
	}
}

func (s *Subscriber) runWorkerPool(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.done:
					return
				case d, ok := <-s.msgs:
					if !ok {
						return
					}
					s.dispatch(ctx, d)
				}
			}
		}()
	}
}

func (s *Subscriber) dispatch(ctx context.Context, d amqp091.Delivery) {
	handler, ok := s.handlers[queueFor(d)]
	if !ok {
		s.log.Warn("no handler for delivery", slog.String("key", d.RoutingKey))
		_ = d.Ack(false)
		return
	}
	if err := handler(ctx, d); err != nil {
		s.log.Error("handler failed, requeueing",
			slog.String("key", d.RoutingKey),
			slog.Any("error", err),
		)
		// Requeue on first failure only; a redelivered poison message is
		// dropped rather than looped forever.
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}

// queueFor recovers the queue a delivery was consumed from. The topology
// binds each routing key to exactly one queue named "<key>.queue".
func queueFor(d amqp091.Delivery) string {
	return d.RoutingKey + ".queue"
}

// Close stops the workers and tears down the channel.
func (s *Subscriber) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.ch.Close()
}
