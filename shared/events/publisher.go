package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher hands a change event to the message channel addressed by
// (exchange, routing key). Implementations must be safe for concurrent use
// from many request goroutines.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, event any) error
	Close() error
}

// ConnectionOptions configures DialWithRetry.
type ConnectionOptions struct {
	URL           string
	RetryAttempts int
	Delay         time.Duration
	Logger        *slog.Logger
}

const maxDialBackoff = 60 * time.Second

// DialWithRetry connects to RabbitMQ with exponential backoff, respecting
// context cancellation for graceful shutdown.
func DialWithRetry(ctx context.Context, cfg ConnectionOptions) (*amqp091.Connection, error) {
	var lastErr error

	for i := 1; i <= cfg.RetryAttempts; i++ {
		conn, err := amqp091.Dial(cfg.URL)
		if err == nil {
			if i > 1 {
				cfg.Logger.Info("rabbit connected", slog.Int("attempt", i))
			}
			return conn, nil
		}
		lastErr = err

		sleep := cfg.Delay * time.Duration(math.Pow(2, float64(i-1)))
		if sleep > maxDialBackoff {
			sleep = maxDialBackoff
		}
		cfg.Logger.Warn("rabbit dial failed",
			slog.Int("attempt", i),
			slog.Duration("sleep", sleep),
			slog.Any("error", err),
		)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.New("dial cancelled: " + ctx.Err().Error())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w",
		cfg.RetryAttempts, lastErr)
}

// AMQPPublisher publishes persistent JSON messages through a shared
// connection, opening a short-lived channel per publish.
type AMQPPublisher struct {
	conn *amqp091.Connection
	log  *slog.Logger
}

func NewAMQPPublisher(conn *amqp091.Connection, log *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{conn: conn, log: log}
}

func (p *AMQPPublisher) Publish(ctx context.Context, exchange, routingKey string, event any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = ch.PublishWithContext(
		ctx, exchange, routingKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.log.Info("published",
		slog.String("exchange", exchange),
		slog.String("key", routingKey),
	)
	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// DeclareTopology declares the topic exchange, the three durable per-kind
// queues and their bindings for one entity. Both services declare the full
// topology for the entity they own and the entity they consume; declaration
// is idempotent on the broker.
func DeclareTopology(ch *amqp091.Channel, exchange string, bindings map[string]string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	for queue, key := range bindings {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s/%s: %w", queue, exchange, key, err)
		}
	}
	return nil
}

// ClientBindings is the queue→routing-key map of the client topology.
func ClientBindings() map[string]string {
	return map[string]string{
		ClientCreatedQueue: ClientCreatedKey,
		ClientUpdatedQueue: ClientUpdatedKey,
		ClientDeletedQueue: ClientDeletedKey,
	}
}

// GoalBindings is the queue→routing-key map of the goal topology.
func GoalBindings() map[string]string {
	return map[string]string{
		GoalCreatedQueue: GoalCreatedKey,
		GoalUpdatedQueue: GoalUpdatedKey,
		GoalDeletedQueue: GoalDeletedKey,
	}
}
