// Package consumer handles goal events arriving from goal-service. Handlers
// are purely observational (logging, statistics, downstream notification),
// which keeps them idempotent under the channel's at-least-once delivery.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rabbitmq/amqp091-go"

	"planvault/shared/events"
	"planvault/shared/notify"
)

type Metrics struct {
	Consumed *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Consumed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "planvault_goal_events_consumed_total",
			Help: "Goal events consumed by client-service, by routing key",
		}, []string{"key"}),
	}
}

// Consumer processes goal events.
type Consumer struct {
	log     *slog.Logger
	metrics *Metrics
	sink    notify.Sink
}

func New(log *slog.Logger, metrics *Metrics, sink notify.Sink) *Consumer {
	return &Consumer{log: log, metrics: metrics, sink: sink}
}

// Bind registers this consumer's handlers on the goal queues.
func (c *Consumer) Bind(sub *events.Subscriber) {
	sub.Handle(events.GoalCreatedQueue, c.Handle)
	sub.Handle(events.GoalUpdatedQueue, c.Handle)
	sub.Handle(events.GoalDeletedQueue, c.Handle)
}

// Handle records one goal event. A malformed body is logged and acked; there
// is nothing to gain from redelivering a message that cannot be decoded.
func (c *Consumer) Handle(ctx context.Context, d amqp091.Delivery) error {
	var ev events.GoalEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		c.log.Error("undecodable goal event", slog.String("key", d.RoutingKey), slog.Any("error", err))
		return nil
	}

	c.metrics.Consumed.WithLabelValues(d.RoutingKey).Inc()
	c.log.Info("goal event received",
		slog.String("key", d.RoutingKey),
		slog.String("type", ev.EventType),
		slog.Int64("goalId", ev.GoalID),
		slog.Int64("clientId", ev.ClientID),
	)

	if err := c.sink.Notify(ctx, d.RoutingKey, ev); err != nil {
		c.log.Warn("notification sink failed", slog.Any("error", err))
	}
	return nil
}
