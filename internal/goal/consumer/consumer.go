// Package consumer handles client events arriving from client-service.
// Handlers are purely observational (logging, statistics, downstream
// notification), which keeps them idempotent under the channel's
// at-least-once delivery. A client deletion does not cascade to goals.
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
			Name: "planvault_client_events_consumed_total",
			Help: "Client events consumed by goal-service, by routing key",
		}, []string{"key"}),
	}
}

// Consumer processes client events.
type Consumer struct {
	log     *slog.Logger
	metrics *Metrics
	sink    notify.Sink
}

func New(log *slog.Logger, metrics *Metrics, sink notify.Sink) *Consumer {
	return &Consumer{log: log, metrics: metrics, sink: sink}
}

// Bind registers this consumer's handlers on the client queues.
func (c *Consumer) Bind(sub *events.Subscriber) {
	sub.Handle(events.ClientCreatedQueue, c.Handle)
	sub.Handle(events.ClientUpdatedQueue, c.Handle)
	sub.Handle(events.ClientDeletedQueue, c.Handle)
}

// Handle records one client event. A malformed body is logged and acked.
func (c *Consumer) Handle(ctx context.Context, d amqp091.Delivery) error {
	var ev events.ClientEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		c.log.Error("undecodable client event", slog.String("key", d.RoutingKey), slog.Any("error", err))
		return nil
	}

	c.metrics.Consumed.WithLabelValues(d.RoutingKey).Inc()
	c.log.Info("client event received",
		slog.String("key", d.RoutingKey),
		slog.String("type", ev.EventType),
		slog.Int64("clientId", ev.ClientID),
	)

	if err := c.sink.Notify(ctx, d.RoutingKey, ev); err != nil {
		c.log.Warn("notification sink failed", slog.Any("error", err))
	}
	return nil
}
