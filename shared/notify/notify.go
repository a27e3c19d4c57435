// Package notify is the seam to the downstream notification sink. The real
// deployment forwards events to an external topic; its delivery guarantees
// are out of scope, so callers treat Notify as best-effort.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Sink receives a structured event for downstream fan-out.
type Sink interface {
	Notify(ctx context.Context, subject string, payload any) error
}

// LogSink records notifications locally, tagged with the configured topic
// identifier. Used when no external sink is wired.
type LogSink struct {
	topic string
	log   *slog.Logger
}

func NewLogSink(topic string, log *slog.Logger) *LogSink {
	return &LogSink{topic: topic, log: log}
}

func (s *LogSink) Notify(_ context.Context, subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.log.Info("notification",
		slog.String("topic", s.topic),
		slog.String("subject", subject),
		slog.String("payload", string(body)),
	)
	return nil
}
