// Package events carries the change events exchanged between client-service
// and goal-service, and the RabbitMQ topology they travel on. Events are
// constructed at the moment of a committed store mutation and never mutated
// afterwards; they exist only on the wire.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"planvault/shared/models"
)

// Event kinds.
const (
	KindCreated = "CREATED"
	KindUpdated = "UPDATED"
	KindDeleted = "DELETED"
)

// Client topology.
const (
	ClientExchange = "client.exchange"

	ClientCreatedQueue = "client.created.queue"
	ClientUpdatedQueue = "client.updated.queue"
	ClientDeletedQueue = "client.deleted.queue"

	ClientCreatedKey = "client.created"
	ClientUpdatedKey = "client.updated"
	ClientDeletedKey = "client.deleted"
)

// Goal topology.
const (
	GoalExchange = "goal.exchange"

	GoalCreatedQueue = "goal.created.queue"
	GoalUpdatedQueue = "goal.updated.queue"
	GoalDeletedQueue = "goal.deleted.queue"

	GoalCreatedKey = "goal.created"
	GoalUpdatedKey = "goal.updated"
	GoalDeletedKey = "goal.deleted"
)

// ClientEvent describes a committed client mutation. Snapshot fields are
// denormalized so consumers never need to call back into client-service.
type ClientEvent struct {
	ClientID  int64     `json:"clientId"`
	EventType string    `json:"eventType"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// GoalEvent describes a committed goal mutation.
type GoalEvent struct {
	GoalID       int64           `json:"goalId"`
	ClientID     int64           `json:"clientId"`
	EventType    string          `json:"eventType"`
	GoalName     string          `json:"goalName"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewClientEvent snapshots a client into an immutable event.
func NewClientEvent(kind string, c *models.Client) ClientEvent {
	return ClientEvent{
		ClientID:  c.ID,
		EventType: kind,
		Name:      c.Name,
		Email:     c.Email,
		Timestamp: time.Now().UTC(),
	}
}

// NewGoalEvent snapshots a goal into an immutable event.
func NewGoalEvent(kind string, g *models.Goal) GoalEvent {
	return GoalEvent{
		GoalID:       g.ID,
		ClientID:     g.ClientID,
		EventType:    kind,
		GoalName:     g.GoalName,
		TargetAmount: g.TargetAmount,
		Timestamp:    time.Now().UTC(),
	}
}

// RoutingKey maps an event kind to the routing key under the given entity
// prefix ("client" or "goal").
func RoutingKey(entity, kind string) string {
	switch kind {
	case KindCreated:
		return entity + ".created"
	case KindUpdated:
		return entity + ".updated"
	case KindDeleted:
		return entity + ".deleted"
	}
	return entity + ".unknown"
}
