package models

import "github.com/shopspring/decimal"

// Client is the entity owned by client-service. The id is assigned by the
// store on first save; Email is unique across all clients.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Goal is the entity owned by goal-service. ClientID is a logical foreign key
// into client-service; it is validated against the live client registry at
// creation time only and is never enforced by a shared database.
type Goal struct {
	ID           int64           `json:"id"`
	ClientID     int64           `json:"clientId"`
	GoalName     string          `json:"goalName"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}
