// Package repository implements the goal entity store contract. Goals carry a
// logical clientId reference that no database constraint enforces.
package repository

import (
	"context"

	"planvault/shared/models"
)

// Store is the durable storage contract for goals. Save assigns the id on
// first insert.
type Store interface {
	Save(ctx context.Context, goal *models.Goal) (*models.Goal, error)
	FindByID(ctx context.Context, id int64) (*models.Goal, error)
	FindAll(ctx context.Context) ([]models.Goal, error)
	FindByClientID(ctx context.Context, clientID int64) ([]models.Goal, error)
	Delete(ctx context.Context, goal *models.Goal) error
}
