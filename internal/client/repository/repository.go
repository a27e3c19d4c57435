// Package repository implements the client entity store contract: save,
// find-by-id, find-all, find-by-email (the unique secondary key) and delete.
package repository

import (
	"context"

	"planvault/shared/models"
)

// Store is the durable storage contract for clients. Save assigns the id on
// first insert; the store's unique index on email is the final arbiter for
// concurrent creations with the same address.
type Store interface {
	Save(ctx context.Context, client *models.Client) (*models.Client, error)
	FindByID(ctx context.Context, id int64) (*models.Client, error)
	FindAll(ctx context.Context) ([]models.Client, error)
	FindByEmail(ctx context.Context, email string) (*models.Client, error)
	Delete(ctx context.Context, client *models.Client) error
}
