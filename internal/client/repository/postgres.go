package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// Postgres stores clients in PostgreSQL. The clients table carries a unique
// index on email.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Save(ctx context.Context, client *models.Client) (*models.Client, error) {
	if client.ID == 0 {
		query := `INSERT INTO clients (name, email) VALUES ($1, $2) RETURNING id`
		err := r.db.QueryRowContext(ctx, query, client.Name, client.Email).Scan(&client.ID)
		if err != nil {
			return nil, translateErr("failed to create client", err)
		}
		return client, nil
	}

	query := `UPDATE clients SET name = $2, email = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, client.ID, client.Name, client.Email)
	if err != nil {
		return nil, translateErr("failed to update client", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, sentinel.ErrNotFound
	}
	return client, nil
}

func (r *Postgres) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT id, name, email FROM clients WHERE id = $1`
	var client models.Client
	err := r.db.QueryRowContext(ctx, query, id).Scan(&client.ID, &client.Name, &client.Email)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (r *Postgres) FindAll(ctx context.Context) ([]models.Client, error) {
	query := `SELECT id, name, email FROM clients ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var client models.Client
		if err := rows.Scan(&client.ID, &client.Name, &client.Email); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *Postgres) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	query := `SELECT id, name, email FROM clients WHERE email = $1`
	var client models.Client
	err := r.db.QueryRowContext(ctx, query, email).Scan(&client.ID, &client.Name, &client.Email)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}
	return &client, nil
}

func (r *Postgres) Delete(ctx context.Context, client *models.Client) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, client.ID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// translateErr maps a unique-constraint violation to ErrConflict so the
// loser of a concurrent duplicate-email race observes the same error as the
// pre-check produces.
func translateErr(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", msg, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
