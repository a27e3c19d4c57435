package repository

import (
	"context"
	"database/sql"
	"fmt"

	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// Postgres stores goals in PostgreSQL. target_amount is NUMERIC; amounts are
// scanned through shopspring/decimal to avoid float drift.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Save(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	if goal.ID == 0 {
		query := `INSERT INTO goals (client_id, goal_name, target_amount) VALUES ($1, $2, $3) RETURNING id`
		err := r.db.QueryRowContext(ctx, query, goal.ClientID, goal.GoalName, goal.TargetAmount).Scan(&goal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create goal: %w", err)
		}
		return goal, nil
	}

	query := `UPDATE goals SET goal_name = $2, target_amount = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, goal.ID, goal.GoalName, goal.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, sentinel.ErrNotFound
	}
	return goal, nil
}

func (r *Postgres) FindByID(ctx context.Context, id int64) (*models.Goal, error) {
	query := `SELECT id, client_id, goal_name, target_amount FROM goals WHERE id = $1`
	var goal models.Goal
	err := r.db.QueryRowContext(ctx, query, id).Scan(&goal.ID, &goal.ClientID, &goal.GoalName, &goal.TargetAmount)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &goal, nil
}

func (r *Postgres) FindAll(ctx context.Context) ([]models.Goal, error) {
	return r.queryGoals(ctx, `SELECT id, client_id, goal_name, target_amount FROM goals ORDER BY id`)
}

func (r *Postgres) FindByClientID(ctx context.Context, clientID int64) ([]models.Goal, error) {
	return r.queryGoals(ctx, `SELECT id, client_id, goal_name, target_amount FROM goals WHERE client_id = $1 ORDER BY id`, clientID)
}

func (r *Postgres) queryGoals(ctx context.Context, query string, args ...any) ([]models.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(&goal.ID, &goal.ClientID, &goal.GoalName, &goal.TargetAmount); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (r *Postgres) Delete(ctx context.Context, goal *models.Goal) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, goal.ID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
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
