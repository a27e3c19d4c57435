// Package service orchestrates goal mutations. Creating a goal first
// validates the client reference against the live client-service; the check
// runs only on create and is never revisited, so a client deleted later
// leaves its goals behind.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"planvault/internal/goal/clientcheck"
	"planvault/internal/goal/repository"
	"planvault/shared/cache"
	"planvault/shared/events"
	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// Cache namespaces. The by-client listings live in their own namespace so a
// goal mutation clears them together with the rest.
const (
	EntityNamespace   = "goals"
	ListNamespace     = "goal-list"
	ByClientNamespace = "goals-by-client"
)

type Service struct {
	store     repository.Store
	checker   clientcheck.Checker
	byID      cache.Cache[*models.Goal]
	list      cache.Cache[[]models.Goal]
	byClient  cache.Cache[[]models.Goal]
	publisher events.Publisher
	log       *slog.Logger
}

func New(
	store repository.Store,
	checker clientcheck.Checker,
	byID cache.Cache[*models.Goal],
	list cache.Cache[[]models.Goal],
	byClient cache.Cache[[]models.Goal],
	publisher events.Publisher,
	log *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		checker:   checker,
		byID:      byID,
		list:      list,
		byClient:  byClient,
		publisher: publisher,
		log:       log,
	}
}

// Create stores a new goal after validating its client reference. The check
// blocks the calling request for at most the checker's timeout; a false
// answer aborts before any store access, regardless of whether the client is
// missing or client-service is unreachable.
func (s *Service) Create(ctx context.Context, clientID int64, goalName string, targetAmount decimal.Decimal) (*models.Goal, error) {
	goalName = strings.TrimSpace(goalName)
	if goalName == "" {
		return nil, fmt.Errorf("goal name is mandatory: %w", sentinel.ErrInvalidInput)
	}
	if clientID <= 0 {
		return nil, fmt.Errorf("client id must be positive: %w", sentinel.ErrInvalidInput)
	}
	if !targetAmount.IsPositive() {
		return nil, fmt.Errorf("target amount must be positive: %w", sentinel.ErrInvalidInput)
	}

	if !s.checker.Exists(ctx, clientID) {
		return nil, fmt.Errorf("client %d: %w", clientID, sentinel.ErrReferenceInvalid)
	}

	s.log.Info("creating goal", slog.String("name", goalName), slog.Int64("clientId", clientID))
	goal, err := s.store.Save(ctx, &models.Goal{
		ClientID:     clientID,
		GoalName:     goalName,
		TargetAmount: targetAmount,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.KindCreated, events.GoalCreatedKey, goal)
	return goal, nil
}

// GetByID reads through the per-entity cache.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Goal, error) {
	return s.byID.GetOrLoad(ctx, strconv.FormatInt(id, 10), func(ctx context.Context) (*models.Goal, error) {
		return s.store.FindByID(ctx, id)
	})
}

// GetAll reads through the list cache.
func (s *Service) GetAll(ctx context.Context) ([]models.Goal, error) {
	return s.list.GetOrLoad(ctx, cache.ListKey, func(ctx context.Context) ([]models.Goal, error) {
		return s.store.FindAll(ctx)
	})
}

// GetByClient lists a client's goals, verifying the client reference the same
// way create does.
func (s *Service) GetByClient(ctx context.Context, clientID int64) ([]models.Goal, error) {
	if !s.checker.Exists(ctx, clientID) {
		return nil, fmt.Errorf("client %d: %w", clientID, sentinel.ErrReferenceInvalid)
	}
	return s.byClient.GetOrLoad(ctx, strconv.FormatInt(clientID, 10), func(ctx context.Context) ([]models.Goal, error) {
		return s.store.FindByClientID(ctx, clientID)
	})
}

// Update mutates goal name and target amount in place. The client reference
// is not re-validated.
func (s *Service) Update(ctx context.Context, id int64, goalName string, targetAmount decimal.Decimal) (*models.Goal, error) {
	goalName = strings.TrimSpace(goalName)
	if goalName == "" {
		return nil, fmt.Errorf("goal name is mandatory: %w", sentinel.ErrInvalidInput)
	}
	if !targetAmount.IsPositive() {
		return nil, fmt.Errorf("target amount must be positive: %w", sentinel.ErrInvalidInput)
	}

	goal, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("updating goal", slog.Int64("id", id))
	updated := &models.Goal{ID: goal.ID, ClientID: goal.ClientID, GoalName: goalName, TargetAmount: targetAmount}
	updated, err = s.store.Save(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.KindUpdated, events.GoalUpdatedKey, updated)
	return updated, nil
}

// Delete removes a goal, publishing an event built from the pre-delete
// snapshot.
func (s *Service) Delete(ctx context.Context, id int64) error {
	goal, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	snapshot := *goal

	s.log.Info("deleting goal", slog.Int64("id", id))
	if err := s.store.Delete(ctx, goal); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.KindDeleted, events.GoalDeletedKey, &snapshot)
	return nil
}

// invalidate clears all three cache namespaces synchronously. A failing cache
// backend is logged but cannot fail the request; the store write has already
// committed.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.byID.Clear(ctx); err != nil {
		s.log.Error("failed to clear entity cache", slog.Any("error", err))
	}
	if err := s.list.Clear(ctx); err != nil {
		s.log.Error("failed to clear list cache", slog.Any("error", err))
	}
	if err := s.byClient.Clear(ctx); err != nil {
		s.log.Error("failed to clear by-client cache", slog.Any("error", err))
	}
}

// publish emits exactly one event per successful mutation. Failures are
// logged and swallowed; the mutation is neither rolled back nor retried.
func (s *Service) publish(ctx context.Context, kind, routingKey string, goal *models.Goal) {
	ev := events.NewGoalEvent(kind, goal)
	if err := s.publisher.Publish(ctx, events.GoalExchange, routingKey, ev); err != nil {
		s.log.Error("failed to publish goal event",
			slog.String("key", routingKey),
			slog.Int64("goalId", goal.ID),
			slog.Any("error", err),
		)
	}
}
