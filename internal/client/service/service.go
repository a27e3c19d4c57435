// Package service orchestrates client mutations: uniqueness check, store
// write, cache invalidation and event publication, in that order.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"planvault/internal/client/repository"
	"planvault/shared/cache"
	"planvault/shared/events"
	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// Cache namespaces. Every mutation clears both in full, so list reads are
// never stale after a write.
const (
	EntityNamespace = "clients"
	ListNamespace   = "client-list"
)

type Service struct {
	store     repository.Store
	byID      cache.Cache[*models.Client]
	list      cache.Cache[[]models.Client]
	publisher events.Publisher
	log       *slog.Logger
}

func New(
	store repository.Store,
	byID cache.Cache[*models.Client],
	list cache.Cache[[]models.Client],
	publisher events.Publisher,
	log *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		byID:      byID,
		list:      list,
		publisher: publisher,
		log:       log,
	}
}

// Create registers a new client. The email pre-check produces the clean
// Conflict error; the store's unique index catches the race between two
// concurrent creates with the same address.
func (s *Service) Create(ctx context.Context, name, email string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are mandatory: %w", sentinel.ErrInvalidInput)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("client with email already exists: %w", sentinel.ErrConflict)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	s.log.Info("creating client", slog.String("email", email))
	client, err := s.store.Save(ctx, &models.Client{Name: name, Email: email})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.KindCreated, events.ClientCreatedKey, client)
	return client, nil
}

// GetByID reads through the per-entity cache.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	return s.byID.GetOrLoad(ctx, strconv.FormatInt(id, 10), func(ctx context.Context) (*models.Client, error) {
		return s.store.FindByID(ctx, id)
	})
}

// GetAll reads through the list cache under the fixed collection key.
func (s *Service) GetAll(ctx context.Context) ([]models.Client, error) {
	return s.list.GetOrLoad(ctx, cache.ListKey, func(ctx context.Context) ([]models.Client, error) {
		return s.store.FindAll(ctx)
	})
}

// Update mutates name and email in place. The fetch goes through the same
// cached read path as GetByID.
func (s *Service) Update(ctx context.Context, id int64, name, email string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are mandatory: %w", sentinel.ErrInvalidInput)
	}

	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if other, err := s.store.FindByEmail(ctx, email); err == nil && other.ID != id {
		return nil, fmt.Errorf("client with email already exists: %w", sentinel.ErrConflict)
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	s.log.Info("updating client", slog.Int64("id", id))
	updated := &models.Client{ID: client.ID, Name: name, Email: email}
	updated, err = s.store.Save(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.KindUpdated, events.ClientUpdatedKey, updated)
	return updated, nil
}

// Delete removes a client. The event is built from the pre-delete snapshot;
// goals referencing the client are intentionally left untouched.
func (s *Service) Delete(ctx context.Context, id int64) error {
	client, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	snapshot := *client

	s.log.Info("deleting client", slog.Int64("id", id))
	if err := s.store.Delete(ctx, client); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.publish(ctx, events.KindDeleted, events.ClientDeletedKey, &snapshot)
	return nil
}

// invalidate clears both cache namespaces. It runs synchronously on every
// mutation path; a failing cache backend is logged but cannot fail the
// request, because the store write has already committed.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.byID.Clear(ctx); err != nil {
		s.log.Error("failed to clear entity cache", slog.Any("error", err))
	}
	if err := s.list.Clear(ctx); err != nil {
		s.log.Error("failed to clear list cache", slog.Any("error", err))
	}
}

// publish emits exactly one event per successful mutation. Publish failures
// are logged and swallowed: the mutation is neither rolled back nor retried.
func (s *Service) publish(ctx context.Context, kind, routingKey string, client *models.Client) {
	ev := events.NewClientEvent(kind, client)
	if err := s.publisher.Publish(ctx, events.ClientExchange, routingKey, ev); err != nil {
		s.log.Error("failed to publish client event",
			slog.String("key", routingKey),
			slog.Int64("clientId", client.ID),
			slog.Any("error", err),
		)
	}
}
