package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// InMemory stores clients in memory. It mirrors the Postgres store's
// behavior, including the unique-email arbiter, and is safe for concurrent
// use.
type InMemory struct {
	mu       sync.RWMutex
	nextID   int64
	clients  map[int64]models.Client
	emailIdx map[string]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID:   1,
		clients:  make(map[int64]models.Client),
		emailIdx: make(map[string]int64),
	}
}

func (s *InMemory) Save(_ context.Context, client *models.Client) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(client.Email)
	if owner, exists := s.emailIdx[email]; exists && owner != client.ID {
		return nil, fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}

	if client.ID == 0 {
		client.ID = s.nextID
		s.nextID++
	} else {
		prev, ok := s.clients[client.ID]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		if prev.Email != client.Email {
			delete(s.emailIdx, strings.ToLower(prev.Email))
		}
	}

	s.clients[client.ID] = *client
	s.emailIdx[email] = client.ID
	stored := *client
	return &stored, nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[id]; ok {
		found := c
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindAll(_ context.Context) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.emailIdx[strings.ToLower(email)]; ok {
		found := s.clients[id]
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Delete(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.clients[client.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clients, client.ID)
	delete(s.emailIdx, strings.ToLower(stored.Email))
	return nil
}
