package repository

import (
	"context"
	"sort"
	"sync"

	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// InMemory stores goals in memory, mirroring the Postgres store. Safe for
// concurrent use.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	goals  map[int64]models.Goal
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, goals: make(map[int64]models.Goal)}
}

func (s *InMemory) Save(_ context.Context, goal *models.Goal) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal.ID == 0 {
		goal.ID = s.nextID
		s.nextID++
	} else if _, ok := s.goals[goal.ID]; !ok {
		return nil, sentinel.ErrNotFound
	}

	s.goals[goal.ID] = *goal
	stored := *goal
	return &stored, nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.goals[id]; ok {
		found := g
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindAll(_ context.Context) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	goals := make([]models.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

func (s *InMemory) FindByClientID(_ context.Context, clientID int64) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var goals []models.Goal
	for _, g := range s.goals {
		if g.ClientID == clientID {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

func (s *InMemory) Delete(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[goal.ID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.goals, goal.ID)
	return nil
}
