package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planvault/internal/goal/repository"
	"planvault/shared/cache"
	"planvault/shared/events"
	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// countingStore wraps the in-memory store and counts writes, so tests can
// verify that a rejected create never reaches the store.
type countingStore struct {
	*repository.InMemory
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Save(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.InMemory.Save(ctx, goal)
}

func (s *countingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// stubChecker answers Exists from a fixed set. The service cannot tell this
// apart from an unreachable client-service returning false.
type stubChecker struct {
	existing map[int64]bool
}

func (c *stubChecker) Exists(_ context.Context, clientID int64) bool {
	return c.existing[clientID]
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	exchange string
	key      string
	event    any
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{exchange: exchange, key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.published...)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(existing ...int64) (*Service, *countingStore, *recordingPublisher) {
	store := &countingStore{InMemory: repository.NewInMemory()}
	pub := &recordingPublisher{}
	checker := &stubChecker{existing: make(map[int64]bool)}
	for _, id := range existing {
		checker.existing[id] = true
	}
	svc := New(
		store,
		checker,
		cache.NewMemoryCache[*models.Goal](),
		cache.NewMemoryCache[[]models.Goal](),
		cache.NewMemoryCache[[]models.Goal](),
		pub,
		slog.Default(),
	)
	return svc, store, pub
}

func TestCreateGoalForExistingClient(t *testing.T) {
	svc, _, pub := newTestService(1)
	ctx := context.Background()

	goal, err := svc.Create(ctx, 1, "Emergency Fund", amount("500.00"))
	require.NoError(t, err)
	require.NotZero(t, goal.ID)
	assert.Equal(t, int64(1), goal.ClientID)

	got, err := svc.GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Emergency Fund", got.GoalName)
	assert.True(t, got.TargetAmount.Equal(amount("500.00")))

	evs := pub.events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.GoalExchange, evs[0].exchange)
	assert.Equal(t, events.GoalCreatedKey, evs[0].key)
	ev := evs[0].event.(events.GoalEvent)
	assert.Equal(t, goal.ID, ev.GoalID)
	assert.Equal(t, events.KindCreated, ev.EventType)
}

func TestCreateGoalMissingClientNoStoreWrite(t *testing.T) {
	svc, store, pub := newTestService() // checker knows no clients
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, "Emergency Fund", amount("500.00"))
	assert.ErrorIs(t, err, sentinel.ErrReferenceInvalid)
	assert.Zero(t, store.saveCount(), "rejected create must not reach the store")
	assert.Empty(t, pub.events())
}

// An unreachable client-service produces the identical outcome as a
// confirmed-missing client: the stub answers false for both and the service
// has no way to distinguish them.
func TestCreateGoalUnreachableCheckerSameAsMissing(t *testing.T) {
	svc, store, _ := newTestService()
	_, err := svc.Create(context.Background(), 1, "Emergency Fund", amount("500.00"))
	assert.ErrorIs(t, err, sentinel.ErrReferenceInvalid)
	assert.Zero(t, store.saveCount())
}

func TestCreateGoalValidation(t *testing.T) {
	svc, store, _ := newTestService(1)
	ctx := context.Background()

	tests := []struct {
		name     string
		clientID int64
		goalName string
		amount   decimal.Decimal
	}{
		{"empty name", 1, "  ", amount("10")},
		{"zero amount", 1, "Fund", amount("0")},
		{"negative amount", 1, "Fund", amount("-5.00")},
		{"non-positive client id", 0, "Fund", amount("10")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.clientID, tt.goalName, tt.amount)
			assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
		})
	}
	assert.Zero(t, store.saveCount())
}

func TestGetByClient(t *testing.T) {
	svc, _, _ := newTestService(1, 2)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "Fund A", amount("100"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, "Fund B", amount("200"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, "Fund C", amount("300"))
	require.NoError(t, err)

	goals, err := svc.GetByClient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Fund A", goals[0].GoalName)
	assert.Equal(t, "Fund C", goals[1].GoalName)

	_, err = svc.GetByClient(ctx, 99)
	assert.ErrorIs(t, err, sentinel.ErrReferenceInvalid)
}

func TestListNeverStaleAfterMutation(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, "Fund", amount("100"))
	require.NoError(t, err)

	// Warm every read path.
	_, err = svc.GetAll(ctx)
	require.NoError(t, err)
	_, err = svc.GetByClient(ctx, 1)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, g.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, g.ID, "Bigger Fund", amount("900"))
	require.NoError(t, err)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Bigger Fund", all[0].GoalName)

	byClient, err := svc.GetByClient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.True(t, byClient[0].TargetAmount.Equal(amount("900")))

	require.NoError(t, svc.Delete(ctx, g.ID))
	all, err = svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateDoesNotRecheckClient(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, "Fund", amount("100"))
	require.NoError(t, err)

	// Simulate the client being deleted afterwards: the checker now denies
	// it, but update and delete of the goal must still succeed.
	svc.checker.(*stubChecker).existing[1] = false

	_, err = svc.Update(ctx, g.ID, "Fund", amount("150"))
	require.NoError(t, err, "update must not re-validate the client reference")
	require.NoError(t, svc.Delete(ctx, g.ID), "delete must not re-validate the client reference")
}

func TestDeletePublishesPreDeleteSnapshot(t *testing.T) {
	svc, _, pub := newTestService(1)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, "Emergency Fund", amount("500.00"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, g.ID))

	evs := pub.events()
	require.Len(t, evs, 2)
	ev := evs[1].event.(events.GoalEvent)
	assert.Equal(t, events.KindDeleted, ev.EventType)
	assert.Equal(t, g.ID, ev.GoalID)
	assert.Equal(t, "Emergency Fund", ev.GoalName)
	assert.True(t, ev.TargetAmount.Equal(amount("500.00")))
}

func TestExactlyOneEventPerMutation(t *testing.T) {
	svc, _, pub := newTestService(1)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, "Fund", amount("100"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, g.ID, "Fund", amount("200"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, g.ID))

	evs := pub.events()
	require.Len(t, evs, 3)
	assert.Equal(t, events.GoalCreatedKey, evs[0].key)
	assert.Equal(t, events.GoalUpdatedKey, evs[1].key)
	assert.Equal(t, events.GoalDeletedKey, evs[2].key)
}

func TestGetMissingGoalNotFound(t *testing.T) {
	svc, _, _ := newTestService(1)
	_, err := svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
