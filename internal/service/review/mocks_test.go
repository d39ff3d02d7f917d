package review_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockItemStore mocks store.LearningItemStore.
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) Create(ctx context.Context, item *domain.LearningItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LearningItem), args.Error(1)
}

func (m *MockItemStore) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.LearningItem, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LearningItem), args.Error(1)
}

func (m *MockItemStore) FindDue(
	ctx context.Context,
	userID string,
	now time.Time,
	limit int,
) ([]*domain.LearningItem, error) {
	args := m.Called(ctx, userID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LearningItem), args.Error(1)
}

func (m *MockItemStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.LearningItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LearningItem), args.Error(1)
}

func (m *MockItemStore) SaveAll(ctx context.Context, items []*domain.LearningItem) error {
	return m.Called(ctx, items).Error(0)
}

// MockScorer mocks scoring.Scorer.
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(
	ctx context.Context,
	card domain.CardState,
	rating domain.Rating,
	reviewTime time.Time,
) (domain.CardState, error) {
	args := m.Called(ctx, card, rating, reviewTime)
	return args.Get(0).(domain.CardState), args.Error(1)
}
