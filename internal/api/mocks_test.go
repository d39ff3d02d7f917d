package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/service/items"
	"github.com/phrazzld/vocab-review/internal/service/review"
)

type mockItemService struct {
	createFn func(ctx context.Context, input items.NewItemInput) (*domain.LearningItem, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error)
	listFn   func(ctx context.Context, userID string, limit, offset int) ([]*domain.LearningItem, error)
}

func (m *mockItemService) CreateItem(ctx context.Context, input items.NewItemInput) (*domain.LearningItem, error) {
	return m.createFn(ctx, input)
}

func (m *mockItemService) GetItem(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	return m.getFn(ctx, id)
}

func (m *mockItemService) ListItems(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.LearningItem, error) {
	return m.listFn(ctx, userID, limit, offset)
}

type mockSessionService struct {
	startFn   func(ctx context.Context, userID string) ([]*domain.LearningItem, error)
	applyFn   func(ctx context.Context, updates []domain.ReviewUpdate) domain.SessionResult
	previewFn func(ctx context.Context, req review.ScoreRequest) (domain.CardState, error)
}

func (m *mockSessionService) StartSession(ctx context.Context, userID string) ([]*domain.LearningItem, error) {
	return m.startFn(ctx, userID)
}

func (m *mockSessionService) ApplyBatch(ctx context.Context, updates []domain.ReviewUpdate) domain.SessionResult {
	return m.applyFn(ctx, updates)
}

func (m *mockSessionService) PreviewScore(ctx context.Context, req review.ScoreRequest) (domain.CardState, error) {
	return m.previewFn(ctx, req)
}
