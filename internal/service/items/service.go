// Package items handles intake and lookup of learning items.
package items

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/store"
)

// MaxListLimit caps the page size of ListItems.
const MaxListLimit = 100

// NewItemInput carries the fields a client supplies when saving an item.
type NewItemInput struct {
	UserID  string
	Content domain.ItemContent
}

// ItemService provides learning item operations.
type ItemService interface {
	// CreateItem saves a new item with a fresh card state that is due now.
	// Returns store.ErrDuplicateItem if the user already saved the same text
	// and an error wrapping domain.ErrValidation for missing fields.
	CreateItem(ctx context.Context, input NewItemInput) (*domain.LearningItem, error)

	// GetItem returns store.ErrItemNotFound for an unknown ID.
	GetItem(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error)

	// ListItems returns a page of the user's items, newest first.
	ListItems(ctx context.Context, userID string, limit, offset int) ([]*domain.LearningItem, error)
}

// ServiceError wraps unexpected failures from the item service.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

var _ ItemService = (*itemService)(nil)

type itemService struct {
	items  store.LearningItemStore
	now    func() time.Time
	logger *slog.Logger
}

// NewItemService creates an ItemService backed by items.
func NewItemService(items store.LearningItemStore, logger *slog.Logger) ItemService {
	if items == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("items store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &itemService{
		items:  items,
		now:    time.Now,
		logger: logger.With(slog.String("component", "item_service")),
	}
}

// CreateItem implements ItemService.CreateItem.
func (s *itemService) CreateItem(ctx context.Context, input NewItemInput) (*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewLearningItem(input.UserID, input.Content, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, store.ErrDuplicateItem) {
			log.Debug("item text already saved",
				slog.String("user_id", item.UserID))
			return nil, err
		}
		if errors.Is(err, store.ErrInvalidEntity) {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return nil, &ServiceError{Operation: "create_item", Message: "failed to save item", Err: err}
	}

	return item, nil
}

// GetItem implements ItemService.GetItem.
func (s *itemService) GetItem(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, err
		}
		return nil, &ServiceError{Operation: "get_item", Message: "failed to load item", Err: err}
	}
	return item, nil
}

// ListItems implements ItemService.ListItems.
func (s *itemService) ListItems(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.LearningItem, error) {
	limit = min(store.NormalizeLimit(limit), MaxListLimit)
	offset = max(offset, 0)

	items, err := s.items.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, &ServiceError{Operation: "list_items", Message: "failed to list items", Err: err}
	}
	return items, nil
}
