package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
)

// DefaultDueLimit is the number of due items returned when no limit is given.
const DefaultDueLimit = 20

// LearningItemStore defines the interface for learning item persistence.
// The card state is stored alongside the item; there is no separate stats record.
type LearningItemStore interface {
	// Create saves a new learning item.
	// Returns ErrDuplicateItem if the user already saved an item with the same text.
	// Returns validation errors from the domain LearningItem if data is invalid.
	Create(ctx context.Context, item *domain.LearningItem) error

	// GetByID retrieves a learning item by its unique ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error)

	// ListByUser returns a user's items, newest first.
	// Returns an empty slice if the user has no items.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LearningItem, error)

	// FindDue returns the user's items whose card is due at or before now,
	// ordered by due time ascending, then creation time, then ID, capped at limit.
	// Returns an empty slice (not an error) when nothing is due.
	FindDue(ctx context.Context, userID string, now time.Time, limit int) ([]*domain.LearningItem, error)

	// FindByIDs fetches all items matching the given IDs in one batched read.
	// IDs with no matching item are silently absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.LearningItem, error)

	// SaveAll upserts the given items in one batched write.
	// Either every item is persisted or none is.
	SaveAll(ctx context.Context, items []*domain.LearningItem) error
}

// NormalizeLimit returns DefaultDueLimit for non-positive limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultDueLimit
	}
	return limit
}

// DueOrderLess reports whether a comes before b in review order:
// earliest due first, then earliest created, then lowest ID.
func DueOrderLess(a, b *domain.LearningItem) bool {
	if !a.Card.DueAt.Equal(b.Card.DueAt) {
		return a.Card.DueAt.Before(b.Card.DueAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
