package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/store"
)

var _ DueCardSelector = (*dueCardSelector)(nil)

type dueCardSelector struct {
	items  store.LearningItemStore
	logger *slog.Logger
}

// NewDueCardSelector creates a DueCardSelector reading from items.
func NewDueCardSelector(items store.LearningItemStore, logger *slog.Logger) DueCardSelector {
	if items == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("items store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &dueCardSelector{
		items:  items,
		logger: logger.With(slog.String("component", "due_card_selector")),
	}
}

// SelectDue implements DueCardSelector.SelectDue.
func (s *dueCardSelector) SelectDue(
	ctx context.Context,
	userID string,
	now time.Time,
	limit int,
) ([]*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	limit = store.NormalizeLimit(limit)

	items, err := s.items.FindDue(ctx, userID, now.UTC(), limit)
	if err != nil {
		log.Error("failed to select due items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, storeUnavailable("select_due", err)
	}
	if items == nil {
		items = []*domain.LearningItem{}
	}

	log.Debug("selected due items",
		slog.String("user_id", userID),
		slog.Int("count", len(items)),
		slog.Int("limit", limit))
	return items, nil
}
