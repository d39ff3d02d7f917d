package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/redact"
	"github.com/phrazzld/vocab-review/internal/scoring"
	"github.com/phrazzld/vocab-review/internal/store"
)

var _ SessionService = (*sessionService)(nil)

type sessionService struct {
	selector     DueCardSelector
	items        store.LearningItemStore
	scorer       scoring.Scorer
	sessionLimit int
	now          func() time.Time
	logger       *slog.Logger
}

// Option customises a SessionService.
type Option func(*sessionService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *sessionService) { s.now = now }
}

// WithSessionLimit sets how many items StartSession returns.
func WithSessionLimit(limit int) Option {
	return func(s *sessionService) { s.sessionLimit = limit }
}

// NewSessionService creates a SessionService. The scorer is only used by
// PreviewScore.
func NewSessionService(
	items store.LearningItemStore,
	scorer scoring.Scorer,
	logger *slog.Logger,
	opts ...Option,
) SessionService {
	if items == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("items store cannot be nil")
	}
	if scorer == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("scorer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &sessionService{
		selector:     NewDueCardSelector(items, logger),
		items:        items,
		scorer:       scorer,
		sessionLimit: store.DefaultDueLimit,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "review_session_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession implements SessionService.StartSession.
func (s *sessionService) StartSession(ctx context.Context, userID string) ([]*domain.LearningItem, error) {
	items, err := s.selector.SelectDue(ctx, userID, s.now(), s.sessionLimit)
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("review session started",
		slog.String("user_id", userID),
		slog.Int("due_count", len(items)))
	return items, nil
}

// ApplyBatch implements SessionService.ApplyBatch.
// When the same item appears more than once the last update in the batch
// wins. Updates carrying an invalid card state are skipped like unknown items.
func (s *sessionService) ApplyBatch(ctx context.Context, updates []domain.ReviewUpdate) (result domain.SessionResult) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while applying review batch", slog.Any("panic", p))
			result = failed("failed to apply review batch: internal error")
		}
	}()

	if len(updates) == 0 {
		return domain.SessionResult{Success: true, Message: "no updates submitted"}
	}

	latest := make(map[uuid.UUID]domain.CardState, len(updates))
	ids := make([]uuid.UUID, 0, len(updates))
	for _, u := range updates {
		if err := u.Card.Validate(); err != nil {
			log.Warn("skipping invalid review update",
				slog.String("item_id", u.ItemID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if _, seen := latest[u.ItemID]; !seen {
			ids = append(ids, u.ItemID)
		}
		latest[u.ItemID] = u.Card
	}

	if len(ids) == 0 {
		return domain.SessionResult{
			Success: true,
			Message: fmt.Sprintf("applied 0 of %d updates", len(updates)),
		}
	}

	found, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to load items for review batch",
			redact.Attr(err),
			slog.Int("item_count", len(ids)))
		return failed("failed to load review items: " + redact.Error(err))
	}

	mutated := make([]*domain.LearningItem, 0, len(found))
	for _, item := range found {
		card, ok := latest[item.ID]
		if !ok {
			continue
		}
		previous := item.ReplaceCard(card)
		log.Debug("card state replaced",
			slog.String("item_id", item.ID.String()),
			slog.String("from_state", string(previous.State)),
			slog.String("to_state", string(card.State)),
			slog.Int("reps", card.Reps))
		mutated = append(mutated, item)
	}

	if len(mutated) > 0 {
		if err := s.items.SaveAll(ctx, mutated); err != nil {
			log.Error("failed to persist review batch",
				redact.Attr(err),
				slog.Int("item_count", len(mutated)))
			return failed("failed to save review results: " + redact.Error(err))
		}
	}

	log.Info("review batch applied",
		slog.Int("submitted", len(updates)),
		slog.Int("applied", len(mutated)))
	return domain.SessionResult{
		Success:      true,
		AppliedCount: len(mutated),
		Message:      fmt.Sprintf("applied %d of %d updates", len(mutated), len(updates)),
	}
}

// PreviewScore implements SessionService.PreviewScore.
func (s *sessionService) PreviewScore(ctx context.Context, req ScoreRequest) (domain.CardState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateRating(req.Rating); err != nil {
		return domain.CardState{}, err
	}

	var card domain.CardState
	switch {
	case req.ItemID != nil:
		item, err := s.items.GetByID(ctx, *req.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return domain.CardState{}, err
			}
			log.Error("failed to load item for scoring",
				redact.Attr(err),
				slog.String("item_id", req.ItemID.String()))
			return domain.CardState{}, storeUnavailable("preview_score", err)
		}
		card = item.Card
	case req.Card != nil:
		if err := req.Card.Validate(); err != nil {
			return domain.CardState{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		card = *req.Card
	default:
		return domain.CardState{}, ErrNoCardToScore
	}

	reviewTime := req.ReviewTime
	if reviewTime.IsZero() {
		reviewTime = s.now()
	}

	next, err := s.scorer.Score(ctx, card, req.Rating, reviewTime.UTC())
	if err != nil {
		log.Warn("scoring failed",
			redact.Attr(err),
			slog.String("rating", req.Rating.String()))
		return domain.CardState{}, err
	}
	return next, nil
}

func failed(message string) domain.SessionResult {
	return domain.SessionResult{Success: false, AppliedCount: 0, Message: message}
}
