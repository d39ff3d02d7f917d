// Package review selects due learning items and applies batches of review
// outcomes to them.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
)

// DueCardSelector picks the items a user should review next.
type DueCardSelector interface {
	// SelectDue returns the user's items due at or before now, earliest due
	// first, with creation time and then item ID breaking ties. At most limit
	// items are returned; limit <= 0 means store.DefaultDueLimit.
	//
	// Returns an empty slice when nothing is due. Store failures are returned
	// as a *ServiceError wrapping ErrStoreUnavailable.
	SelectDue(ctx context.Context, userID string, now time.Time, limit int) ([]*domain.LearningItem, error)
}

// SessionService opens and closes review sessions. Sessions hold no state on
// the server: the client keeps the working set between the two calls.
type SessionService interface {
	// StartSession returns the items due now for the user, capped at the
	// configured session limit.
	StartSession(ctx context.Context, userID string) ([]*domain.LearningItem, error)

	// ApplyBatch replaces the card state of every referenced item that exists
	// and persists them in one batched write. It never returns an error: store
	// failures are reported as a result with Success false and AppliedCount 0.
	ApplyBatch(ctx context.Context, updates []domain.ReviewUpdate) domain.SessionResult

	// PreviewScore asks the scoring function for the next card state of an
	// item (or of a bare card) without persisting anything.
	PreviewScore(ctx context.Context, req ScoreRequest) (domain.CardState, error)
}

// ScoreRequest names the card to score either by item ID or inline.
// ReviewTime defaults to now when zero.
type ScoreRequest struct {
	ItemID     *uuid.UUID
	Card       *domain.CardState
	Rating     domain.Rating
	ReviewTime time.Time
}

// Service errors
var (
	// ErrStoreUnavailable indicates a read or write against the item store failed.
	ErrStoreUnavailable = errors.New("item store unavailable")

	// ErrNoCardToScore indicates a score request named neither an item nor a card.
	ErrNoCardToScore = errors.New("score request needs an item ID or a card")
)

// ServiceError wraps errors from the review service with the failing operation.
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

func storeUnavailable(operation string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   "store read failed",
		Err:       fmt.Errorf("%w: %w", ErrStoreUnavailable, err),
	}
}
