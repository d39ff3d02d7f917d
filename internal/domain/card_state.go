package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CardStatus is the learning phase of a card.
type CardStatus string

// Possible card status values. A never-reviewed card is LEARNING with zero reps.
const (
	CardStatusLearning   CardStatus = "LEARNING"
	CardStatusReview     CardStatus = "REVIEW"
	CardStatusRelearning CardStatus = "RELEARNING"
)

// Card state validation errors
var (
	// ErrInvalidCardStatus is returned when a status is not one of the known values.
	ErrInvalidCardStatus = errors.New("invalid card status")

	// ErrNegativeReps is returned when the repetition count is below zero.
	ErrNegativeReps = errors.New("reps must be greater than or equal to 0")

	// ErrLastReviewMismatch is returned when lastReview is set without reps or vice versa.
	ErrLastReviewMismatch = errors.New("last review must be set if and only if reps > 0")

	// ErrDueAtMissing is returned when the due time is the zero value.
	ErrDueAtMissing = errors.New("due time must be set")
)

// ParseCardStatus converts a status name into a CardStatus.
// Matching is case-insensitive so that "Review" and "REVIEW" are equivalent.
func ParseCardStatus(s string) (CardStatus, error) {
	status := CardStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardStatus, s)
	}
	return status, nil
}

// IsValid reports whether s is one of the known card statuses.
func (s CardStatus) IsValid() bool {
	switch s {
	case CardStatusLearning, CardStatusReview, CardStatusRelearning:
		return true
	default:
		return false
	}
}

// CardState is the scheduling record embedded in every learning item.
// Difficulty and Stability stay nil until the first review.
type CardState struct {
	Difficulty *float64   `json:"difficulty"`
	Stability  *float64   `json:"stability"`
	DueAt      time.Time  `json:"due_at"`
	State      CardStatus `json:"state"`
	LastReview *time.Time `json:"last_review"`
	Reps       int        `json:"reps"`
}

// NewCardState returns the scheduling state of a freshly created item,
// which is due immediately.
func NewCardState(now time.Time) CardState {
	return CardState{
		DueAt: now.UTC(),
		State: CardStatusLearning,
		Reps:  0,
	}
}

// Validate checks the card state invariants.
// State transition legality is not checked here; that belongs to the scoring function.
func (c CardState) Validate() error {
	if !c.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCardStatus, c.State)
	}

	if c.Reps < 0 {
		return ErrNegativeReps
	}

	if (c.LastReview != nil) != (c.Reps > 0) {
		return ErrLastReviewMismatch
	}

	if c.DueAt.IsZero() {
		return ErrDueAtMissing
	}

	return nil
}

// IsNew reports whether the card has never been reviewed.
func (c CardState) IsNew() bool {
	return c.Reps == 0 && c.LastReview == nil
}

// IsDue reports whether the card is eligible for review at the given time.
func (c CardState) IsDue(now time.Time) bool {
	return !c.DueAt.After(now)
}

// Clone returns a deep copy so that callers never share the optional fields.
func (c CardState) Clone() CardState {
	clone := c
	if c.Difficulty != nil {
		d := *c.Difficulty
		clone.Difficulty = &d
	}
	if c.Stability != nil {
		s := *c.Stability
		clone.Stability = &s
	}
	if c.LastReview != nil {
		lr := *c.LastReview
		clone.LastReview = &lr
	}
	return clone
}
