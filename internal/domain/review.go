package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Rating is the user's self-assessed recall quality for one review.
type Rating int

// Rating values understood by the scoring function.
const (
	RatingAgain Rating = 1
	RatingHard  Rating = 2
	RatingGood  Rating = 3
	RatingEasy  Rating = 4
)

var ratingNames = map[Rating]string{
	RatingAgain: "again",
	RatingHard:  "hard",
	RatingGood:  "good",
	RatingEasy:  "easy",
}

// IsValid reports whether r is between Again and Easy.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// String returns the lowercase rating name, or "rating(n)" for unknown values.
func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// ValidateRating returns ErrInvalidRating when r is outside 1..4.
func ValidateRating(r Rating) error {
	if !r.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return nil
}

// ReviewUpdate is the full replacement card state for one item,
// produced by the client after consulting the scoring function.
type ReviewUpdate struct {
	ItemID uuid.UUID `json:"item_id"`
	Card   CardState `json:"card"`
}

// SessionResult is the definitive outcome of saving a review session.
type SessionResult struct {
	Success      bool   `json:"success"`
	AppliedCount int    `json:"applied_count"`
	Message      string `json:"message"`
}
