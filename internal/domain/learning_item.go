package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Learning item validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is nil.
	ErrItemIDEmpty = errors.New("learning item ID cannot be empty")

	// ErrItemUserIDEmpty is returned when an item has no owner.
	ErrItemUserIDEmpty = errors.New("learning item user ID cannot be empty")

	// ErrItemTextEmpty is returned when an item has no text to review.
	ErrItemTextEmpty = errors.New("learning item text cannot be empty")
)

// ItemContent holds the reviewable content of a learning item.
// It is immutable once the item is created.
type ItemContent struct {
	Text               string `json:"text"`
	Definition         string `json:"definition"`
	Example            string `json:"example"`
	ExampleTranslation string `json:"example_translation"`
	RealLifeDefinition string `json:"real_life_definition"`
	SurroundingText    string `json:"surrounding_text"`
	VideoTitle         string `json:"video_title"`
}

// LearningItem is a word, phrase, or sentence owned by a single user.
// It holds exactly one CardState, which is only replaced by applying a review outcome.
type LearningItem struct {
	ID        uuid.UUID   `json:"id"`
	UserID    string      `json:"user_id"`
	Content   ItemContent `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Card      CardState   `json:"card"`
}

// NewLearningItem creates a learning item with a fresh card state that is due now.
// Returns an error if validation fails.
func NewLearningItem(userID string, content ItemContent, now time.Time) (*LearningItem, error) {
	now = now.UTC()
	content.Text = strings.TrimSpace(content.Text)

	item := &LearningItem{
		ID:        uuid.New(),
		UserID:    strings.TrimSpace(userID),
		Content:   content,
		CreatedAt: now,
		Card:      NewCardState(now),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the LearningItem and its card state hold valid data.
func (i *LearningItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.UserID == "" {
		return ErrItemUserIDEmpty
	}

	if i.Content.Text == "" {
		return ErrItemTextEmpty
	}

	return i.Card.Validate()
}

// ReplaceCard swaps in a new card state wholesale.
// The previous state is returned untouched so callers can log the transition.
func (i *LearningItem) ReplaceCard(card CardState) CardState {
	previous := i.Card
	i.Card = card.Clone()
	return previous
}
