package dynamodb

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
)

// timeLayout has a fixed nine-digit fraction so that sort keys built from
// UTC times compare lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	keySeparator = "#"
	// keyCeiling sorts after every character used in a formatted time or UUID.
	keyCeiling   = "~"
	markerPrefix = "text" + keySeparator
)

// itemRecord is the stored shape of a learning item.
type itemRecord struct {
	ID         string `dynamodbav:"id"`
	UserID     string `dynamodbav:"user_id"`
	DueKey     string `dynamodbav:"due_key"`
	CreatedKey string `dynamodbav:"created_key"`

	Text               string `dynamodbav:"text"`
	Definition         string `dynamodbav:"definition,omitempty"`
	Example            string `dynamodbav:"example,omitempty"`
	ExampleTranslation string `dynamodbav:"example_translation,omitempty"`
	RealLifeDefinition string `dynamodbav:"real_life_definition,omitempty"`
	SurroundingText    string `dynamodbav:"surrounding_text,omitempty"`
	VideoTitle         string `dynamodbav:"video_title,omitempty"`
	CreatedAt          string `dynamodbav:"created_at"`

	Difficulty *float64 `dynamodbav:"difficulty,omitempty"`
	Stability  *float64 `dynamodbav:"stability,omitempty"`
	DueAt      string   `dynamodbav:"due_at"`
	State      string   `dynamodbav:"state"`
	LastReview *string  `dynamodbav:"last_review,omitempty"`
	Reps       int      `dynamodbav:"reps"`
	UpdatedAt  string   `dynamodbav:"updated_at"`
}

// markerRecord reserves a (user, text) pair.
type markerRecord struct {
	ID     string `dynamodbav:"id"`
	ItemID string `dynamodbav:"item_id"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func dueKey(item *domain.LearningItem) string {
	return strings.Join([]string{
		formatTime(item.Card.DueAt),
		formatTime(item.CreatedAt),
		item.ID.String(),
	}, keySeparator)
}

func createdKey(item *domain.LearningItem) string {
	return formatTime(item.CreatedAt) + keySeparator + item.ID.String()
}

// dueBound is the largest due key of an item due at now.
func dueBound(now time.Time) string {
	return formatTime(now) + keySeparator + keyCeiling
}

func markerID(userID, text string) string {
	return markerPrefix + userID + keySeparator + text
}

func toRecord(item *domain.LearningItem, updatedAt time.Time) itemRecord {
	rec := itemRecord{
		ID:                 item.ID.String(),
		UserID:             item.UserID,
		DueKey:             dueKey(item),
		CreatedKey:         createdKey(item),
		Text:               item.Content.Text,
		Definition:         item.Content.Definition,
		Example:            item.Content.Example,
		ExampleTranslation: item.Content.ExampleTranslation,
		RealLifeDefinition: item.Content.RealLifeDefinition,
		SurroundingText:    item.Content.SurroundingText,
		VideoTitle:         item.Content.VideoTitle,
		CreatedAt:          formatTime(item.CreatedAt),
		Difficulty:         item.Card.Difficulty,
		Stability:          item.Card.Stability,
		DueAt:              formatTime(item.Card.DueAt),
		State:              string(item.Card.State),
		Reps:               item.Card.Reps,
		UpdatedAt:          formatTime(updatedAt),
	}
	if item.Card.LastReview != nil {
		lr := formatTime(*item.Card.LastReview)
		rec.LastReview = &lr
	}
	return rec
}

func fromRecord(rec itemRecord) (*domain.LearningItem, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}

	item := &domain.LearningItem{
		ID:     id,
		UserID: rec.UserID,
		Content: domain.ItemContent{
			Text:               rec.Text,
			Definition:         rec.Definition,
			Example:            rec.Example,
			ExampleTranslation: rec.ExampleTranslation,
			RealLifeDefinition: rec.RealLifeDefinition,
			SurroundingText:    rec.SurroundingText,
			VideoTitle:         rec.VideoTitle,
		},
		Card: domain.CardState{
			Difficulty: rec.Difficulty,
			Stability:  rec.Stability,
			State:      domain.CardStatus(rec.State),
			Reps:       rec.Reps,
		},
	}

	if item.CreatedAt, err = parseTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if item.Card.DueAt, err = parseTime(rec.DueAt); err != nil {
		return nil, fmt.Errorf("due_at: %w", err)
	}
	if rec.LastReview != nil {
		lr, err := parseTime(*rec.LastReview)
		if err != nil {
			return nil, fmt.Errorf("last_review: %w", err)
		}
		item.Card.LastReview = &lr
	}
	return item, nil
}
