package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
)

// CardPayload is the JSON form of a card state. Absent values are null.
type CardPayload struct {
	Difficulty *float64   `json:"difficulty"`
	Stability  *float64   `json:"stability"`
	DueAt      time.Time  `json:"due_at"`
	State      string     `json:"state"       validate:"required"`
	LastReview *time.Time `json:"last_review"`
	Reps       int        `json:"reps"`
}

// CreateItemRequest is the payload for POST /api/items.
type CreateItemRequest struct {
	UserID             string `json:"user_id"              validate:"required,max=255"`
	Text               string `json:"text"                 validate:"required,max=2000"`
	Definition         string `json:"definition"`
	Example            string `json:"example"`
	ExampleTranslation string `json:"example_translation"`
	RealLifeDefinition string `json:"real_life_definition"`
	SurroundingText    string `json:"surrounding_text"`
	VideoTitle         string `json:"video_title"`
}

// ItemResponse is the JSON form of a learning item.
type ItemResponse struct {
	ID                 uuid.UUID   `json:"id"`
	UserID             string      `json:"user_id"`
	Text               string      `json:"text"`
	Definition         string      `json:"definition"`
	Example            string      `json:"example"`
	ExampleTranslation string      `json:"example_translation"`
	RealLifeDefinition string      `json:"real_life_definition"`
	SurroundingText    string      `json:"surrounding_text"`
	VideoTitle         string      `json:"video_title"`
	CreatedAt          time.Time   `json:"created_at"`
	Card               CardPayload `json:"card"`
}

// ItemListResponse wraps a list of items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

// ReviewUpdateRequest is one flat review update: the item ID plus its full
// replacement card state.
type ReviewUpdateRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	CardPayload
}

// SaveSessionRequest is the payload for POST /api/review-sessions/results.
type SaveSessionRequest struct {
	Updates []ReviewUpdateRequest `json:"updates" validate:"dive"`
}

// ScoreRequest is the payload for POST /api/reviews/score.
type ScoreRequest struct {
	ItemID     *uuid.UUID   `json:"item_id"`
	Card       *CardPayload `json:"card"`
	Rating     int          `json:"rating"`
	ReviewTime *time.Time   `json:"review_time"`
}

// ScoreResponse carries the next card state from the scoring function.
type ScoreResponse struct {
	Card CardPayload `json:"card"`
}

func toCardPayload(c domain.CardState) CardPayload {
	return CardPayload{
		Difficulty: c.Difficulty,
		Stability:  c.Stability,
		DueAt:      c.DueAt.UTC(),
		State:      string(c.State),
		LastReview: c.LastReview,
		Reps:       c.Reps,
	}
}

// toDomain keeps an unrecognised state verbatim so that card validation
// reports it.
func (p CardPayload) toDomain() domain.CardState {
	state, err := domain.ParseCardStatus(p.State)
	if err != nil {
		state = domain.CardStatus(p.State)
	}
	card := domain.CardState{
		Difficulty: p.Difficulty,
		Stability:  p.Stability,
		DueAt:      p.DueAt.UTC(),
		State:      state,
		Reps:       p.Reps,
	}
	if p.LastReview != nil {
		lr := p.LastReview.UTC()
		card.LastReview = &lr
	}
	return card
}

func toItemResponse(item *domain.LearningItem) ItemResponse {
	return ItemResponse{
		ID:                 item.ID,
		UserID:             item.UserID,
		Text:               item.Content.Text,
		Definition:         item.Content.Definition,
		Example:            item.Content.Example,
		ExampleTranslation: item.Content.ExampleTranslation,
		RealLifeDefinition: item.Content.RealLifeDefinition,
		SurroundingText:    item.Content.SurroundingText,
		VideoTitle:         item.Content.VideoTitle,
		CreatedAt:          item.CreatedAt.UTC(),
		Card:               toCardPayload(item.Card),
	}
}

func toItemList(items []*domain.LearningItem) ItemListResponse {
	resp := ItemListResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	return resp
}
