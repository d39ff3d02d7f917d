package fsrs

import (
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/vocab-review/internal/domain"
)

// wireCard is the card shape exchanged with the scoring service in both directions.
// Absent values are sent as JSON null, never as empty strings.
type wireCard struct {
	Difficulty *float64 `json:"difficulty"`
	Stability  *float64 `json:"stability"`
	Due        *string  `json:"due"`
	State      string   `json:"state"`
	LastReview *string  `json:"last_review"`
	Step       *int     `json:"step"`
}

type reviewRequest struct {
	Card       wireCard `json:"card"`
	Rating     int      `json:"rating"`
	ReviewTime string   `json:"review_time"`
}

// naiveLayouts are accepted for timestamps that carry no zone; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func toWire(card domain.CardState) wireCard {
	due := formatTime(card.DueAt)
	step := card.Reps

	w := wireCard{
		Difficulty: card.Difficulty,
		Stability:  card.Stability,
		Due:        &due,
		State:      string(card.State),
		Step:       &step,
	}
	if card.LastReview != nil {
		lr := formatTime(*card.LastReview)
		w.LastReview = &lr
	}
	return w
}

// fromWire builds the post-review card state. The service does not track a
// review count, so reps is derived from the state that was submitted.
func fromWire(w wireCard, prev domain.CardState) (domain.CardState, error) {
	if w.Due == nil {
		return domain.CardState{}, fmt.Errorf("response card has no due time")
	}
	if w.LastReview == nil {
		return domain.CardState{}, fmt.Errorf("response card has no last review time")
	}

	due, err := parseTime(*w.Due)
	if err != nil {
		return domain.CardState{}, fmt.Errorf("response due time: %w", err)
	}
	lastReview, err := parseTime(*w.LastReview)
	if err != nil {
		return domain.CardState{}, fmt.Errorf("response last review time: %w", err)
	}
	state, err := domain.ParseCardStatus(strings.TrimSpace(w.State))
	if err != nil {
		return domain.CardState{}, fmt.Errorf("response state: %w", err)
	}

	card := domain.CardState{
		Difficulty: w.Difficulty,
		Stability:  w.Stability,
		DueAt:      due,
		State:      state,
		LastReview: &lastReview,
		Reps:       prev.Reps + 1,
	}
	if err := card.Validate(); err != nil {
		return domain.CardState{}, fmt.Errorf("response card: %w", err)
	}
	return card, nil
}
