package scoring

import (
	"context"
	"time"

	"github.com/phrazzld/vocab-review/internal/domain"
)

// Scorer computes the next card state for one review.
//
// Implementations must reject an invalid rating with domain.ErrInvalidRating
// before contacting the scoring function, and must never return a card state
// they did not receive from it.
type Scorer interface {
	Score(ctx context.Context, card domain.CardState, rating domain.Rating, reviewTime time.Time) (domain.CardState, error)
}
