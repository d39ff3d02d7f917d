package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/scoring"
	"github.com/phrazzld/vocab-review/internal/service/review"
	"github.com/phrazzld/vocab-review/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSession(t *testing.T) {
	due := []*domain.LearningItem{newItem(t, "first"), newItem(t, "second")}
	svc := &mockSessionService{
		startFn: func(_ context.Context, userID string) ([]*domain.LearningItem, error) {
			if userID == "broken" {
				return nil, &review.ServiceError{
					Operation: "select_due",
					Message:   "store read failed",
					Err:       fmt.Errorf("%w: connection refused", review.ErrStoreUnavailable),
				}
			}
			if userID == "idle" {
				return []*domain.LearningItem{}, nil
			}
			return due, nil
		},
	}
	router := newTestRouter(nil, svc)

	w := doRequest(t, router, http.MethodPost, "/api/users/user-1/review-sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[ItemListResponse](t, w)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, due[0].ID, resp.Items[0].ID, "order is preserved")

	w = doRequest(t, router, http.MethodPost, "/api/users/idle/review-sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/api/users/broken/review-sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestSaveSession(t *testing.T) {
	itemID := uuid.New()
	var got []domain.ReviewUpdate
	svc := &mockSessionService{
		applyFn: func(_ context.Context, updates []domain.ReviewUpdate) domain.SessionResult {
			got = updates
			return domain.SessionResult{Success: true, AppliedCount: len(updates), Message: "applied"}
		},
	}
	router := newTestRouter(nil, svc)

	body := fmt.Sprintf(`{"updates":[{
		"item_id":%q,
		"difficulty":6.1,
		"stability":0.4,
		"due_at":"2025-01-18T10:40:00Z",
		"state":"Relearning",
		"last_review":"2025-01-18T10:30:00+00:00",
		"reps":4
	}]}`, itemID)

	w := doRequest(t, router, http.MethodPost, "/api/review-sessions/results", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.SessionResult{Success: true, AppliedCount: 1, Message: "applied"},
		decodeBody[domain.SessionResult](t, w))

	require.Len(t, got, 1)
	assert.Equal(t, itemID, got[0].ItemID)
	assert.Equal(t, domain.CardStatusRelearning, got[0].Card.State)
	assert.Equal(t, 4, got[0].Card.Reps)
	assert.True(t, got[0].Card.DueAt.Equal(baseTime.Add(10*time.Minute)))
	require.NotNil(t, got[0].Card.LastReview)
	assert.True(t, got[0].Card.LastReview.Equal(baseTime))
}

func TestSaveSession_FailureIsStillOK(t *testing.T) {
	svc := &mockSessionService{
		applyFn: func(context.Context, []domain.ReviewUpdate) domain.SessionResult {
			return domain.SessionResult{Success: false, Message: "failed to save review results"}
		},
	}

	w := doRequest(t, newTestRouter(nil, svc), http.MethodPost, "/api/review-sessions/results", `{"updates":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody[domain.SessionResult](t, w)
	assert.False(t, result.Success)
	assert.Zero(t, result.AppliedCount)
}

func TestSaveSession_MalformedRequests(t *testing.T) {
	svc := &mockSessionService{
		applyFn: func(context.Context, []domain.ReviewUpdate) domain.SessionResult {
			t.Fatal("malformed requests must not reach the service")
			return domain.SessionResult{}
		},
	}
	router := newTestRouter(nil, svc)

	for name, body := range map[string]string{
		"empty body":      ``,
		"missing item id": `{"updates":[{"state":"REVIEW","due_at":"2025-01-18T10:40:00Z","reps":1}]}`,
		"missing state":   fmt.Sprintf(`{"updates":[{"item_id":%q,"reps":1}]}`, uuid.New()),
		"bad timestamp":   fmt.Sprintf(`{"updates":[{"item_id":%q,"state":"REVIEW","due_at":"tomorrow"}]}`, uuid.New()),
	} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/api/review-sessions/results", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestScore(t *testing.T) {
	itemID := uuid.New()
	last := baseTime
	next := domain.CardState{
		DueAt:      baseTime.Add(10 * time.Minute),
		State:      domain.CardStatusLearning,
		LastReview: &last,
		Reps:       1,
	}

	tests := []struct {
		name       string
		body       string
		previewErr error
		wantStatus int
	}{
		{name: "by item", body: fmt.Sprintf(`{"item_id":%q,"rating":3}`, itemID), wantStatus: http.StatusOK},
		{name: "invalid rating", body: fmt.Sprintf(`{"item_id":%q,"rating":0}`, itemID),
			previewErr: fmt.Errorf("%w: 0", domain.ErrInvalidRating), wantStatus: http.StatusBadRequest},
		{name: "unknown item", body: fmt.Sprintf(`{"item_id":%q,"rating":3}`, itemID),
			previewErr: store.ErrItemNotFound, wantStatus: http.StatusNotFound},
		{name: "gateway rejected", body: fmt.Sprintf(`{"item_id":%q,"rating":3}`, itemID),
			previewErr: fmt.Errorf("%w: status 500", scoring.ErrGatewayRejected), wantStatus: http.StatusBadGateway},
		{name: "gateway unavailable", body: fmt.Sprintf(`{"item_id":%q,"rating":3}`, itemID),
			previewErr: scoring.ErrGatewayUnavailable, wantStatus: http.StatusBadGateway},
		{name: "gateway timeout", body: fmt.Sprintf(`{"item_id":%q,"rating":3}`, itemID),
			previewErr: scoring.ErrGatewayTimeout, wantStatus: http.StatusGatewayTimeout},
		{name: "nothing to score", body: `{"rating":3}`,
			previewErr: review.ErrNoCardToScore, wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSessionService{
				previewFn: func(_ context.Context, req review.ScoreRequest) (domain.CardState, error) {
					if tc.previewErr != nil {
						return domain.CardState{}, tc.previewErr
					}
					assert.Equal(t, itemID, *req.ItemID)
					assert.Equal(t, domain.RatingGood, req.Rating)
					return next, nil
				},
			}

			w := doRequest(t, newTestRouter(nil, svc), http.MethodPost, "/api/reviews/score", tc.body)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			if tc.wantStatus == http.StatusOK {
				resp := decodeBody[ScoreResponse](t, w)
				assert.Equal(t, "LEARNING", resp.Card.State)
				assert.Equal(t, 1, resp.Card.Reps)
			}
		})
	}
}

func TestScore_InlineCard(t *testing.T) {
	reviewTime := baseTime.Add(time.Hour)
	svc := &mockSessionService{
		previewFn: func(_ context.Context, req review.ScoreRequest) (domain.CardState, error) {
			require.NotNil(t, req.Card)
			assert.Nil(t, req.ItemID)
			assert.Equal(t, domain.CardStatusReview, req.Card.State)
			assert.True(t, req.ReviewTime.Equal(reviewTime))
			return *req.Card, nil
		},
	}

	body := `{"card":{"difficulty":5,"stability":10,"due_at":"2025-01-18T10:30:00Z","state":"review",` +
		`"last_review":"2025-01-08T10:30:00Z","reps":2},"rating":1,"review_time":"2025-01-18T11:30:00Z"}`
	w := doRequest(t, newTestRouter(nil, svc), http.MethodPost, "/api/reviews/score", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
