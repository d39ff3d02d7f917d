package fsrs_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/vocab-review/internal/config"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/fsrs"
	"github.com/phrazzld/vocab-review/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewTime = time.Date(2025, 1, 18, 14, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, baseURL string, readTimeout time.Duration) *fsrs.Client {
	t.Helper()
	c, err := fsrs.NewClient(testLogger(), config.ScoringConfig{
		BaseURL:        baseURL,
		ConnectTimeout: time.Second,
		ReadTimeout:    readTimeout,
	})
	require.NoError(t, err)
	return c
}

func freshCard() domain.CardState {
	return domain.NewCardState(time.Date(2025, 1, 18, 10, 30, 0, 0, time.UTC))
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := fsrs.NewClient(nil, config.ScoringConfig{BaseURL: "http://localhost:6000", ConnectTimeout: time.Second, ReadTimeout: time.Second})
	assert.Error(t, err, "nil logger should be rejected")

	_, err = fsrs.NewClient(testLogger(), config.ScoringConfig{BaseURL: "localhost", ConnectTimeout: time.Second, ReadTimeout: time.Second})
	assert.Error(t, err, "base URL without scheme should be rejected")

	_, err = fsrs.NewClient(testLogger(), config.ScoringConfig{BaseURL: "http://localhost:6000"})
	assert.Error(t, err, "zero timeouts should be rejected")
}

func TestScore_SendsWireRequestAndMapsResponse(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/review", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"difficulty": 2.118,
			"stability": 3.173,
			"state": "Review",
			"due": "2025-01-21T14:00:00.123456+00:00",
			"last_review": "2025-01-18T14:00:00+00:00",
			"step": null
		}`)
	}))
	defer srv.Close()

	next, err := newClient(t, srv.URL+"/", time.Second).Score(context.Background(), freshCard(), domain.RatingGood, reviewTime)
	require.NoError(t, err)

	card, ok := got["card"].(map[string]any)
	require.True(t, ok, "request should carry a card object")
	assert.Nil(t, card["difficulty"])
	assert.Nil(t, card["stability"])
	assert.Nil(t, card["last_review"])
	assert.Equal(t, "2025-01-18T10:30:00Z", card["due"])
	assert.Equal(t, "LEARNING", card["state"])
	assert.EqualValues(t, 0, card["step"])
	assert.EqualValues(t, 3, got["rating"])
	assert.Equal(t, "2025-01-18T14:00:00Z", got["review_time"])

	assert.Equal(t, domain.CardStatusReview, next.State)
	assert.Equal(t, 1, next.Reps)
	require.NotNil(t, next.Difficulty)
	assert.InDelta(t, 2.118, *next.Difficulty, 1e-9)
	require.NotNil(t, next.Stability)
	assert.InDelta(t, 3.173, *next.Stability, 1e-9)
	assert.True(t, next.DueAt.Equal(time.Date(2025, 1, 21, 14, 0, 0, 123456000, time.UTC)))
	require.NotNil(t, next.LastReview)
	assert.True(t, next.LastReview.Equal(reviewTime))
}

func TestScore_AgainOnReviewCardRelearns(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Card struct {
				State string `json:"state"`
				Step  int    `json:"step"`
			} `json:"card"`
			Rating int `json:"rating"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "REVIEW", req.Card.State)
		assert.Equal(t, 3, req.Card.Step)
		assert.Equal(t, 1, req.Rating)

		_, _ = io.WriteString(w, `{"difficulty":7.1,"stability":0.9,"state":"Relearning",`+
			`"due":"2025-01-18T14:10:00","last_review":"2025-01-18T14:00:00","step":0}`)
	}))
	defer srv.Close()

	last := reviewTime.Add(-72 * time.Hour)
	d, s := 5.0, 2.5
	card := domain.CardState{
		Difficulty: &d,
		Stability:  &s,
		DueAt:      reviewTime.Add(-time.Hour),
		State:      domain.CardStatusReview,
		LastReview: &last,
		Reps:       3,
	}

	next, err := newClient(t, srv.URL, time.Second).Score(context.Background(), card, domain.RatingAgain, reviewTime)
	require.NoError(t, err)

	assert.Equal(t, domain.CardStatusRelearning, next.State)
	assert.Equal(t, 4, next.Reps)
	assert.Equal(t, time.UTC, next.DueAt.Location(), "naive timestamps are read as UTC")
	assert.True(t, next.DueAt.Equal(reviewTime.Add(10*time.Minute)))
}

func TestScore_InvalidRatingNeverCallsService(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL, time.Second)
	for _, rating := range []domain.Rating{0, 5, -1} {
		_, err := client.Score(context.Background(), freshCard(), rating, reviewTime)
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	}
	assert.Zero(t, calls.Load())
}

func TestScore_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid rating"}`)
			},
			wantErr: scoring.ErrGatewayRejected,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: scoring.ErrGatewayRejected,
		},
		{
			name: "malformed JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"state":`)
			},
			wantErr: scoring.ErrGatewayRejected,
		},
		{
			name: "missing last review",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"state":"Review","due":"2025-01-21T14:00:00Z","last_review":null}`)
			},
			wantErr: scoring.ErrGatewayRejected,
		},
		{
			name: "unknown state",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"state":"New","due":"2025-01-21T14:00:00Z","last_review":"2025-01-18T14:00:00Z"}`)
			},
			wantErr: scoring.ErrGatewayRejected,
		},
		{
			name: "slow response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			wantErr: scoring.ErrGatewayTimeout,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newClient(t, srv.URL, 100*time.Millisecond).Score(context.Background(), freshCard(), domain.RatingGood, reviewTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScore_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, time.Second).Score(context.Background(), freshCard(), domain.RatingGood, reviewTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, scoring.ErrGatewayUnavailable)
	assert.False(t, errors.Is(err, scoring.ErrGatewayTimeout))
}
