package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-review/internal/api/shared"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/service/review"
)

// ReviewHandler handles review sessions and scoring previews.
type ReviewHandler struct {
	sessions review.SessionService
	logger   *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(sessions review.SessionService, logger *slog.Logger) *ReviewHandler {
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "review_handler")),
	}
}

// StartSession handles POST /api/users/{userID}/review-sessions.
// The response lists the due items; nothing is stored on the server.
func (h *ReviewHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	due, err := h.sessions.StartSession(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start review session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toItemList(due))
}

// SaveSession handles POST /api/review-sessions/results.
// The session result is the definitive outcome of the batch, so it is
// returned with 200 even when Success is false.
func (h *ReviewHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SaveSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, invalidBody(err), "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	updates := make([]domain.ReviewUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = domain.ReviewUpdate{ItemID: u.ItemID, Card: u.toDomain()}
	}

	result := h.sessions.ApplyBatch(r.Context(), updates)
	if !result.Success {
		log.Warn("review session not saved", slog.String("message", result.Message))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Score handles POST /api/reviews/score.
func (h *ReviewHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, invalidBody(err), "")
		return
	}

	scoreReq := review.ScoreRequest{
		ItemID: req.ItemID,
		Rating: domain.Rating(req.Rating),
	}
	if req.Card != nil {
		card := req.Card.toDomain()
		scoreReq.Card = &card
	}
	if req.ReviewTime != nil {
		scoreReq.ReviewTime = req.ReviewTime.UTC()
	}

	next, err := h.sessions.PreviewScore(r.Context(), scoreReq)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to score review")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ScoreResponse{Card: toCardPayload(next)})
}

// invalidBody marks a decode failure as a validation error.
func invalidBody(err error) error {
	if errors.Is(err, shared.ErrEmptyBody) {
		return err
	}
	return fmt.Errorf("%w: malformed JSON body: %w", domain.ErrValidation, err)
}
