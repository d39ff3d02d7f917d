package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/vocab-review/internal/api/shared"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/scoring"
	"github.com/phrazzld/vocab-review/internal/service/review"
	"github.com/phrazzld/vocab-review/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.As(err, &verrs),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, review.ErrNoCardToScore):
		return http.StatusBadRequest

	case errors.Is(err, scoring.ErrGatewayTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, scoring.ErrGatewayUnavailable),
		errors.Is(err, scoring.ErrGatewayRejected):
		return http.StatusBadGateway

	case errors.Is(err, review.ErrStoreUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrItemNotFound):
		return "Learning item not found"
	case errors.Is(err, store.ErrDuplicateItem):
		return "This text is already saved"
	case errors.As(err, &verrs):
		return SanitizeValidationError(verrs)
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, domain.ErrInvalidRating):
		return "Rating must be between 1 (again) and 4 (easy)"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	case errors.Is(err, review.ErrNoCardToScore):
		return "Either item_id or card is required"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid learning item data"
	case errors.Is(err, scoring.ErrGatewayTimeout):
		return "Scoring service timed out"
	case errors.Is(err, scoring.ErrGatewayUnavailable):
		return "Scoring service unavailable"
	case errors.Is(err, scoring.ErrGatewayRejected):
		return "Scoring service rejected the request"
	case errors.Is(err, review.ErrStoreUnavailable):
		return "Storage temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err.
// defaultMsg replaces the generic message for 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError describes the first failing field of a validation
// error without echoing the submitted value.
func SanitizeValidationError(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte", "lte":
		return "out of range"
	default:
		return "validation failed"
	}
}
