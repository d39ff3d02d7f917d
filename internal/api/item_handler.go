package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-review/internal/api/shared"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/service/items"
)

// ItemHandler handles learning item intake and lookup.
type ItemHandler struct {
	items  items.ItemService
	logger *slog.Logger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(svc items.ItemService, logger *slog.Logger) *ItemHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("item service cannot be nil for ItemHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ItemHandler")
	}
	return &ItemHandler{
		items:  svc,
		logger: logger.With(slog.String("component", "item_handler")),
	}
}

// CreateItem handles POST /api/items.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, invalidBody(err), "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.items.CreateItem(r.Context(), items.NewItemInput{
		UserID: req.UserID,
		Content: domain.ItemContent{
			Text:               req.Text,
			Definition:         req.Definition,
			Example:            req.Example,
			ExampleTranslation: req.ExampleTranslation,
			RealLifeDefinition: req.RealLifeDefinition,
			SurroundingText:    req.SurroundingText,
			VideoTitle:         req.VideoTitle,
		},
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save learning item")
		return
	}

	log.Debug("learning item saved", slog.String("item_id", item.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, toItemResponse(item))
}

// GetItem handles GET /api/items/{id}.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.items.GetItem(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load learning item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toItemResponse(item))
}

// ListItems handles GET /api/users/{userID}/items.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := getQueryInt(r, "limit", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := getQueryInt(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	list, err := h.items.ListItems(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list learning items")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toItemList(list))
}
