package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/vocab-review/internal/api/middleware"
	"github.com/phrazzld/vocab-review/internal/service/items"
	"github.com/phrazzld/vocab-review/internal/service/review"
)

// requestTimeout bounds a whole request, including one scoring call.
const requestTimeout = 30 * time.Second

// RouterConfig holds the dependencies of the HTTP surface.
type RouterConfig struct {
	Items              items.ItemService
	Sessions           review.SessionService
	Logger             *slog.Logger
	CORSAllowedOrigins []string
}

// NewRouter builds the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	itemHandler := NewItemHandler(cfg.Items, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.Sessions, cfg.Logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.TraceHeader},
		ExposedHeaders: []string{middleware.TraceHeader},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/items", itemHandler.CreateItem)
		r.Get("/items/{id}", itemHandler.GetItem)
		r.Get("/users/{userID}/items", itemHandler.ListItems)

		r.Post("/users/{userID}/review-sessions", reviewHandler.StartSession)
		r.Post("/review-sessions/results", reviewHandler.SaveSession)
		r.Post("/reviews/score", reviewHandler.Score)
	})

	r.Get("/health", Health)

	return r
}
