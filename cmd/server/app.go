package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-review/internal/api"
	"github.com/phrazzld/vocab-review/internal/config"
	"github.com/phrazzld/vocab-review/internal/platform/dynamodb"
	"github.com/phrazzld/vocab-review/internal/platform/fsrs"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/platform/postgres"
	"github.com/phrazzld/vocab-review/internal/platform/sqlite"
	"github.com/phrazzld/vocab-review/internal/scoring"
	"github.com/phrazzld/vocab-review/internal/service/items"
	"github.com/phrazzld/vocab-review/internal/service/review"
	"github.com/phrazzld/vocab-review/internal/store"
)

// application holds the wired dependencies of a running server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	items    store.LearningItemStore
	scorer   scoring.Scorer
	sessions review.SessionService
	itemSvc  items.ItemService
	closers  []func() error
}

// setup loads configuration and configures the process-wide logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("store_driver", cfg.Store.Driver))
	return cfg, log, nil
}

// newApplication opens the configured store and wires the services on top of it.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: log}

	itemStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.items = itemStore
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}

	scorer, err := fsrs.NewClient(log, cfg.Scoring)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize scoring client: %w", err)
	}
	app.scorer = scorer

	app.wireServices()
	return app, nil
}

func (app *application) wireServices() {
	app.itemSvc = items.NewItemService(app.items, app.logger)
	app.sessions = review.NewSessionService(
		app.items,
		app.scorer,
		app.logger,
		review.WithSessionLimit(app.config.Review.SessionLimit),
	)
}

// openStore returns the learning item store for cfg.Store.Driver together
// with a function releasing its resources (nil when there are none).
func openStore(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
) (store.LearningItemStore, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return postgres.NewPostgresLearningItemStore(db, log), db.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return sqlite.NewSQLiteLearningItemStore(db, log), db.Close, nil

	case config.DriverDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		return dynamodb.NewDynamoLearningItemStore(client, cfg.DynamoDB, log), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// router builds the HTTP handler for the wired services.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Items:              app.itemSvc,
		Sessions:           app.sessions,
		Logger:             app.logger,
		CORSAllowedOrigins: app.config.Server.CORSAllowedOrigins,
	})
}

// cleanup releases store resources. It is safe to call more than once.
func (app *application) cleanup() {
	var errs []error
	for _, c := range app.closers {
		errs = append(errs, c())
	}
	app.closers = nil

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("failed to release resources", slog.String("error", err.Error()))
	}
}
