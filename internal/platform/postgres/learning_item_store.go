package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/store"
)

const itemEntity = "learning_item"

const itemColumns = `id, user_id, text, definition, example, example_translation,
	real_life_definition, surrounding_text, video_title, created_at,
	difficulty, stability, due_at, state, last_review, reps`

const upsertItemQuery = `
	INSERT INTO learning_items (` + itemColumns + `, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
	ON CONFLICT (id) DO UPDATE SET
		difficulty = EXCLUDED.difficulty,
		stability = EXCLUDED.stability,
		due_at = EXCLUDED.due_at,
		state = EXCLUDED.state,
		last_review = EXCLUDED.last_review,
		reps = EXCLUDED.reps,
		updated_at = NOW()
`

// PostgresLearningItemStore implements the store.LearningItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLearningItemStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresLearningItemStore creates a new PostgreSQL implementation of the
// LearningItemStore interface. The connection is owned by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresLearningItemStore(db *sql.DB, logger *slog.Logger) *PostgresLearningItemStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLearningItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "learning_item_store")),
	}
}

// Ensure PostgresLearningItemStore implements store.LearningItemStore interface
var _ store.LearningItemStore = (*PostgresLearningItemStore)(nil)

// Create implements store.LearningItemStore.Create.
func (s *PostgresLearningItemStore) Create(ctx context.Context, item *domain.LearningItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("learning item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `INSERT INTO learning_items (` + itemColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())`

	if _, err := s.db.ExecContext(ctx, query, itemArgs(item)...); err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
			log.Debug("duplicate learning item",
				slog.String("user_id", item.UserID),
				slog.String("item_id", item.ID.String()))
			return mapped
		}
		log.Error("failed to create learning item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return store.NewStoreError(itemEntity, "create", "insert failed", mapped)
	}

	log.Info("learning item created",
		slog.String("item_id", item.ID.String()),
		slog.String("user_id", item.UserID))
	return nil
}

// GetByID implements store.LearningItemStore.GetByID.
func (s *PostgresLearningItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + itemColumns + ` FROM learning_items WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			log.Debug("learning item not found", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get learning item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, store.NewStoreError(itemEntity, "get_by_id", "query failed", MapError(err))
	}
	return item, nil
}

// ListByUser implements store.LearningItemStore.ListByUser.
func (s *PostgresLearningItemStore) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.LearningItem, error) {
	limit = store.NormalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + itemColumns + ` FROM learning_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	return s.queryItems(ctx, "list_by_user", query, userID, limit, offset)
}

// FindDue implements store.LearningItemStore.FindDue.
func (s *PostgresLearningItemStore) FindDue(
	ctx context.Context,
	userID string,
	now time.Time,
	limit int,
) ([]*domain.LearningItem, error) {
	query := `SELECT ` + itemColumns + ` FROM learning_items
		WHERE user_id = $1 AND due_at <= $2
		ORDER BY due_at ASC, created_at ASC, id ASC
		LIMIT $3`

	return s.queryItems(ctx, "find_due", query, userID, now.UTC(), store.NormalizeLimit(limit))
}

// FindByIDs implements store.LearningItemStore.FindByIDs.
func (s *PostgresLearningItemStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.LearningItem, error) {
	if len(ids) == 0 {
		return []*domain.LearningItem{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + itemColumns + ` FROM learning_items
		WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	return s.queryItems(ctx, "find_by_ids", query, args...)
}

// SaveAll implements store.LearningItemStore.SaveAll.
// All rows are upserted in one transaction; only the card columns of an
// existing row are overwritten.
func (s *PostgresLearningItemStore) SaveAll(ctx context.Context, items []*domain.LearningItem) error {
	if len(items) == 0 {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, item := range items {
		if err := item.Validate(); err != nil {
			log.Warn("learning item validation failed during save",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
			return fmt.Errorf("%w: item %s: %w", store.ErrInvalidEntity, item.ID, err)
		}
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertItemQuery)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, item := range items {
			if _, err := stmt.ExecContext(ctx, itemArgs(item)...); err != nil {
				return fmt.Errorf("upsert item %s: %w", item.ID, MapError(err))
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to save learning items",
			slog.String("error", err.Error()),
			slog.Int("count", len(items)))
		return store.NewStoreError(itemEntity, "save_all", "batch upsert failed", err)
	}

	log.Debug("learning items saved", slog.Int("count", len(items)))
	return nil
}

func (s *PostgresLearningItemStore) queryItems(
	ctx context.Context,
	operation, query string,
	args ...any,
) ([]*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query learning items",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return nil, store.NewStoreError(itemEntity, operation, "query failed", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.LearningItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error("failed to scan learning item row",
				slog.String("error", err.Error()),
				slog.String("operation", operation))
			return nil, store.NewStoreError(itemEntity, operation, "scan failed", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return nil, store.NewStoreError(itemEntity, operation, "row iteration failed", err)
	}

	log.Debug("learning items queried",
		slog.String("operation", operation),
		slog.Int("count", len(items)))
	return items, nil
}

func itemArgs(item *domain.LearningItem) []any {
	var lastReview any
	if item.Card.LastReview != nil {
		lastReview = item.Card.LastReview.UTC()
	}
	return []any{
		item.ID,
		item.UserID,
		item.Content.Text,
		item.Content.Definition,
		item.Content.Example,
		item.Content.ExampleTranslation,
		item.Content.RealLifeDefinition,
		item.Content.SurroundingText,
		item.Content.VideoTitle,
		item.CreatedAt.UTC(),
		nullableFloat(item.Card.Difficulty),
		nullableFloat(item.Card.Stability),
		item.Card.DueAt.UTC(),
		string(item.Card.State),
		lastReview,
		item.Card.Reps,
	}
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.LearningItem, error) {
	var (
		item       domain.LearningItem
		difficulty sql.NullFloat64
		stability  sql.NullFloat64
		lastReview sql.NullTime
		state      string
	)

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Content.Text,
		&item.Content.Definition,
		&item.Content.Example,
		&item.Content.ExampleTranslation,
		&item.Content.RealLifeDefinition,
		&item.Content.SurroundingText,
		&item.Content.VideoTitle,
		&item.CreatedAt,
		&difficulty,
		&stability,
		&item.Card.DueAt,
		&state,
		&lastReview,
		&item.Card.Reps,
	)
	if err != nil {
		return nil, err
	}

	item.CreatedAt = item.CreatedAt.UTC()
	item.Card.DueAt = item.Card.DueAt.UTC()
	item.Card.State = domain.CardStatus(state)
	if difficulty.Valid {
		v := difficulty.Float64
		item.Card.Difficulty = &v
	}
	if stability.Valid {
		v := stability.Float64
		item.Card.Stability = &v
	}
	if lastReview.Valid {
		t := lastReview.Time.UTC()
		item.Card.LastReview = &t
	}
	return &item, nil
}
