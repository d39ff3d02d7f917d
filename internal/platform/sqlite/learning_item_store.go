package sqlite

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

// timeLayout is RFC 3339 with a fixed nine-digit fraction. Every stored time is
// UTC, so lexical order of the column equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemEntity = "learning_item"

const itemColumns = `id, user_id, text, definition, example, example_translation,
	real_life_definition, surrounding_text, video_title, created_at,
	difficulty, stability, due_at, state, last_review, reps`

const insertItemQuery = `INSERT INTO learning_items (` + itemColumns + `, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertItemQuery = insertItemQuery + `
	ON CONFLICT (id) DO UPDATE SET
		difficulty = excluded.difficulty,
		stability = excluded.stability,
		due_at = excluded.due_at,
		state = excluded.state,
		last_review = excluded.last_review,
		reps = excluded.reps,
		updated_at = excluded.updated_at`

// SQLiteLearningItemStore implements store.LearningItemStore on SQLite.
type SQLiteLearningItemStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteLearningItemStore creates a store on an open, migrated database (see Open).
func NewSQLiteLearningItemStore(db *sql.DB, logger *slog.Logger) *SQLiteLearningItemStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLearningItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "learning_item_store")),
		now:    time.Now,
	}
}

var _ store.LearningItemStore = (*SQLiteLearningItemStore)(nil)

// Create implements store.LearningItemStore.Create.
func (s *SQLiteLearningItemStore) Create(ctx context.Context, item *domain.LearningItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if _, err := s.db.ExecContext(ctx, insertItemQuery, s.itemArgs(item)...); err != nil {
		mapped := MapError(err)
		if store.IsDuplicateError(mapped) {
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
func (s *SQLiteLearningItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	query := `SELECT ` + itemColumns + ` FROM learning_items WHERE id = ?`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrItemNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get learning item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, store.NewStoreError(itemEntity, "get_by_id", "query failed", err)
	}
	return item, nil
}

// ListByUser implements store.LearningItemStore.ListByUser.
func (s *SQLiteLearningItemStore) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.LearningItem, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + itemColumns + ` FROM learning_items
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	return s.queryItems(ctx, "list_by_user", query, userID, store.NormalizeLimit(limit), offset)
}

// FindDue implements store.LearningItemStore.FindDue.
func (s *SQLiteLearningItemStore) FindDue(
	ctx context.Context,
	userID string,
	now time.Time,
	limit int,
) ([]*domain.LearningItem, error) {
	query := `SELECT ` + itemColumns + ` FROM learning_items
		WHERE user_id = ? AND due_at <= ?
		ORDER BY due_at ASC, created_at ASC, id ASC
		LIMIT ?`

	return s.queryItems(ctx, "find_due", query, userID, formatTime(now), store.NormalizeLimit(limit))
}

// FindByIDs implements store.LearningItemStore.FindByIDs.
func (s *SQLiteLearningItemStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.LearningItem, error) {
	if len(ids) == 0 {
		return []*domain.LearningItem{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	query := `SELECT ` + itemColumns + ` FROM learning_items
		WHERE id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)`

	return s.queryItems(ctx, "find_by_ids", query, args...)
}

// SaveAll implements store.LearningItemStore.SaveAll.
func (s *SQLiteLearningItemStore) SaveAll(ctx context.Context, items []*domain.LearningItem) error {
	if len(items) == 0 {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, item := range items {
		if err := item.Validate(); err != nil {
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
			if _, err := stmt.ExecContext(ctx, s.itemArgs(item)...); err != nil {
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

func (s *SQLiteLearningItemStore) queryItems(
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
		return nil, store.NewStoreError(itemEntity, operation, "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.LearningItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, store.NewStoreError(itemEntity, operation, "scan failed", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(itemEntity, operation, "row iteration failed", err)
	}
	return items, nil
}

func (s *SQLiteLearningItemStore) itemArgs(item *domain.LearningItem) []any {
	var lastReview any
	if item.Card.LastReview != nil {
		lastReview = formatTime(*item.Card.LastReview)
	}
	var difficulty, stability any
	if item.Card.Difficulty != nil {
		difficulty = *item.Card.Difficulty
	}
	if item.Card.Stability != nil {
		stability = *item.Card.Stability
	}
	return []any{
		item.ID.String(),
		item.UserID,
		item.Content.Text,
		item.Content.Definition,
		item.Content.Example,
		item.Content.ExampleTranslation,
		item.Content.RealLifeDefinition,
		item.Content.SurroundingText,
		item.Content.VideoTitle,
		formatTime(item.CreatedAt),
		difficulty,
		stability,
		formatTime(item.Card.DueAt),
		string(item.Card.State),
		lastReview,
		item.Card.Reps,
		formatTime(s.now()),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.LearningItem, error) {
	var (
		item       domain.LearningItem
		createdAt  string
		dueAt      string
		state      string
		difficulty sql.NullFloat64
		stability  sql.NullFloat64
		lastReview sql.NullString
		err        error
	)

	if err = row.Scan(
		&item.ID,
		&item.UserID,
		&item.Content.Text,
		&item.Content.Definition,
		&item.Content.Example,
		&item.Content.ExampleTranslation,
		&item.Content.RealLifeDefinition,
		&item.Content.SurroundingText,
		&item.Content.VideoTitle,
		&createdAt,
		&difficulty,
		&stability,
		&dueAt,
		&state,
		&lastReview,
		&item.Card.Reps,
	); err != nil {
		return nil, err
	}

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if item.Card.DueAt, err = parseTime(dueAt); err != nil {
		return nil, fmt.Errorf("due_at: %w", err)
	}
	if lastReview.Valid {
		t, err := parseTime(lastReview.String)
		if err != nil {
			return nil, fmt.Errorf("last_review: %w", err)
		}
		item.Card.LastReview = &t
	}
	if difficulty.Valid {
		v := difficulty.Float64
		item.Card.Difficulty = &v
	}
	if stability.Valid {
		v := stability.Float64
		item.Card.Stability = &v
	}
	item.Card.State = domain.CardStatus(state)
	return &item, nil
}
