package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/phrazzld/vocab-review/internal/store"
)

// userTextColumns appears in the message of a (user_id, text) uniqueness failure.
const userTextColumns = "learning_items.user_id, learning_items.text"

// MapError maps a database error to the matching store error, keeping the
// original error in the chain. Errors with no mapping are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			if strings.Contains(sqliteErr.Error(), userTextColumns) {
				return fmt.Errorf("%w: %v", store.ErrDuplicateItem, err)
			}
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		default:
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}
