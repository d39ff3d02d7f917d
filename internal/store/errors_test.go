package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantNotFound  bool
		wantDuplicate bool
	}{
		{name: "nil error"},
		{name: "generic error", err: errors.New("some error")},
		{name: "ErrNotFound", err: ErrNotFound, wantNotFound: true},
		{name: "ErrItemNotFound", err: ErrItemNotFound, wantNotFound: true},
		{
			name:         "wrapped ErrItemNotFound",
			err:          fmt.Errorf("failed to load item: %w", ErrItemNotFound),
			wantNotFound: true,
		},
		{name: "ErrDuplicateItem", err: ErrDuplicateItem, wantDuplicate: true},
		{
			name:          "StoreError wrapping duplicate",
			err:           NewStoreError("learning_item", "create", "insert failed", ErrDuplicateItem),
			wantDuplicate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantNotFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.wantDuplicate, IsDuplicateError(tt.err))
		})
	}
}

func TestStoreErrorMessage(t *testing.T) {
	withCause := NewStoreError("learning_item", "save_all", "batch upsert failed", errors.New("conn reset"))
	assert.Equal(t,
		"save_all operation on learning_item failed: batch upsert failed: conn reset",
		withCause.Error())

	withoutCause := NewStoreError("learning_item", "find_due", "bad limit", nil)
	assert.Equal(t, "find_due operation on learning_item failed: bad limit", withoutCause.Error())
	assert.Nil(t, errors.Unwrap(withoutCause))
}
