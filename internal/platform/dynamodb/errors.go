package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phrazzld/vocab-review/internal/store"
)

const conditionalCheckFailed = "ConditionalCheckFailed"

// mapCreateError translates a failed create transaction, whose first write is
// the item and second write is the text marker, into store errors.
func mapCreateError(err error) error {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return err
	}

	reasons := canceled.CancellationReasons
	switch {
	case len(reasons) > 1 && aws.ToString(reasons[1].Code) == conditionalCheckFailed:
		return store.ErrDuplicateItem
	case len(reasons) > 0 && aws.ToString(reasons[0].Code) == conditionalCheckFailed:
		return fmt.Errorf("%w: learning item id", store.ErrDuplicate)
	default:
		return err
	}
}

// IsTableMissing reports whether err means the configured table does not exist.
func IsTableMissing(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}
