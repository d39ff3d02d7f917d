package dynamodb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-review/internal/config"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/store"
	"golang.org/x/sync/errgroup"
)

const itemEntity = "learning_item"

const (
	// MaxBatchGet is the BatchGetItem key limit per request.
	MaxBatchGet = 100
	// MaxTransactItems is the TransactWriteItems action limit.
	MaxTransactItems = 100

	maxBatchGetAttempts = 5
	batchGetConcurrency = 4
	batchGetBackoff     = 50 * time.Millisecond
)

// DynamoLearningItemStore implements store.LearningItemStore on DynamoDB.
type DynamoLearningItemStore struct {
	api          API
	table        string
	dueIndex     string
	createdIndex string
	logger       *slog.Logger
	now          func() time.Time
}

// NewDynamoLearningItemStore creates a store backed by the table named in cfg.
func NewDynamoLearningItemStore(api API, cfg config.DynamoDBConfig, logger *slog.Logger) *DynamoLearningItemStore {
	if api == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("dynamodb api cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamoLearningItemStore{
		api:          api,
		table:        cfg.TableName,
		dueIndex:     cfg.IndexName,
		createdIndex: cfg.CreatedIndexName,
		logger:       logger.With(slog.String("component", "learning_item_store")),
		now:          time.Now,
	}
}

var _ store.LearningItemStore = (*DynamoLearningItemStore)(nil)

// Create implements store.LearningItemStore.Create.
// The item and its text marker are written in one transaction, each guarded
// by attribute_not_exists so neither an ID nor a (user, text) pair is reused.
func (s *DynamoLearningItemStore) Create(ctx context.Context, item *domain.LearningItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	itemAV, err := attributevalue.MarshalMap(toRecord(item, s.now()))
	if err != nil {
		return store.NewStoreError(itemEntity, "create", "marshal failed", err)
	}
	markerAV, err := attributevalue.MarshalMap(markerRecord{
		ID:     markerID(item.UserID, item.Content.Text),
		ItemID: item.ID.String(),
	})
	if err != nil {
		return store.NewStoreError(itemEntity, "create", "marshal failed", err)
	}

	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.table),
				Item:                itemAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(s.table),
				Item:                markerAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
		},
	})
	if err != nil {
		mapped := mapCreateError(err)
		if store.IsDuplicateError(mapped) {
			return mapped
		}
		log.Error("failed to create learning item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return store.NewStoreError(itemEntity, "create", "transact write failed", err)
	}

	log.Info("learning item created",
		slog.String("item_id", item.ID.String()),
		slog.String("user_id", item.UserID))
	return nil
}

// GetByID implements store.LearningItemStore.GetByID.
func (s *DynamoLearningItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id.String()},
		},
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get learning item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, store.NewStoreError(itemEntity, "get_by_id", "get item failed", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrItemNotFound
	}

	item, err := unmarshalItem(out.Item)
	if err != nil {
		return nil, store.NewStoreError(itemEntity, "get_by_id", "decode failed", err)
	}
	return item, nil
}

// ListByUser implements store.LearningItemStore.ListByUser.
// DynamoDB has no offset, so the first offset items are read and discarded.
func (s *DynamoLearningItemStore) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.LearningItem, error) {
	if offset < 0 {
		offset = 0
	}
	limit = store.NormalizeLimit(limit)

	keyCond := expression.Key("user_id").Equal(expression.Value(userID))
	items, err := s.query(ctx, "list_by_user", s.createdIndex, keyCond, false, offset+limit)
	if err != nil {
		return nil, err
	}
	if offset >= len(items) {
		return []*domain.LearningItem{}, nil
	}
	return items[offset:], nil
}

// FindDue implements store.LearningItemStore.FindDue.
// The due index sort key orders by due time, creation time and ID, so a
// single ascending range query returns items in review order.
func (s *DynamoLearningItemStore) FindDue(
	ctx context.Context,
	userID string,
	now time.Time,
	limit int,
) ([]*domain.LearningItem, error) {
	keyCond := expression.Key("user_id").Equal(expression.Value(userID)).
		And(expression.Key("due_key").LessThanEqual(expression.Value(dueBound(now))))

	return s.query(ctx, "find_due", s.dueIndex, keyCond, true, store.NormalizeLimit(limit))
}

// FindByIDs implements store.LearningItemStore.FindByIDs.
// Keys are split into BatchGetItem-sized chunks fetched concurrently;
// unprocessed keys are retried with a short backoff.
func (s *DynamoLearningItemStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	seen := make(map[uuid.UUID]struct{}, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id.String()},
		})
	}

	var (
		mu    sync.Mutex
		items = []*domain.LearningItem{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchGetConcurrency)
	for start := 0; start < len(keys); start += MaxBatchGet {
		chunk := keys[start:min(start+MaxBatchGet, len(keys))]
		g.Go(func() error {
			found, err := s.batchGet(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			items = append(items, found...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("failed to batch get learning items",
			slog.String("error", err.Error()),
			slog.Int("count", len(keys)))
		return nil, store.NewStoreError(itemEntity, "find_by_ids", "batch get failed", err)
	}
	return items, nil
}

// SaveAll implements store.LearningItemStore.SaveAll.
// All items are written in one TransactWriteItems call, so a batch larger
// than MaxTransactItems is rejected outright.
func (s *DynamoLearningItemStore) SaveAll(ctx context.Context, items []*domain.LearningItem) error {
	if len(items) == 0 {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	// A transaction may touch each key once; the last write for an ID wins.
	byID := make(map[uuid.UUID]int, len(items))
	unique := make([]*domain.LearningItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: item %s: %w", store.ErrInvalidEntity, item.ID, err)
		}
		if i, ok := byID[item.ID]; ok {
			unique[i] = item
			continue
		}
		byID[item.ID] = len(unique)
		unique = append(unique, item)
	}

	if len(unique) > MaxTransactItems {
		return fmt.Errorf("%w: batch of %d items exceeds the limit of %d",
			store.ErrInvalidEntity, len(unique), MaxTransactItems)
	}

	updatedAt := s.now()
	writes := make([]types.TransactWriteItem, 0, len(unique))
	for _, item := range unique {
		av, err := attributevalue.MarshalMap(toRecord(item, updatedAt))
		if err != nil {
			return store.NewStoreError(itemEntity, "save_all", "marshal failed", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(s.table), Item: av},
		})
	}

	if _, err := s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	}); err != nil {
		log.Error("failed to save learning items",
			slog.String("error", err.Error()),
			slog.Int("count", len(writes)))
		return store.NewStoreError(itemEntity, "save_all", "transact write failed",
			fmt.Errorf("%w: %w", store.ErrTransactionFailed, err))
	}

	log.Debug("learning items saved", slog.Int("count", len(writes)))
	return nil
}

func (s *DynamoLearningItemStore) query(
	ctx context.Context,
	operation, index string,
	keyCond expression.KeyConditionBuilder,
	ascending bool,
	want int,
) ([]*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, store.NewStoreError(itemEntity, operation, "build expression failed", err)
	}

	items := []*domain.LearningItem{}
	var startKey map[string]types.AttributeValue
	for len(items) < want {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			IndexName:                 aws.String(index),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(ascending),
			Limit:                     aws.Int32(int32(want - len(items))),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			log.Error("failed to query learning items",
				slog.String("error", err.Error()),
				slog.String("operation", operation))
			return nil, store.NewStoreError(itemEntity, operation, "query failed", err)
		}

		for _, av := range out.Items {
			item, err := unmarshalItem(av)
			if err != nil {
				return nil, store.NewStoreError(itemEntity, operation, "decode failed", err)
			}
			items = append(items, item)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if len(items) > want {
		items = items[:want]
	}
	return items, nil
}

func (s *DynamoLearningItemStore) batchGet(
	ctx context.Context,
	keys []map[string]types.AttributeValue,
) ([]*domain.LearningItem, error) {
	var items []*domain.LearningItem
	pending := keys

	for attempt := 1; len(pending) > 0; attempt++ {
		if attempt > maxBatchGetAttempts {
			return nil, fmt.Errorf("%d keys still unprocessed after %d attempts", len(pending), maxBatchGetAttempts)
		}
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(batchGetBackoff * time.Duration(attempt-1)):
			}
		}

		out, err := s.api.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.table: {Keys: pending},
			},
		})
		if err != nil {
			return nil, err
		}

		for _, av := range out.Responses[s.table] {
			item, err := unmarshalItem(av)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		pending = out.UnprocessedKeys[s.table].Keys
	}
	return items, nil
}

func unmarshalItem(av map[string]types.AttributeValue) (*domain.LearningItem, error) {
	var rec itemRecord
	if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
		return nil, err
	}
	return fromRecord(rec)
}
