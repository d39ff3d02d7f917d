package dynamodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phrazzld/vocab-review/internal/config"
)

const tableActiveTimeout = 2 * time.Minute

// EnsureTable creates the learning item table and its indexes when the table
// does not exist yet, then waits for it to become active. An existing table is
// left as is.
func EnsureTable(ctx context.Context, api API, cfg config.DynamoDBConfig, logger *slog.Logger) error {
	_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.TableName)})
	if err == nil {
		logger.Debug("dynamodb table already exists", slog.String("table", cfg.TableName))
		return nil
	}
	if !IsTableMissing(err) {
		return fmt.Errorf("failed to describe table %s: %w", cfg.TableName, err)
	}

	if _, err := api.CreateTable(ctx, createTableInput(cfg)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", cfg.TableName, err)
	}
	logger.Info("dynamodb table created", slog.String("table", cfg.TableName))

	waiter := dynamodb.NewTableExistsWaiter(api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.TableName)}, tableActiveTimeout); err != nil {
		return fmt.Errorf("table %s did not become active: %w", cfg.TableName, err)
	}
	return nil
}

func createTableInput(cfg config.DynamoDBConfig) *dynamodb.CreateTableInput {
	userIndex := func(name, sortKey string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{
			IndexName: aws.String(name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("user_id"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
	}

	stringAttr := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		}
	}

	return &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.TableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttr("id"),
			stringAttr("user_id"),
			stringAttr("due_key"),
			stringAttr("created_key"),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			userIndex(cfg.IndexName, "due_key"),
			userIndex(cfg.CreatedIndexName, "created_key"),
		},
	}
}
