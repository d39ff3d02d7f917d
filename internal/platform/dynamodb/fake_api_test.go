package dynamodb

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var keyConditionPattern = regexp.MustCompile(`(#\w+) (=|<=) (:\w+)`)

// fakeAPI is an in-memory single-table DynamoDB good enough for the access
// patterns used by the store.
type fakeAPI struct {
	mu sync.Mutex

	tableExists bool
	rows        map[string]map[string]types.AttributeValue
	indexSort   map[string]string

	// pageSize caps items per Query page when positive.
	pageSize int
	// unprocessedOnce makes the first BatchGetItem call defer half its keys.
	unprocessedOnce bool
	writeErr        error

	batchGetSizes []int
	createCalls   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tableExists: true,
		rows:        map[string]map[string]types.AttributeValue{},
		indexSort: map[string]string{
			testConfig.IndexName:        "due_key",
			testConfig.CreatedIndexName: "created_key",
		},
	}
}

func attrS(av map[string]types.AttributeValue, name string) string {
	if s, ok := av[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.rows[attrS(in.Key, "id")]}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sortAttr, ok := f.indexSort[aws.ToString(in.IndexName)]
	if !ok {
		return nil, errors.New("unknown index")
	}

	conds := keyConditionPattern.FindAllStringSubmatch(aws.ToString(in.KeyConditionExpression), -1)
	var matched []map[string]types.AttributeValue
	for _, row := range f.rows {
		if attrS(row, "user_id") == "" {
			continue
		}
		keep := true
		for _, c := range conds {
			got := attrS(row, in.ExpressionAttributeNames[c[1]])
			want := in.ExpressionAttributeValues[c[3]].(*types.AttributeValueMemberS).Value
			if (c[2] == "=" && got != want) || (c[2] == "<=" && got > want) {
				keep = false
			}
		}
		if keep {
			matched = append(matched, row)
		}
	}

	ascending := aws.ToBool(in.ScanIndexForward)
	sort.Slice(matched, func(i, j int) bool {
		if ascending {
			return attrS(matched[i], sortAttr) < attrS(matched[j], sortAttr)
		}
		return attrS(matched[i], sortAttr) > attrS(matched[j], sortAttr)
	})

	if in.ExclusiveStartKey != nil {
		last := attrS(in.ExclusiveStartKey, "id")
		for i, row := range matched {
			if attrS(row, "id") == last {
				matched = matched[i+1:]
				break
			}
		}
	}

	n := len(matched)
	if in.Limit != nil && int(*in.Limit) < n {
		n = int(*in.Limit)
	}
	if f.pageSize > 0 && f.pageSize < n {
		n = f.pageSize
	}

	out := &dynamodb.QueryOutput{Items: matched[:n]}
	if n < len(matched) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"id": matched[n-1]["id"]}
	}
	return out, nil
}

func (f *fakeAPI) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &dynamodb.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, req := range in.RequestItems {
		f.batchGetSizes = append(f.batchGetSizes, len(req.Keys))
		keys := req.Keys
		if f.unprocessedOnce && len(keys) > 1 {
			f.unprocessedOnce = false
			half := len(keys) / 2
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[half:]}
			keys = keys[:half]
		}
		for _, key := range keys {
			if row, ok := f.rows[attrS(key, "id")]; ok {
				out.Responses[table] = append(out.Responses[table], row)
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	canceled := false
	for i, w := range in.TransactItems {
		reasons[i].Code = aws.String("None")
		cond := aws.ToString(w.Put.ConditionExpression)
		if strings.Contains(cond, "attribute_not_exists(id)") {
			if _, exists := f.rows[attrS(w.Put.Item, "id")]; exists {
				reasons[i].Code = aws.String(conditionalCheckFailed)
				canceled = true
			}
		}
	}
	if canceled {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, w := range in.TransactItems {
		f.rows[attrS(w.Put.Item, "id")] = w.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tableExists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.tableExists = true
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{TableName: in.TableName}}, nil
}
