package dynamo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// memDB is a small in-memory stand-in for DynamoDB that stores items and
// serves them back. It understands the key conditions, sort direction,
// Limit and ExclusiveStartKey the repos issue; projections are ignored.
type memDB struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

type memTable struct {
	hash, rng string
	items     map[string]map[string]types.AttributeValue
}

func newMemDB() *memDB {
	return &memDB{tables: map[string]*memTable{
		"notifications": {hash: fieldPK, rng: fieldSK, items: map[string]map[string]types.AttributeValue{}},
		"unread":        {hash: fieldUserID, items: map[string]map[string]types.AttributeValue{}},
	}}
}

func (t *memTable) key(item map[string]types.AttributeValue) string {
	k := stringAttr(item, t.hash)
	if t.rng != "" {
		k += "\x00" + stringAttr(item, t.rng)
	}
	return k
}

func (db *memDB) table(name *string) (*memTable, error) {
	t, ok := db.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: name}
	}
	return t, nil
}

func (db *memDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k := t.key(in.Item)
	if _, exists := t.items[k]; exists && aws.ToString(in.ConditionExpression) == "attribute_not_exists(#sk)" {
		return nil, &types.ConditionalCheckFailedException{}
	}
	t.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (db *memDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.table(in.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: t.items[t.key(in.Key)]}, nil
}

func (db *memDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.table(in.TableName)
	if err != nil {
		return nil, err
	}
	delete(t.items, t.key(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (db *memDB) UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return nil, errors.New("memDB: UpdateItem not supported")
}

func (db *memDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.table(in.TableName)
	if err != nil {
		return nil, err
	}
	pk, _ := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	if pk == nil {
		return nil, errors.New("memDB: query needs :pk")
	}

	var rows []map[string]types.AttributeValue
	for _, item := range t.items {
		if stringAttr(item, t.hash) == pk.Value {
			rows = append(rows, item)
		}
	}
	desc := in.ScanIndexForward != nil && !*in.ScanIndexForward
	sort.Slice(rows, func(i, j int) bool {
		a, b := stringAttr(rows[i], t.rng), stringAttr(rows[j], t.rng)
		if desc {
			return a > b
		}
		return a < b
	})

	if start := stringAttr(in.ExclusiveStartKey, t.rng); start != "" {
		for i, r := range rows {
			if stringAttr(r, t.rng) == start {
				rows = rows[i+1:]
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{}
	if in.Limit != nil && int(*in.Limit) < len(rows) {
		rows = rows[:*in.Limit]
		out.LastEvaluatedKey = compositeKey(t.hash, pk.Value, t.rng, stringAttr(rows[len(rows)-1], t.rng))
	}
	out.Items = rows
	out.Count = int32(len(rows))
	return out, nil
}
