package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/pkg/id"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
// Items are keyed pk=USER#<user_id>, sk=NOTIFICATION#<time>#<ulid>.
type NotificationRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, now: time.Now}
}

// Append writes a new record to the user's log. The sort key is assigned here
// when empty and the write never overwrites an existing item.
func (r *NotificationRepo) Append(ctx context.Context, n *domain.Notification) error {
	now := r.now().UTC()
	n.PK = UserPK(n.UserID)
	if n.SK == "" {
		n.SK = NotificationSK(now, id.New())
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Meta == nil {
		n.Meta = map[string]string{}
	}
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{"#sk": fieldSK},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s already exists: %w", n.SK, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// KeysDescending returns the keys of every record in the user's log, newest first.
// Only keys are projected; the result length is the log's total count.
func (r *NotificationRepo) KeysDescending(ctx context.Context, userID string) ([]domain.NotificationKey, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ProjectionExpression:     aws.String("#pk, #sk"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldPK, "#sk": fieldSK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: UserPK(userID)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	var keys []domain.NotificationKey
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query notification keys: %w", err)
		}
		for _, item := range out.Items {
			keys = append(keys, domain.NotificationKey{PK: stringAttr(item, fieldPK), SK: stringAttr(item, fieldSK)})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return keys, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// PageAfter returns up to limit records, newest first, starting immediately
// after the resume key. A nil resume key starts at the newest record.
func (r *NotificationRepo) PageAfter(ctx context.Context, userID string, after *domain.NotificationKey, limit int32) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: UserPK(userID)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}
	if after != nil {
		input.ExclusiveStartKey = compositeKey(fieldPK, after.PK, fieldSK, after.SK)
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	notifications := make([]domain.Notification, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, fmt.Errorf("unmarshal notifications: %w", err)
	}
	return notifications, nil
}

// ListUnreadKeys returns the keys of records whose read flag is not true.
func (r *NotificationRepo) ListUnreadKeys(ctx context.Context, userID string) ([]domain.NotificationKey, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		KeyConditionExpression:   aws.String("#pk = :pk"),
		FilterExpression:         aws.String("attribute_not_exists(#r) OR #r = :f"),
		ProjectionExpression:     aws.String("#pk, #sk"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldPK, "#sk": fieldSK, "#r": fieldRead},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: UserPK(userID)},
			":f":  &types.AttributeValueMemberBOOL{Value: false},
		},
	}
	var keys []domain.NotificationKey
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query unread notifications: %w", err)
		}
		for _, item := range out.Items {
			keys = append(keys, domain.NotificationKey{PK: stringAttr(item, fieldPK), SK: stringAttr(item, fieldSK)})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return keys, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// MarkRead sets read=true on one record. Missing records are reported as ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, key domain.NotificationKey) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldRead:      true,
		fieldUpdatedAt: r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	ue.Names["#sk"] = fieldSK
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldPK, key.PK, fieldSK, key.SK),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#sk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s: %w", key.SK, domain.ErrNotFound)
	}
	return err
}
