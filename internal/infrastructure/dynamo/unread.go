package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-nosql/internal/domain"
)

// UnreadRepo stores one presence-only marker per user with unread notifications.
type UnreadRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewUnreadRepo(client API, tableName string) *UnreadRepo {
	return &UnreadRepo{client: client, tableName: tableName, now: time.Now}
}

// Mark upserts the user's marker.
func (r *UnreadRepo) Mark(ctx context.Context, userID string) error {
	item, err := attributevalue.MarshalMap(domain.UnreadMarker{UserID: userID, UpdatedAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal unread marker: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put unread marker: %w", err)
	}
	return nil
}

// Exists reports whether the user's marker is present.
func (r *UnreadRepo) Exists(ctx context.Context, userID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  strKey(fieldUserID, userID),
		ProjectionExpression: aws.String("#u"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldUserID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("get unread marker: %w", err)
	}
	return len(out.Item) > 0, nil
}

// Delete removes the user's marker. Deleting an absent marker is not an error.
func (r *UnreadRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return fmt.Errorf("delete unread marker: %w", err)
	}
	return nil
}
