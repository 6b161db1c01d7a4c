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
)

// ConnectionRepo provides typed DynamoDB operations for the websocket connections table.
type ConnectionRepo struct {
	client    API
	tableName string
}

func NewConnectionRepo(client API, tableName string) *ConnectionRepo {
	return &ConnectionRepo{client: client, tableName: tableName}
}

// Put upserts a connection row.
func (r *ConnectionRepo) Put(ctx context.Context, c *domain.Connection) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal connection: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put connection: %w", err)
	}
	return nil
}

// Touch refreshes last_activity. It never creates a row for an unknown connection.
func (r *ConnectionRepo) Touch(ctx context.Context, connectionID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldLastActivity: at.UTC()})
	if err != nil {
		return err
	}
	ue.Names["#id"] = fieldConnectionID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldConnectionID, connectionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("connection %s: %w", connectionID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("touch connection: %w", err)
	}
	return nil
}

// Delete removes exactly the given connection.
func (r *ConnectionRepo) Delete(ctx context.Context, connectionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldConnectionID, connectionID),
	})
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

// ListByUser queries the user_id-index GSI for every connection owned by userID.
func (r *ConnectionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Connection, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexConnectionsByUser),
		KeyConditionExpression:   aws.String("#u = :uid"),
		ExpressionAttributeNames: map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	}
	var conns []domain.Connection
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query connections: %w", err)
		}
		var page []domain.Connection
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal connections: %w", err)
		}
		conns = append(conns, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return conns, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
