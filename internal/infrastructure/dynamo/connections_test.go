package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connItem(id, user string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		fieldConnectionID: &types.AttributeValueMemberS{Value: id},
		fieldUserID:       &types.AttributeValueMemberS{Value: user},
	}
}

func TestConnectionRepo_Put(t *testing.T) {
	api := &fakeAPI{}
	repo := NewConnectionRepo(api, "websocket_connections")

	c := &domain.Connection{ConnectionID: "c1", UserID: "u1", LastActivity: time.Now()}
	require.NoError(t, repo.Put(context.Background(), c))

	require.Len(t, api.puts, 1)
	assert.Equal(t, "c1", stringAttr(api.puts[0].Item, fieldConnectionID))
	assert.Equal(t, "u1", stringAttr(api.puts[0].Item, fieldUserID))
}

func TestConnectionRepo_Touch_Conditional(t *testing.T) {
	api := &fakeAPI{}
	repo := NewConnectionRepo(api, "websocket_connections")

	require.NoError(t, repo.Touch(context.Background(), "c1", time.Now()))

	in := api.updates[0]
	assert.Equal(t, "attribute_exists(#id)", *in.ConditionExpression)
	assert.Equal(t, fieldLastActivity, in.ExpressionAttributeNames["#f0"])
	assert.Equal(t, strKey(fieldConnectionID, "c1"), in.Key)
}

func TestConnectionRepo_Touch_Unknown(t *testing.T) {
	api := &fakeAPI{updateErr: &types.ConditionalCheckFailedException{}}
	repo := NewConnectionRepo(api, "websocket_connections")
	err := repo.Touch(context.Background(), "ghost", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConnectionRepo_ListByUser_Paginates(t *testing.T) {
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{connItem("c1", "u1")}, LastEvaluatedKey: connItem("c1", "u1")},
		{Items: []map[string]types.AttributeValue{connItem("c2", "u1")}},
	}}
	repo := NewConnectionRepo(api, "websocket_connections")

	conns, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, conns, 2)
	assert.Equal(t, "c1", conns[0].ConnectionID)
	assert.Equal(t, "c2", conns[1].ConnectionID)
	assert.Equal(t, indexConnectionsByUser, *api.queries[0].IndexName)
}

func TestConnectionRepo_Delete(t *testing.T) {
	api := &fakeAPI{}
	repo := NewConnectionRepo(api, "websocket_connections")
	require.NoError(t, repo.Delete(context.Background(), "c1"))
	assert.Equal(t, strKey(fieldConnectionID, "c1"), api.deletes[0].Key)
}
