package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestNotificationRepo(api *fakeAPI) *NotificationRepo {
	r := NewNotificationRepo(api, "notifications")
	r.now = func() time.Time { return fixedNow }
	return r
}

func keyItem(pk, sk string) map[string]types.AttributeValue {
	return compositeKey(fieldPK, pk, fieldSK, sk)
}

func TestNotificationRepo_Append_AssignsKeysAndCondition(t *testing.T) {
	api := &fakeAPI{}
	repo := newTestNotificationRepo(api)
	n := &domain.Notification{UserID: "u1", Type: domain.EventLikePost, Title: "t", Body: "b"}

	require.NoError(t, repo.Append(context.Background(), n))

	assert.Equal(t, "USER#u1", n.PK)
	assert.Contains(t, n.SK, "NOTIFICATION#2024-05-01T12:00:00.000000000Z#")
	assert.Equal(t, fixedNow, n.CreatedAt)
	assert.NotNil(t, n.Meta)

	require.Len(t, api.puts, 1)
	in := api.puts[0]
	assert.Equal(t, "notifications", *in.TableName)
	assert.Equal(t, "attribute_not_exists(#sk)", *in.ConditionExpression)
	read, ok := in.Item[fieldRead].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	assert.False(t, read.Value)
}

func TestNotificationRepo_Append_DistinctKeysInSameInstant(t *testing.T) {
	api := &fakeAPI{}
	repo := newTestNotificationRepo(api)
	a := &domain.Notification{UserID: "u1"}
	b := &domain.Notification{UserID: "u1"}
	require.NoError(t, repo.Append(context.Background(), a))
	require.NoError(t, repo.Append(context.Background(), b))
	assert.NotEqual(t, a.SK, b.SK)
}

func TestNotificationRepo_Append_ConditionFailed_IsConflict(t *testing.T) {
	api := &fakeAPI{putErr: &types.ConditionalCheckFailedException{}}
	repo := newTestNotificationRepo(api)
	err := repo.Append(context.Background(), &domain.Notification{UserID: "u1", SK: "dup"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestNotificationRepo_KeysDescending_FollowsPages(t *testing.T) {
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{keyItem("USER#u1", "s3"), keyItem("USER#u1", "s2")},
			LastEvaluatedKey: keyItem("USER#u1", "s2"),
		},
		{
			Items: []map[string]types.AttributeValue{keyItem("USER#u1", "s1")},
		},
	}}
	repo := newTestNotificationRepo(api)

	keys, err := repo.KeysDescending(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []domain.NotificationKey{
		{PK: "USER#u1", SK: "s3"},
		{PK: "USER#u1", SK: "s2"},
		{PK: "USER#u1", SK: "s1"},
	}, keys)
	require.Len(t, api.queries, 2)
	assert.False(t, *api.queries[0].ScanIndexForward)
	assert.Nil(t, api.queries[0].ExclusiveStartKey)
	assert.Equal(t, keyItem("USER#u1", "s2"), api.queries[1].ExclusiveStartKey)
}

func TestNotificationRepo_PageAfter_UsesResumeKey(t *testing.T) {
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{{
			fieldPK:     &types.AttributeValueMemberS{Value: "USER#u1"},
			fieldSK:     &types.AttributeValueMemberS{Value: "s1"},
			fieldUserID: &types.AttributeValueMemberS{Value: "u1"},
			"title":     &types.AttributeValueMemberS{Value: "hello"},
		}},
	}}}
	repo := newTestNotificationRepo(api)

	after := &domain.NotificationKey{PK: "USER#u1", SK: "s2"}
	items, err := repo.PageAfter(context.Background(), "u1", after, 5)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].SK)
	assert.Equal(t, "hello", items[0].Title)
	require.Len(t, api.queries, 1)
	assert.Equal(t, int32(5), *api.queries[0].Limit)
	assert.Equal(t, keyItem("USER#u1", "s2"), api.queries[0].ExclusiveStartKey)
}

func TestNotificationRepo_PageAfter_NilResumeStartsAtNewest(t *testing.T) {
	api := &fakeAPI{}
	repo := newTestNotificationRepo(api)
	_, err := repo.PageAfter(context.Background(), "u1", nil, 10)
	require.NoError(t, err)
	assert.Nil(t, api.queries[0].ExclusiveStartKey)
}

func TestNotificationRepo_ListUnreadKeys_FilterMatchesMissingFlag(t *testing.T) {
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{keyItem("USER#u1", "s1")},
	}}}
	repo := newTestNotificationRepo(api)

	keys, err := repo.ListUnreadKeys(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	assert.Equal(t, "attribute_not_exists(#r) OR #r = :f", *api.queries[0].FilterExpression)
}

func TestNotificationRepo_MarkRead(t *testing.T) {
	api := &fakeAPI{}
	repo := newTestNotificationRepo(api)
	key := domain.NotificationKey{PK: "USER#u1", SK: "s1"}

	require.NoError(t, repo.MarkRead(context.Background(), key))

	require.Len(t, api.updates, 1)
	in := api.updates[0]
	assert.Equal(t, keyItem("USER#u1", "s1"), in.Key)
	assert.Equal(t, "attribute_exists(#sk)", *in.ConditionExpression)
	assert.Equal(t, "read", in.ExpressionAttributeNames["#f0"])
}

func TestNotificationRepo_MarkRead_Missing(t *testing.T) {
	api := &fakeAPI{updateErr: &types.ConditionalCheckFailedException{}}
	repo := newTestNotificationRepo(api)
	err := repo.MarkRead(context.Background(), domain.NotificationKey{PK: "USER#u1", SK: "gone"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationRepo_QueryError(t *testing.T) {
	api := &fakeAPI{queryErr: errors.New("throttled")}
	repo := newTestNotificationRepo(api)
	_, err := repo.KeysDescending(context.Background(), "u1")
	assert.ErrorContains(t, err, "throttled")
}
