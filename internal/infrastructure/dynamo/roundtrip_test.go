package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/go-notify-nosql/internal/application/content"
	"github.com/go-notify-nosql/internal/application/dispatch"
	"github.com/go-notify-nosql/internal/application/notification"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_DispatchThenPage(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	repo := NewNotificationRepo(db, "notifications")
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	unread := NewUnreadRepo(db, "unread")

	d := dispatch.New(dispatch.Deps{Store: repo, Unread: unread}, dispatch.Guards{}, dispatch.Options{})
	for _, step := range []struct {
		t     domain.EventType
		actor string
	}{
		{domain.EventLikePost, "Ann"},
		{domain.EventSharePost, "Bob"},
	} {
		report, err := d.Dispatch(ctx, domain.BatchEvent{
			Type:    step.t,
			Targets: []domain.Target{{UserID: "u1", Meta: map[string]string{content.MetaActorName: step.actor}}},
		})
		require.NoError(t, err)
		require.Equal(t, 1, report.Succeeded)
	}

	svc := notification.NewService(repo, unread)
	has, err := svc.HasUnread(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, has)

	page, err := svc.Page(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 1, page.TotalPages)

	newest := content.Render(domain.EventSharePost, "Bob", "", content.Content{})
	oldest := content.Render(domain.EventLikePost, "Ann", "", content.Content{})
	assert.Equal(t, newest.Title, page.Items[0].Title)
	assert.Equal(t, newest.Body, page.Items[0].Body)
	assert.Equal(t, domain.EventSharePost, page.Items[0].Type)
	assert.Equal(t, oldest.Title, page.Items[1].Title)
	assert.Equal(t, oldest.Body, page.Items[1].Body)
	assert.False(t, page.Items[0].Read)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	// Second window resumes after the newest record.
	page, err = svc.Page(ctx, "u1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, oldest.Body, page.Items[0].Body)
	assert.Equal(t, 2, page.Page)

	ok, err := svc.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	has, err = svc.HasUnread(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRoundTrip_AppendNeverOverwrites(t *testing.T) {
	repo := NewNotificationRepo(newMemDB(), "notifications")
	n := &domain.Notification{UserID: "u1", SK: "NOTIFICATION#fixed", Title: "first"}
	require.NoError(t, repo.Append(context.Background(), n))

	dup := &domain.Notification{UserID: "u1", SK: "NOTIFICATION#fixed", Title: "second"}
	assert.ErrorIs(t, repo.Append(context.Background(), dup), domain.ErrConflict)

	items, err := repo.PageAfter(context.Background(), "u1", nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "first", items[0].Title)
}
