package content

import (
	"testing"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRender_Templates(t *testing.T) {
	cases := []struct {
		typ   domain.EventType
		title string
		body  string
	}{
		{domain.EventLikePost, "Like your post", "Ann like your post"},
		{domain.EventLikeComment, "Like your comment", "Ann like your comment"},
		{domain.EventSharePost, "Share your post", "Ann share your post"},
		{domain.EventCommentPost, "Comment post", "Ann comment your post"},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			got := Render(tc.typ, "Ann", "https://img/ann.png", Content{Title: "generic", Body: "generic"})
			assert.Equal(t, tc.title, got.Title)
			assert.Equal(t, tc.body, got.Body)
			assert.Equal(t, "https://img/ann.png", got.ImageURL)
		})
	}
}

func TestRender_UnknownTypeFallsBack(t *testing.T) {
	fb := Content{Title: "Hello", Body: "raw payload"}
	got := Render(domain.EventType("BID_WON"), "Ann", "", fb)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "raw payload", got.Body)
}

func TestRender_SendMessageHasNoTemplate(t *testing.T) {
	assert.False(t, HasTemplate(domain.EventSendMessage))
	got := Render(domain.EventSendMessage, "Ann", "", Content{Title: "t", Body: "b"})
	assert.Equal(t, Content{Title: "t", Body: "b"}, got)
}

func TestRender_Deterministic(t *testing.T) {
	a := Render(domain.EventLikePost, "Bob", "x", Content{})
	b := Render(domain.EventLikePost, "Bob", "x", Content{})
	assert.Equal(t, a, b)
}

func TestForTarget_UsesMeta(t *testing.T) {
	ev := domain.BatchEvent{Type: domain.EventLikePost}
	got := ForTarget(ev, map[string]string{"firstName": "Ann", "userImageUrl": "u"})
	assert.Equal(t, "Like your post", got.Title)
	assert.Equal(t, "Ann like your post", got.Body)
	assert.Equal(t, "u", got.ImageURL)
}

func TestEveryTemplatedTypeIsKnown(t *testing.T) {
	for typ := range templates {
		assert.True(t, typ.Known(), typ)
	}
}

func TestEmailFor(t *testing.T) {
	ec, ok := EmailFor(domain.EventLikePost, "tpl")
	assert.True(t, ok)
	assert.Equal(t, "New Notification", ec.Subject)
	assert.Equal(t, "tpl", ec.TemplateAlias)

	_, ok = EmailFor(domain.EventCommentPost, "tpl")
	assert.False(t, ok)
}

func TestEmailData(t *testing.T) {
	data := EmailData(map[string]string{"bid": "10", "firstName": "Ann"})
	assert.Equal(t, "10", data["bid"])
	assert.Equal(t, "", data["winner"])
	_, leaked := data["firstName"]
	assert.False(t, leaked)
	assert.Len(t, data, len(emailDataKeys))
}
