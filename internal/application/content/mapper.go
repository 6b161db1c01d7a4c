// Package content renders channel-specific text for notification events.
// Everything here is pure: identical inputs always yield identical output.
package content

import "github.com/go-notify-nosql/internal/domain"

// Actor metadata keys read from a target's meta map.
const (
	MetaActorName  = "firstName"
	MetaActorImage = "userImageUrl"
)

// Content is the rendered title and body for the feed and push channels.
type Content struct {
	Title    string
	Body     string
	ImageURL string
}

type template struct {
	title string
	body  func(actor string) string
}

var templates = map[domain.EventType]template{
	domain.EventLikePost: {
		title: "Like your post",
		body:  func(actor string) string { return actor + " like your post" },
	},
	domain.EventLikeComment: {
		title: "Like your comment",
		body:  func(actor string) string { return actor + " like your comment" },
	},
	domain.EventSharePost: {
		title: "Share your post",
		body:  func(actor string) string { return actor + " share your post" },
	},
	domain.EventCommentPost: {
		title: "Comment post",
		body:  func(actor string) string { return actor + " comment your post" },
	},
}

// Render maps an event type and actor to display content. Types without a
// template return the fallback title and body unchanged.
func Render(t domain.EventType, actorName, actorImageURL string, fallback Content) Content {
	tpl, ok := templates[t]
	if !ok {
		fallback.ImageURL = actorImageURL
		return fallback
	}
	return Content{
		Title:    tpl.title,
		Body:     tpl.body(actorName),
		ImageURL: actorImageURL,
	}
}

// ForTarget renders content for one target using its actor metadata.
func ForTarget(ev domain.BatchEvent, meta map[string]string) Content {
	return Render(ev.Type, meta[MetaActorName], meta[MetaActorImage], Content{
		Title: ev.Title,
		Body:  ev.Notification,
	})
}

// HasTemplate reports whether t renders from a fixed template.
func HasTemplate(t domain.EventType) bool {
	_, ok := templates[t]
	return ok
}
