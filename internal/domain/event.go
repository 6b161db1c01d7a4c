package domain

import (
	"slices"
	"strings"
)

// EventType enumerates every notification event the system understands.
// The content mapper, dispatcher, real-time router and ingress all consume this one set.
type EventType string

const (
	EventLikePost    EventType = "LIKE_POST"
	EventLikeComment EventType = "LIKE_COMMENT"
	EventSharePost   EventType = "SHARE_POST"
	EventCommentPost EventType = "COMMENT_POST"
	EventSendMessage EventType = "SEND_MESSAGE"
)

// EventTypes lists all known event types.
var EventTypes = []EventType{
	EventLikePost,
	EventLikeComment,
	EventSharePost,
	EventCommentPost,
	EventSendMessage,
}

// ParseEventType normalises s to an EventType. Case and hyphen/underscore
// spelling are ignored, so "like-post" parses as LIKE_POST. Unknown strings
// come back unchanged apart from normalisation.
func ParseEventType(s string) EventType {
	return EventType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
}

// UnmarshalText lets JSON payloads use any accepted spelling.
func (t *EventType) UnmarshalText(b []byte) error {
	*t = ParseEventType(string(b))
	return nil
}

// Known reports whether t is a member of the enumeration.
func (t EventType) Known() bool {
	return slices.Contains(EventTypes, t)
}

// Transient types are delivered in real time only and never persisted to the feed.
func (t EventType) Transient() bool {
	return t == EventSendMessage
}

// EmailEligible types may trigger the email channel.
func (t EventType) EmailEligible() bool {
	return t == EventLikePost
}

// Routable types may be pushed to live sockets by the real-time router.
func (t EventType) Routable() bool {
	return t.Known()
}

// Event sources and detail types used on the event bus.
const (
	SourceNotifications         = "NOTIFICATIONS"
	SourceWebsocket             = "WEBSOCKET"
	DetailSendBatchNotification = "SEND_BATCH_NOTIFICATIONS"
)
