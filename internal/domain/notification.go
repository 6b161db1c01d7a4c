package domain

import "time"

// Notification is one delivered notification in a user's feed.
// PK is "USER#<user_id>" and SK is the unique, time-ordered sort key that doubles as the public id.
type Notification struct {
	PK        string            `json:"-" dynamodbav:"pk"`
	SK        string            `json:"id" dynamodbav:"sk"`
	UserID    string            `json:"userId" dynamodbav:"user_id"`
	Type      EventType         `json:"type" dynamodbav:"type"`
	Title     string            `json:"title" dynamodbav:"title"`
	Body      string            `json:"notification" dynamodbav:"notification"`
	Meta      map[string]string `json:"meta" dynamodbav:"meta"`
	Read      bool              `json:"read" dynamodbav:"read"`
	CreatedAt time.Time         `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time         `json:"-" dynamodbav:"updated_at"`
}

// NotificationKey identifies one record in a user's log.
type NotificationKey struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
}

// NotificationPage is one offset/limit window of a user's feed, newest first.
type NotificationPage struct {
	Items      []Notification `json:"items"`
	Count      int            `json:"count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// UnreadMarker exists while a user has at least one unread notification.
type UnreadMarker struct {
	UserID    string    `dynamodbav:"user_id"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}
