package domain

import "time"

// Connection is one live real-time socket owned by a user.
type Connection struct {
	ConnectionID string    `json:"connectionId" dynamodbav:"connection_id"`
	UserID       string    `json:"userId" dynamodbav:"user_id"`
	LastActivity time.Time `json:"lastActivity" dynamodbav:"last_activity"`
}

// ConnectionResult is the outcome of one post to a socket.
type ConnectionResult struct {
	ConnectionID string        `json:"connectionId"`
	Status       ChannelStatus `json:"status"`
	Reason       string        `json:"reason,omitempty"`
}

// RouteReport summarises a real-time fan-out to one user's sockets.
type RouteReport struct {
	UserID    string             `json:"userId"`
	Event     EventType          `json:"event"`
	Attempted int                `json:"attempted"`
	Delivered int                `json:"delivered"`
	Results   []ConnectionResult `json:"results"`
}
