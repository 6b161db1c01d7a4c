package domain

import "time"

// BatchEvent is a single notification destined for many users.
type BatchEvent struct {
	Type         EventType `json:"type" validate:"required"`
	Title        string    `json:"title"`
	Notification string    `json:"notification"`
	CreatedAt    time.Time `json:"createdAt"`
	Targets      []Target  `json:"userNotificationsSetup" validate:"required,min=1,dive"`
}

// Target carries one recipient's channel preferences and contact details.
type Target struct {
	UserID           string            `json:"userId" validate:"required"`
	Email            string            `json:"email,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	SendEmail        bool              `json:"sendEmail"`
	SendNotification bool              `json:"sendNotification"`
	SendSMS          bool              `json:"sendSms"`
	DeviceTokens     []string          `json:"deviceTokens,omitempty"`
	Meta             map[string]string `json:"meta,omitempty"`
}

// Channel names a delivery mechanism.
type Channel string

const (
	ChannelFeed   Channel = "feed"
	ChannelUnread Channel = "unread"
	ChannelEmail  Channel = "email"
	ChannelPush   Channel = "push"
	ChannelSMS    Channel = "sms"
	ChannelSocket Channel = "socket"
)

// ChannelStatus is the outcome of one delivery attempt.
type ChannelStatus string

const (
	StatusOK      ChannelStatus = "ok"
	StatusFailed  ChannelStatus = "failed"
	StatusSkipped ChannelStatus = "skipped"
)

// ChannelResult records what happened on one channel for one target.
type ChannelResult struct {
	Channel Channel       `json:"channel"`
	Status  ChannelStatus `json:"status"`
	Reason  string        `json:"reason,omitempty"`
}

// TargetOutcome collects every channel result for one target.
type TargetOutcome struct {
	UserID  string          `json:"userId"`
	Results []ChannelResult `json:"results"`
}

// Failed reports whether any channel failed for the target.
func (o TargetOutcome) Failed() bool {
	for _, r := range o.Results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Result returns the result for channel c, if one was recorded.
func (o TargetOutcome) Result(c Channel) (ChannelResult, bool) {
	for _, r := range o.Results {
		if r.Channel == c {
			return r, true
		}
	}
	return ChannelResult{}, false
}

// DispatchReport is the aggregate result of a fan-out. Every target is always attempted.
type DispatchReport struct {
	Type      EventType       `json:"type"`
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Outcomes  []TargetOutcome `json:"outcomes"`
}
