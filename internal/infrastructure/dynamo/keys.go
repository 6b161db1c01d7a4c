package dynamo

import (
	"strings"
	"time"
)

const (
	userPrefix         = "USER#"
	notificationPrefix = "NOTIFICATION#"
	// sortTimeLayout is fixed width so sort keys order lexically by time.
	sortTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// UserPK returns the partition key of a user's notification log.
func UserPK(userID string) string {
	return userPrefix + userID
}

// NotificationSK returns a sort key for a record created at t. The suffix
// (a ULID) breaks ties between records written in the same instant.
func NotificationSK(t time.Time, suffix string) string {
	return notificationPrefix + t.UTC().Format(sortTimeLayout) + "#" + suffix
}

// UserIDFromPK strips the USER# prefix.
func UserIDFromPK(pk string) string {
	return strings.TrimPrefix(pk, userPrefix)
}
