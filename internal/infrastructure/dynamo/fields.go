package dynamo

// DynamoDB attribute names used in key, update and filter expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldPK           = "pk"
	fieldSK           = "sk"
	fieldUserID       = "user_id"
	fieldRead         = "read"
	fieldUpdatedAt    = "updated_at"
	fieldConnectionID = "connection_id"
	fieldLastActivity = "last_activity"
)

// Index names.
const (
	indexConnectionsByUser = "user_id-index"
)
