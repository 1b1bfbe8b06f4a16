package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldUpdatedAt        = "updated_at"

	fieldTitle        = "title"
	fieldDetail       = "detail"
	fieldCompleted    = "completed"
	fieldStartDate    = "start_date"
	fieldStartTime    = "start_time"
	fieldNotification = "notification"
)
