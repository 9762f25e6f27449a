package dynamo

// DynamoDB attribute names used in key conditions and update expressions.
const (
	fieldRequestID      = "request_id"
	fieldNotificationID = "notification_id"
	fieldUserID         = "user_id"
	fieldSessionID      = "session_id"
	fieldEmail          = "email"
	fieldStatus         = "status"
	fieldKind           = "kind"
	fieldCategory       = "category"
	fieldUrgency        = "urgency"
	fieldClaimedBy      = "claimed_by"
	fieldClaimedAt      = "claimed_at"
	fieldClaimSeq       = "claim_seq"
	fieldImageURL       = "image_url"
	fieldUpdatedAt      = "updated_at"
	fieldRead           = "read"
	fieldEnable         = "enable"
	fieldLocation       = "location"
)

// Secondary indexes.
const (
	indexRequestsByOwner     = "user_id-created_at-index"
	indexRequestsByStatus    = "status-created_at-index"
	indexRequestsAll         = "all-created_at-index"
	indexRequestsByClaimant  = "claimed_by-claimed_at-index"
	indexNotificationsByUser = "user_id-created_at-index"
	indexAccountsByEmail     = "email-index"
	indexSessionsByUser      = "user_id-index"
	indexDonationsByRequest  = "request_id-index"
)
