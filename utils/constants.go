package utils

// Payment return outcomes reported by /payment-success
const (
	OutcomeCaptured            = "captured"
	OutcomeRetryable           = "retryable"
	OutcomeRejected            = "rejected"
	OutcomeMissingOrderContext = "missing_order_context"
	OutcomeFailed              = "failed"
)

// UserCookie remembers the paying user across the provider redirect so the
// capture can be attributed without a login session.
const UserCookie = "portal_uid"

const (
	ContentTypeJSON = "application/json"
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
