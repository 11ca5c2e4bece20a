package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment lifecycle event types published to Kafka.
const (
	EventOrderCreated  = "payment.order_created"
	EventCaptured      = "payment.captured"
	EventCaptureFailed = "payment.capture_failed"
)

// PaymentEvent is the message body for every payment lifecycle event.
type PaymentEvent struct {
	EventID       string           `json:"eventId"`
	Type          string           `json:"type"`
	SessionID     string           `json:"sessionId,omitempty"`
	OrderID       string           `json:"orderId"`
	TransactionID string           `json:"transactionId,omitempty"`
	PaymentID     *int64           `json:"paymentId,omitempty"`
	ClassID       *int64           `json:"classId,omitempty"`
	UserID        *int64           `json:"userId,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Retryable     bool             `json:"retryable,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}
