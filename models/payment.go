package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntent is built fresh for every attempt and handed to the backend as-is.
type PaymentIntent struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required,len=3,uppercase"`
	ClassID     int64           `json:"classId" validate:"required,gt=0"`
	UserID      int64           `json:"userId" validate:"required,gt=0"`
	Description string          `json:"description,omitempty" validate:"max=255"`
}

// MarshalJSON sends the amount as a JSON number; the backend binds it to a
// numeric column.
func (p PaymentIntent) MarshalJSON() ([]byte, error) {
	type wire PaymentIntent
	return json.Marshal(struct {
		wire
		Amount json.Number `json:"amount"`
	}{wire(p), json.Number(p.Amount.String())})
}

// PaymentOrder is the backend's answer to order creation. OrderID is the
// join key between the pre-redirect and post-redirect halves of the flow.
type PaymentOrder struct {
	OrderID     string    `json:"orderId"`
	ApprovalURL string    `json:"approvalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	PaymentID   *int64    `json:"paymentId,omitempty"`
}

// CaptureResult is the terminal record of a successful capture.
type CaptureResult struct {
	OrderID       string           `json:"orderId"`
	TransactionID string           `json:"transactionId"`
	Completed     bool             `json:"completed"`
	CapturedAt    time.Time        `json:"capturedAt"`
	PaymentID     *int64           `json:"paymentId,omitempty"`
	ClassID       *int64           `json:"classId,omitempty"`
	UserID        *int64           `json:"userId,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
}
