package normalizer

import (
	"fmt"
	"time"

	"enrollment-portal/errors"
	"enrollment-portal/models"
)

var (
	orderID         = Keys("paypalOrderId", "orderId", "order_id", "paypal_order_id")
	approvalURL     = Keys("approvalUrl", "approval_url", "approveUrl")
	transactionID   = Keys("paypalTransactionId", "transactionId", "transaction_id")
	completed       = Keys("paymentCompleted", "completed", "payment_completed")
	orderPaymentID  = Keys("id", "paymentId", "payment_id")
	captureAmount   = Keys("amount", "price")
	captureCurrency = Keys("currency")
)

// NormalizeOrder reads an order-creation response. Both the order id and the
// approval URL are required; without them the redirect cannot happen.
func NormalizeOrder(raw any) (models.PaymentOrder, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.PaymentOrder{}, errors.E(errors.Malformed,
			fmt.Sprintf("order payload is %T, want object", raw), nil)
	}

	const rec = "order"
	o := models.PaymentOrder{
		OrderID:     valueOrEmpty(stringField(obj, rec, "orderId", orderID)),
		ApprovalURL: valueOrEmpty(stringField(obj, rec, "approvalUrl", approvalURL)),
		CreatedAt:   time.Now().UTC(),
		PaymentID:   intField(obj, rec, "paymentId", orderPaymentID),
	}
	if o.OrderID == "" || o.ApprovalURL == "" {
		return o, errors.E(errors.Malformed, "order response is missing the order id or approval url", nil)
	}
	return o, nil
}

// NormalizeCapture reads a capture response. fallbackOrderID fills in the
// order id when the backend echoes only the transaction.
func NormalizeCapture(raw any, fallbackOrderID string) (models.CaptureResult, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.CaptureResult{}, errors.E(errors.Malformed,
			fmt.Sprintf("capture payload is %T, want object", raw), nil)
	}

	const rec = "capture"
	c := models.CaptureResult{
		OrderID:       valueOrEmpty(stringField(obj, rec, "orderId", orderID)),
		TransactionID: valueOrEmpty(stringField(obj, rec, "transactionId", transactionID)),
		CapturedAt:    time.Now().UTC(),
		PaymentID:     intField(obj, rec, "paymentId", orderPaymentID),
		ClassID:       intField(obj, rec, "classId", enrollmentClassID),
		UserID:        intField(obj, rec, "userId", userID),
		Currency:      valueOrEmpty(stringField(obj, rec, "currency", captureCurrency)),
	}
	if c.OrderID == "" {
		c.OrderID = fallbackOrderID
	}
	if done := statusField(obj, rec, "completed", completed); done != nil {
		c.Completed = *done
	}
	if v, ok := captureAmount.First(obj); ok {
		if d, ok := asDecimal(v); ok {
			c.Amount = &d
		}
	}
	return c, nil
}
