package services

import (
	"context"
	"fmt"
	"time"

	"enrollment-portal/backend"
	"enrollment-portal/errors"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/utils"
)

// ReceiptSource is the part of the backend the receipt notifier reads from.
type ReceiptSource interface {
	GetProfile(ctx context.Context, kind string, id int64) (models.ProfileRecord, error)
	GetClass(ctx context.Context, id int64) (models.ClassRecord, error)
}

// ReceiptNotifier emails a PDF receipt to the student for every captured
// payment.
type ReceiptNotifier struct {
	source ReceiptSource
	send   func(to string, r Receipt, pdf []byte) error
	now    func() time.Time
}

func NewReceiptNotifier(source ReceiptSource) *ReceiptNotifier {
	return &ReceiptNotifier{source: source, send: SendReceiptEmail, now: time.Now}
}

// HandleCaptured is registered for payment.captured. A returned error parks
// the event in the DLQ for a later retry, so only transient failures return
// one; events that can never produce an email are logged and dropped.
func (n *ReceiptNotifier) HandleCaptured(ctx context.Context, event models.PaymentEvent) error {
	if event.UserID == nil {
		logger.Warn("[RECEIPT] order %s captured without a user id, no receipt sent", event.OrderID)
		return nil
	}

	student, err := n.source.GetProfile(ctx, backend.ProfileStudent, *event.UserID)
	if err != nil {
		if errors.IsKind(err, errors.NotFound) {
			logger.Warn("[RECEIPT] student %d not found, no receipt for order %s", *event.UserID, event.OrderID)
			return nil
		}
		return fmt.Errorf("fetching student %d: %w", *event.UserID, err)
	}
	if err := utils.ValidateEmail(student.Email); err != nil {
		logger.Warn("[RECEIPT] student %d: %v, no receipt for order %s", *event.UserID, err, event.OrderID)
		return nil
	}

	r := Receipt{
		Capture:  CaptureFromEvent(event),
		Student:  &student,
		IssuedAt: n.now(),
	}
	if event.ClassID != nil {
		class, err := n.source.GetClass(ctx, *event.ClassID)
		if err != nil {
			logger.Debug("[RECEIPT] class %d lookup failed, printing id only: %v", *event.ClassID, err)
		} else {
			r.Class = &class
		}
	}

	pdf, err := GenerateReceipt(r)
	if err != nil {
		return err
	}
	if err := n.send(student.Email, r, pdf); err != nil {
		return err
	}

	logger.Info("[RECEIPT] receipt for order %s sent to %s", event.OrderID, student.Email)
	return nil
}

// CaptureFromEvent rebuilds the capture result carried by a payment.captured
// event.
func CaptureFromEvent(event models.PaymentEvent) models.CaptureResult {
	return models.CaptureResult{
		OrderID:       event.OrderID,
		TransactionID: event.TransactionID,
		Completed:     true,
		CapturedAt:    event.OccurredAt,
		PaymentID:     event.PaymentID,
		ClassID:       event.ClassID,
		UserID:        event.UserID,
		Amount:        event.Amount,
		Currency:      event.Currency,
	}
}
