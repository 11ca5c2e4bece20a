package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"enrollment-portal/backend"
	"enrollment-portal/errors"
	"enrollment-portal/payment"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "order creation", err: errors.E(errors.OrderCreation, "x"), want: http.StatusBadGateway},
		{name: "missing order", err: errors.E(errors.MissingOrderContext, "x"), want: http.StatusBadRequest},
		{name: "capture network", err: errors.E(errors.CaptureNetwork, "x"), want: http.StatusServiceUnavailable},
		{name: "capture rejected", err: errors.E(errors.CaptureRejected, "x"), want: http.StatusConflict},
		{name: "invalid", err: errors.E(errors.Invalid, "x"), want: http.StatusBadRequest},
		{name: "not found", err: errors.E(errors.NotFound, "x"), want: http.StatusNotFound},
		{name: "raw backend status", err: &backend.StatusError{Code: 500, Message: "boom"}, want: http.StatusBadGateway},
		{name: "raw transport", err: &backend.TransportError{Err: context.DeadlineExceeded, Timeout: true}, want: http.StatusBadGateway},
		{name: "anything else", err: errors.NewError("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteErrorSkipsCanceled(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/payment-success", nil)
	writeError(rec, r, errors.E(errors.Canceled, "gone", context.Canceled))
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	writeError(rec, r, errors.E(errors.CaptureRejected, "Order already captured"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "start a new payment")
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name      string
		state     payment.State
		err       error
		outcome   string
		retryable bool
	}{
		{name: "captured", state: payment.Captured{}, outcome: "captured"},
		{name: "network", state: payment.CaptureFailed{OrderID: "ORD-1", Retryable: true}, err: errors.E(errors.CaptureNetwork, "x"), outcome: "retryable", retryable: true},
		{name: "rejected", state: payment.CaptureFailed{OrderID: "ORD-1"}, err: errors.E(errors.CaptureRejected, "x"), outcome: "rejected"},
		{name: "missing", state: payment.Idle{}, err: errors.E(errors.MissingOrderContext, "x"), outcome: "missing_order_context"},
		{name: "other", state: payment.Idle{}, err: errors.E(errors.IllegalTransition, "x"), outcome: "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := outcomeOf(&payment.Session{ID: "s-1", State: tt.state}, tt.err)
			assert.Equal(t, tt.outcome, out.Outcome)
			assert.Equal(t, tt.retryable, out.Retryable)
			assert.Equal(t, tt.state.Name(), out.State)
			assert.NotEmpty(t, out.Message)
		})
	}
}
