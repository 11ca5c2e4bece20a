package handlers

import (
	"context"
	"net/http"

	"enrollment-portal/backend"
	"enrollment-portal/errors"
	"enrollment-portal/http/response"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/payment"
	"enrollment-portal/services"
	"enrollment-portal/store"
)

// Backend is everything the portal reads from or asks of the institute API.
type Backend interface {
	payment.Backend
	services.ClassCatalog
	services.ReceiptSource
	ListEnrollments(ctx context.Context) ([]models.EnrollmentRecord, error)
	EnrollmentsByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentRecord, error)
	EnrollmentsByClass(ctx context.Context, classID int64) ([]models.EnrollmentRecord, error)
	EnrollmentsByPayment(ctx context.Context, paymentID int64) ([]models.EnrollmentRecord, error)
}

// Handler serves the portal API. It is safe for concurrent use; per-request
// state lives in the store the factory hands out.
type Handler struct {
	backend  Backend
	stores   store.Factory
	checkout *services.PaymentService
	events   payment.EventPublisher
}

func New(b Backend, stores store.Factory, events payment.EventPublisher) *Handler {
	return &Handler{
		backend:  b,
		stores:   stores,
		checkout: services.NewPaymentService(b),
		events:   events,
	}
}

// coordinator is rebuilt per request on top of the request's durable store.
func (h *Handler) coordinator(w http.ResponseWriter, r *http.Request) *payment.Coordinator {
	return payment.NewCoordinator(h.backend, h.stores(w, r), payment.WithEvents(h.events))
}

// statusFor maps an error onto the HTTP status the portal answers with.
func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.Invalid, errors.MissingOrderContext:
		return http.StatusBadRequest
	case errors.NotFound:
		return http.StatusNotFound
	case errors.CaptureRejected, errors.Conflict:
		return http.StatusConflict
	case errors.CaptureNetwork:
		return http.StatusServiceUnavailable
	case errors.OrderCreation, errors.Malformed:
		return http.StatusBadGateway
	}

	var se *backend.StatusError
	var te *backend.TransportError
	if errors.As(err, &se) || errors.As(err, &te) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	if statusFor(err) == http.StatusBadGateway && errors.KindOf(err) == errors.Other {
		return "The enrollment service is unavailable. Please try again later."
	}
	return errors.UserMessage(err)
}

// writeError answers with the mapped status. A canceled request gets nothing:
// the client is gone.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.IsCanceled(err) || r.Context().Err() != nil {
		logger.Debug("[HTTP] %s %s canceled: %v", r.Method, r.URL.Path, err)
		return
	}
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error("[HTTP] %s %s: %v", r.Method, r.URL.Path, err)
	}
	response.ErrorResponse(w, code, messageFor(err))
}
