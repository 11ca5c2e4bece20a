package http

import (
	"net/http"

	"enrollment-portal/http/handlers"
	"enrollment-portal/http/middleware"
)

// NewRouter configures all HTTP routes and middleware
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Payment flow
	mux.HandleFunc("POST /api/pay", h.Pay)
	mux.HandleFunc("GET /payment-success", h.PaymentSuccess)
	mux.HandleFunc("GET /payment-cancel", h.PaymentCancel)
	mux.HandleFunc("GET /api/payments/receipt/{orderId}", h.Receipt)

	// Enrollment APIs
	mux.HandleFunc("GET /api/enrollments", h.ListEnrollments)
	mux.HandleFunc("GET /api/enrollments/student/{id}", h.EnrollmentsByStudent)
	mux.HandleFunc("GET /api/enrollments/class/{id}", h.EnrollmentsByClass)
	mux.HandleFunc("GET /api/enrollments/payment/{id}", h.EnrollmentsByPayment)
	mux.HandleFunc("GET /api/my-enrollments/{studentId}", h.MyEnrollments)
	mux.HandleFunc("GET /api/admin/enrollments/export", h.ExportEnrollments)

	// Profiles
	mux.HandleFunc("GET /api/profiles/{kind}/{id}", h.GetProfile)

	// DLQ Management APIs
	mux.HandleFunc("GET /api/dlq/messages", handlers.GetDLQMessages)
	mux.HandleFunc("POST /api/dlq/messages/{id}/retry", handlers.RetryDLQMessage)
	mux.HandleFunc("POST /api/dlq/messages/{id}/resolve", handlers.ResolveDLQMessage)

	mux.HandleFunc("GET /healthz", handlers.Healthz)

	return middleware.RequestLogger(middleware.EnableCORS(mux))
}
