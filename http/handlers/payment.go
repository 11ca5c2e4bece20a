package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"enrollment-portal/backend"
	"enrollment-portal/config"
	"enrollment-portal/errors"
	"enrollment-portal/http/response"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/payment"
	"enrollment-portal/services"
	"enrollment-portal/utils"
)

// Pay starts a checkout for one class.
// POST /api/pay  {classId, userId, currency?, description?} as JSON or form
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(r)
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.UserID == 0 {
		if uid := cookieUserID(r); uid != nil {
			req.UserID = *uid
		}
	}

	intent, _, err := h.checkout.PrepareIntent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.coordinator(w, r).Begin(r.Context(), intent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created := s.State.(payment.OrderCreated)
	order := created.Order

	http.SetCookie(w, &http.Cookie{
		Name:     utils.UserCookie,
		Value:    strconv.FormatInt(intent.UserID, 10),
		Path:     "/",
		MaxAge:   int(config.AppConfig.StoreTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	if utils.WantsJSON(r) {
		response.SuccessResponse(w, http.StatusCreated, "Order created", map[string]interface{}{
			"orderId":     order.OrderID,
			"approvalUrl": order.ApprovalURL,
			"paymentId":   order.PaymentID,
			"sessionId":   s.ID,
			"state":       s.State.Name(),
		})
		return
	}
	http.Redirect(w, r, order.ApprovalURL, http.StatusSeeOther)
}

func decodeCheckout(r *http.Request) (services.CheckoutRequest, error) {
	var req services.CheckoutRequest
	if utils.IsJSONBody(r) {
		err := utils.DecodeJSONRequest(r, &req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	for name, dst := range map[string]*int64{"classId": &req.ClassID, "userId": &req.UserID} {
		v, err := utils.OptionalInt64(r.PostForm.Get(name))
		if err != nil {
			return req, err
		}
		if v != nil {
			*dst = *v
		}
	}
	req.Currency = r.PostForm.Get("currency")
	req.Description = r.PostForm.Get("description")
	return req, nil
}

// paymentOutcome is the body of /payment-success whatever happened.
type paymentOutcome struct {
	Outcome   string                `json:"outcome"`
	State     string                `json:"state"`
	SessionID string                `json:"sessionId"`
	OrderID   string                `json:"orderId,omitempty"`
	Retryable bool                  `json:"retryable"`
	Message   string                `json:"message"`
	Capture   *models.CaptureResult `json:"capture,omitempty"`
}

// PaymentSuccess is the provider's return URL. It recovers the order id from
// ?token= or the durable store and captures it.
// GET /payment-success?token=&userId=
func (h *Handler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.QueryInt64(r, "userId")
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if userID == nil {
		userID = cookieUserID(r)
	}

	s, err := h.coordinator(w, r).Finalize(r.Context(), r.URL.Query(), userID)
	if errors.IsCanceled(err) || r.Context().Err() != nil {
		logger.Debug("[PAYMENT] return trip abandoned by client")
		return
	}

	out := outcomeOf(s, err)
	if err != nil {
		response.FailureResponse(w, statusFor(err), out.Outcome, out.Message, out)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Payment successful", out)
}

func outcomeOf(s *payment.Session, err error) paymentOutcome {
	out := paymentOutcome{
		State:     s.State.Name(),
		SessionID: s.ID,
		OrderID:   s.OrderID(),
	}
	if err == nil {
		out.Outcome = utils.OutcomeCaptured
		out.Message = "Payment successful. Your enrollment will be active shortly."
		if c, ok := s.State.(payment.Captured); ok {
			result := c.Result
			out.Capture = &result
		}
		return out
	}

	out.Message = errors.UserMessage(err)
	out.Retryable = errors.IsRetryable(err)
	switch errors.KindOf(err) {
	case errors.CaptureNetwork:
		out.Outcome = utils.OutcomeRetryable
	case errors.CaptureRejected:
		out.Outcome = utils.OutcomeRejected
	case errors.MissingOrderContext:
		out.Outcome = utils.OutcomeMissingOrderContext
	default:
		out.Outcome = utils.OutcomeFailed
	}
	return out
}

// PaymentCancel is the provider's cancel URL; the pending order is dropped.
// GET /payment-cancel
func (h *Handler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := h.coordinator(w, r).Abandon(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Payment canceled. You have not been charged.", map[string]interface{}{
		"orderId": orderID,
	})
}

// Receipt renders the PDF receipt of an order that was already captured.
// GET /api/payments/receipt/{orderId}?userId=
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(r.PathValue("orderId"))
	userID, err := utils.QueryInt64(r, "userId")
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if userID == nil {
		userID = cookieUserID(r)
	}

	result, err := h.coordinator(w, r).Reconfirm(r.Context(), orderID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec := services.Receipt{Capture: *result, IssuedAt: result.CapturedAt}
	if result.UserID != nil {
		if p, err := h.backend.GetProfile(r.Context(), backend.ProfileStudent, *result.UserID); err == nil {
			rec.Student = &p
		} else {
			logger.Debug("[PAYMENT] receipt %s without student details: %v", orderID, err)
		}
	}
	if result.ClassID != nil {
		if c, err := h.backend.GetClass(r.Context(), *result.ClassID); err == nil {
			rec.Class = &c
		} else {
			logger.Debug("[PAYMENT] receipt %s without class details: %v", orderID, err)
		}
	}

	pdf, err := services.GenerateReceipt(rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.SendFile(w, utils.ContentTypePDF, services.ReceiptFileName(orderID), pdf)
}

func cookieUserID(r *http.Request) *int64 {
	ck, err := r.Cookie(utils.UserCookie)
	if err != nil {
		return nil
	}
	uid, err := utils.OptionalInt64(ck.Value)
	if err != nil {
		return nil
	}
	return uid
}
