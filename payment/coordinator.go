package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"enrollment-portal/backend"
	"enrollment-portal/errors"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/store"
)

// Backend is the slice of the REST client the coordinator drives.
type Backend interface {
	CreateOrder(ctx context.Context, intent models.PaymentIntent) (*models.PaymentOrder, error)
	CaptureOrder(ctx context.Context, orderID string, userID *int64) (*models.CaptureResult, error)
}

// EventPublisher receives lifecycle events. Publishing is best effort and
// must not block the payment flow.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentEvent)
}

type nopPublisher struct{}

func (nopPublisher) PublishPaymentEvent(context.Context, models.PaymentEvent) {}

var validate = validator.New()

// Coordinator owns the order id across the provider redirect. It holds no
// state of its own beyond the durable store, so a fresh Coordinator built on
// the same store after a full reload picks up where the last one stopped.
type Coordinator struct {
	backend Backend
	store   store.DurableStore
	events  EventPublisher
	log     *logger.Logger
	now     func() time.Time
}

type Option func(*Coordinator)

func WithEvents(p EventPublisher) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.events = p
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

func NewCoordinator(b Backend, s store.DurableStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend: b,
		store:   s,
		events:  nopPublisher{},
		log:     logger.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateOrder validates intent, opens an order with the backend, and persists
// the order id before returning. The caller may navigate to the approval URL
// only after a nil error. There is no automatic retry.
func (c *Coordinator) CreateOrder(ctx context.Context, intent models.PaymentIntent) (*models.PaymentOrder, error) {
	if err := validateIntent(intent); err != nil {
		return nil, err
	}

	order, err := c.backend.CreateOrder(ctx, intent)
	if err != nil {
		if errors.IsCanceled(err) {
			return nil, errors.E(errors.Canceled, "order creation canceled", err)
		}
		c.log.Error("[PAYMENT] create order failed for class %d user %d: %v", intent.ClassID, intent.UserID, err)
		return nil, errors.E(errors.OrderCreation, orderFailureMessage(err), err)
	}

	if err := c.store.Set(ctx, store.PendingOrderKey, order.OrderID); err != nil {
		c.log.Error("[PAYMENT] order %s created but not persisted: %v", order.OrderID, err)
		return nil, errors.E(errors.OrderCreation, "payment context could not be saved", err)
	}

	c.log.Info("[PAYMENT] order %s created for class %d user %d (%s %s)",
		order.OrderID, intent.ClassID, intent.UserID, intent.Amount.StringFixed(2), intent.Currency)

	amount := intent.Amount
	c.publish(ctx, models.PaymentEvent{
		Type:      models.EventOrderCreated,
		OrderID:   order.OrderID,
		PaymentID: order.PaymentID,
		ClassID:   &intent.ClassID,
		UserID:    &intent.UserID,
		Amount:    &amount,
		Currency:  intent.Currency,
	})
	return order, nil
}

// Begin opens an order for intent and returns the session holding it. The
// session is Idle when the error is non-nil.
func (c *Coordinator) Begin(ctx context.Context, intent models.PaymentIntent) (*Session, error) {
	s := NewSession()
	order, err := c.CreateOrder(ctx, intent)
	if err != nil {
		return s, err
	}
	if err := s.Transition(OrderCreated{Intent: intent, Order: *order}); err != nil {
		return s, err
	}
	c.log.Debug("[PAYMENT] session %s holds order %s", s.ID, order.OrderID)
	return s, nil
}

// ResumeFromReturn recovers the order id after the provider redirect. The
// provider's token query parameter wins over the stored value.
func (c *Coordinator) ResumeFromReturn(ctx context.Context, query url.Values) (string, error) {
	id, _, err := c.resume(ctx, query)
	return id, err
}

func (c *Coordinator) resume(ctx context.Context, query url.Values) (string, string, error) {
	if token := strings.TrimSpace(query.Get("token")); token != "" {
		return token, SourceQuery, nil
	}

	stored, ok, err := c.store.Get(ctx, store.PendingOrderKey)
	if err != nil {
		if ctx.Err() != nil {
			return "", "", errors.E(errors.Canceled, "resume canceled", ctx.Err())
		}
		// the order id may still be stored; a refresh can recover it
		c.log.Error("[PAYMENT] reading stored order id failed: %v", err)
		return "", "", errors.E(errors.CaptureNetwork, "payment context temporarily unavailable", err)
	}
	if ok && stored != "" {
		return stored, SourceStore, nil
	}

	return "", "", errors.E(errors.MissingOrderContext, "no order id in return url or durable store")
}

// CaptureOrder captures orderID. Success clears the stored order id. A
// rejected capture also clears it since the order can never succeed; any
// other failure keeps it so a refresh can retry with the same order.
func (c *Coordinator) CaptureOrder(ctx context.Context, orderID string, userID *int64) (*models.CaptureResult, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.E(errors.MissingOrderContext, "empty order id")
	}

	result, err := c.backend.CaptureOrder(ctx, orderID, userID)
	if err != nil {
		classified := classifyCapture(err)
		switch errors.KindOf(classified) {
		case errors.Canceled:
			c.log.Debug("[PAYMENT] capture of %s canceled by caller", orderID)
			return nil, classified
		case errors.CaptureRejected:
			c.log.Warn("[PAYMENT] capture of %s rejected: %v", orderID, err)
			c.clear(ctx, orderID)
		default:
			c.log.Error("[PAYMENT] capture of %s failed, order id kept for retry: %v", orderID, err)
		}
		c.publish(ctx, models.PaymentEvent{
			Type:      models.EventCaptureFailed,
			OrderID:   orderID,
			UserID:    userID,
			Retryable: errors.IsRetryable(classified),
			Reason:    err.Error(),
		})
		return nil, classified
	}

	result.OrderID = orderID
	if result.UserID == nil {
		result.UserID = userID
	}
	c.clear(ctx, orderID)

	c.log.Info("[PAYMENT] order %s captured, transaction %s", orderID, result.TransactionID)
	c.publish(ctx, models.PaymentEvent{
		Type:          models.EventCaptured,
		OrderID:       result.OrderID,
		TransactionID: result.TransactionID,
		PaymentID:     result.PaymentID,
		ClassID:       result.ClassID,
		UserID:        result.UserID,
		Amount:        result.Amount,
		Currency:      result.Currency,
	})
	return result, nil
}

// Reconfirm asks the backend for the capture of an order that already went
// through, e.g. to render a receipt. Capture is idempotent on the backend, so
// this neither touches the durable store nor emits events.
func (c *Coordinator) Reconfirm(ctx context.Context, orderID string, userID *int64) (*models.CaptureResult, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.E(errors.MissingOrderContext, "empty order id")
	}
	result, err := c.backend.CaptureOrder(ctx, orderID, userID)
	if err != nil {
		return nil, classifyCapture(err)
	}
	result.OrderID = orderID
	if result.UserID == nil {
		result.UserID = userID
	}
	return result, nil
}

// Finalize runs the return trip: recover the order id, capture it, and report
// the session it ended in. The error is the capture or resume failure, if
// any; the session is valid either way.
func (c *Coordinator) Finalize(ctx context.Context, query url.Values, userID *int64) (*Session, error) {
	s := NewSession()

	orderID, source, err := c.resume(ctx, query)
	if err != nil {
		return s, err
	}
	if err := s.Transition(AwaitingReturn{OrderID: orderID, Source: source}); err != nil {
		return s, err
	}
	if err := s.Transition(Capturing{OrderID: orderID, Attempt: 1}); err != nil {
		return s, err
	}

	result, err := c.CaptureOrder(ctx, orderID, userID)
	if err != nil {
		if errors.IsCanceled(err) {
			return s, err
		}
		if terr := s.Transition(CaptureFailed{
			OrderID:   orderID,
			Err:       err,
			Retryable: errors.IsRetryable(err),
			Attempt:   1,
		}); terr != nil {
			return s, terr
		}
		return s, err
	}

	if err := s.Transition(Captured{Result: *result}); err != nil {
		return s, err
	}
	return s, nil
}

// Abandon drops the stored order id, e.g. when the user cancels at the provider.
func (c *Coordinator) Abandon(ctx context.Context) (string, error) {
	orderID, _, err := c.store.Get(ctx, store.PendingOrderKey)
	if err != nil {
		return "", err
	}
	if err := c.store.Clear(ctx, store.PendingOrderKey); err != nil {
		return orderID, err
	}
	if orderID != "" {
		c.log.Info("[PAYMENT] order %s abandoned at provider", orderID)
	}
	return orderID, nil
}

func (c *Coordinator) clear(ctx context.Context, orderID string) {
	if err := c.store.Clear(context.WithoutCancel(ctx), store.PendingOrderKey); err != nil {
		c.log.Warn("[PAYMENT] clearing stored order %s failed: %v", orderID, err)
	}
}

func (c *Coordinator) publish(ctx context.Context, ev models.PaymentEvent) {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = c.now().UTC()
	c.events.PublishPaymentEvent(context.WithoutCancel(ctx), ev)
}

// classifyCapture maps a backend failure onto the user-facing taxonomy.
func classifyCapture(err error) error {
	if errors.IsCanceled(err) {
		return errors.E(errors.Canceled, "capture canceled", err)
	}
	var se *backend.StatusError
	if errors.As(err, &se) {
		if !se.Retryable() {
			return errors.E(errors.CaptureRejected, se.Message, err)
		}
		return errors.E(errors.CaptureNetwork, fmt.Sprintf("backend error %d", se.Code), err)
	}
	return errors.E(errors.CaptureNetwork, "capture did not complete", err)
}

func orderFailureMessage(err error) string {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	if errors.IsKind(err, errors.Malformed) {
		return "backend returned an unusable order"
	}
	return "backend unavailable"
}

func validateIntent(intent models.PaymentIntent) error {
	if err := validate.Struct(intent); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.E(errors.Invalid, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()), err)
		}
		return errors.E(errors.Invalid, "invalid payment intent", err)
	}
	if !intent.Amount.IsPositive() {
		return errors.NewInvalidParamsError("Amount must be greater than zero")
	}
	return nil
}
