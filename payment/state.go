// Package payment coordinates one payment attempt across the redirect to the
// provider: order creation, the return trip, and capture.
package payment

import (
	"fmt"

	"github.com/google/uuid"

	"enrollment-portal/errors"
	"enrollment-portal/models"
)

// State is one step of a payment session. The set of variants is closed.
type State interface {
	Name() string
	sealed()
}

// Idle is a session that has neither created nor recovered an order.
type Idle struct{}

// OrderCreated holds the order the backend opened and the intent behind it.
type OrderCreated struct {
	Intent models.PaymentIntent
	Order  models.PaymentOrder
}

// AwaitingReturn is built only from recovered data after the provider
// redirect: the query token or the durable store.
type AwaitingReturn struct {
	OrderID string
	Source  string
}

// Order id sources for AwaitingReturn.
const (
	SourceQuery = "query"
	SourceStore = "store"
)

type Capturing struct {
	OrderID string
	Attempt int
}

type Captured struct {
	Result models.CaptureResult
}

// CaptureFailed keeps the order id so a retryable failure can go back to
// Capturing with the same order.
type CaptureFailed struct {
	OrderID   string
	Err       error
	Retryable bool
	Attempt   int
}

func (Idle) Name() string           { return "idle" }
func (OrderCreated) Name() string   { return "order_created" }
func (AwaitingReturn) Name() string { return "awaiting_return" }
func (Capturing) Name() string      { return "capturing" }
func (Captured) Name() string       { return "captured" }
func (CaptureFailed) Name() string  { return "capture_failed" }

func (Idle) sealed()           {}
func (OrderCreated) sealed()   {}
func (AwaitingReturn) sealed() {}
func (Capturing) sealed()      {}
func (Captured) sealed()       {}
func (CaptureFailed) sealed()  {}

// Session tracks one attempt. ID correlates log lines and events.
type Session struct {
	ID    string
	State State
}

func NewSession() *Session {
	return &Session{ID: uuid.NewString(), State: Idle{}}
}

// OrderID is the order the session is working on, or "" before one exists.
func (s *Session) OrderID() string {
	switch st := s.State.(type) {
	case OrderCreated:
		return st.Order.OrderID
	case AwaitingReturn:
		return st.OrderID
	case Capturing:
		return st.OrderID
	case Captured:
		return st.Result.OrderID
	case CaptureFailed:
		return st.OrderID
	default:
		return ""
	}
}

// Terminal reports whether no further transition is expected.
func (s *Session) Terminal() bool {
	switch st := s.State.(type) {
	case Captured:
		return true
	case CaptureFailed:
		return !st.Retryable
	default:
		return false
	}
}

// Transition moves the session to next, refusing moves the payment flow does
// not allow. Capturing must carry the order id the session already holds.
func (s *Session) Transition(next State) error {
	if err := s.check(next); err != nil {
		return errors.E(errors.IllegalTransition,
			fmt.Sprintf("%s -> %s", s.State.Name(), next.Name()), err)
	}
	s.State = next
	return nil
}

func (s *Session) check(next State) error {
	switch cur := s.State.(type) {
	case Idle:
		switch next.(type) {
		case OrderCreated, AwaitingReturn:
			return nil
		}
	case OrderCreated:
		switch n := next.(type) {
		case AwaitingReturn:
			return sameOrder(cur.Order.OrderID, n.OrderID)
		case Capturing:
			return sameOrder(cur.Order.OrderID, n.OrderID)
		}
	case AwaitingReturn:
		if n, ok := next.(Capturing); ok {
			return sameOrder(cur.OrderID, n.OrderID)
		}
	case Capturing:
		switch n := next.(type) {
		case Captured:
			return sameOrder(cur.OrderID, n.Result.OrderID)
		case CaptureFailed:
			return sameOrder(cur.OrderID, n.OrderID)
		}
	case CaptureFailed:
		if n, ok := next.(Capturing); ok {
			if !cur.Retryable {
				return fmt.Errorf("order %s was rejected", cur.OrderID)
			}
			return sameOrder(cur.OrderID, n.OrderID)
		}
	}
	return fmt.Errorf("not a legal step")
}

func sameOrder(have, want string) error {
	if want == "" || have != want {
		return fmt.Errorf("order id %q does not match session order %q", want, have)
	}
	return nil
}
