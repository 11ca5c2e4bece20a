package errors

import (
	// Go internal packages
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Error defines a standard application error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Wrapped underlying error.
	WrappedErr error `json:"-"`
}

// Error returns the string representation of the error message.
func (e *Error) Error() string {
	parts := []string{e.Kind.String()}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.WrappedErr != nil {
		parts = append(parts, e.WrappedErr.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.WrappedErr
}

// NewError returns standard go error with given string
func NewError(e string) error {
	return errors.New(e)
}

// Kind defines the kind or class of an error.
type Kind uint8

// Transport agnostic error "kinds"
const (
	Other        Kind = iota // Unclassified error
	Internal                 // Internal error
	Conflict                 // Conflict when an entity already exists
	Invalid                  // Invalid input, validation error etc
	NotFound                 // Entity does not exist
	Unauthorized             // Unauthorized access
	Forbidden                // Forbidden access

	OrderCreation       // Order could not be created (network or validation)
	MissingOrderContext // Return trip carries no recoverable order id
	CaptureNetwork      // Capture failed in transit; retry with the same order id
	CaptureRejected     // Backend refused the capture; order id is dead
	Canceled            // Caller went away; never surfaced to the user
	Malformed           // Payload is not a JSON object
	IllegalTransition   // Payment session moved out of order
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "unclassified error"
	case Internal:
		return "internal error"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid input"
	case NotFound:
		return "entity not found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case OrderCreation:
		return "order creation failed"
	case MissingOrderContext:
		return "missing order context"
	case CaptureNetwork:
		return "capture network failure"
	case CaptureRejected:
		return "capture rejected"
	case Canceled:
		return "canceled"
	case Malformed:
		return "malformed payload"
	case IllegalTransition:
		return "illegal payment transition"
	default:
		return "unknown error kind"
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case error:
			e.WrappedErr = arg
		case string:
			e.Message = arg
		}
	}
	return e
}

// KindOf returns the Kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// IsRetryable reports whether the user may retry with the same order id.
func IsRetryable(err error) bool {
	return IsKind(err, CaptureNetwork)
}

// IsCanceled reports caller cancellation, either tagged or a bare context.Canceled.
func IsCanceled(err error) bool {
	return IsKind(err, Canceled) || errors.Is(err, context.Canceled)
}

// UserMessage returns text that tells the user whether trying again can help.
func UserMessage(err error) string {
	switch KindOf(err) {
	case OrderCreation:
		return "We could not start your payment. Please try again."
	case MissingOrderContext:
		return "We cannot determine which payment to finalize."
	case CaptureNetwork:
		return "We could not confirm your payment yet. Refresh this page to try again."
	case CaptureRejected:
		return "This payment cannot be completed. Please start a new payment."
	case Invalid:
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			return e.Message
		}
		return "The request is invalid."
	case NotFound:
		return "The requested record was not found."
	default:
		return "Something went wrong. Please try again later."
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string) error {
	return E(NotFound, msg)
}

// NewInvalidParamsError creates a new invalid parameters error
func NewInvalidParamsError(msg string) error {
	return E(Invalid, msg)
}

var (
	As = errors.As
	Is = errors.Is
)
