package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEAndKindOf(t *testing.T) {
	base := NewError("connection reset")
	err := E(CaptureNetwork, "capture O-1", base)

	assert.Equal(t, CaptureNetwork, KindOf(err))
	assert.True(t, Is(err, base))
	assert.Equal(t, "capture network failure: capture O-1: connection reset", err.Error())

	wrapped := fmt.Errorf("finalize: %w", err)
	assert.Equal(t, CaptureNetwork, KindOf(wrapped))
	assert.Equal(t, Other, KindOf(base))
}

func TestRetryableAndCanceled(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		canceled  bool
	}{
		{name: "network", err: E(CaptureNetwork, "x"), retryable: true},
		{name: "rejected", err: E(CaptureRejected, "x")},
		{name: "tagged cancel", err: E(Canceled, context.Canceled), canceled: true},
		{name: "bare cancel", err: fmt.Errorf("get: %w", context.Canceled), canceled: true},
		{name: "nil", err: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.canceled, IsCanceled(tt.err))
		})
	}
}

func TestUserMessageDistinguishesRetry(t *testing.T) {
	assert.Contains(t, UserMessage(E(CaptureNetwork)), "try again")
	assert.Contains(t, UserMessage(E(CaptureRejected)), "cannot be completed")
	assert.Equal(t, "We cannot determine which payment to finalize.", UserMessage(E(MissingOrderContext)))
	assert.Equal(t, "classId is required", UserMessage(E(Invalid, "classId is required")))
}

func TestKindMarshalJSON(t *testing.T) {
	b, err := CaptureRejected.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"capture rejected"`, string(b))
}

func TestConstructorKinds(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(NewNotFoundError("class 9 not found")))
	invalid := NewInvalidParamsError("class ID required")
	assert.Equal(t, Invalid, KindOf(invalid))
	assert.Equal(t, "class ID required", UserMessage(invalid))
}
