package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollment-portal/errors"
	"enrollment-portal/models"
)

func TestSessionTransitions(t *testing.T) {
	order := models.PaymentOrder{OrderID: "ORD-1"}

	tt := []struct {
		name  string
		steps []State
		ok    bool
	}{
		{"create then capture", []State{OrderCreated{Order: order}, Capturing{OrderID: "ORD-1"}, Captured{Result: models.CaptureResult{OrderID: "ORD-1"}}}, true},
		{"return trip", []State{AwaitingReturn{OrderID: "ORD-1"}, Capturing{OrderID: "ORD-1"}, Captured{Result: models.CaptureResult{OrderID: "ORD-1"}}}, true},
		{"retry after network failure", []State{AwaitingReturn{OrderID: "ORD-1"}, Capturing{OrderID: "ORD-1"}, CaptureFailed{OrderID: "ORD-1", Retryable: true}, Capturing{OrderID: "ORD-1", Attempt: 2}}, true},
		{"no retry after rejection", []State{AwaitingReturn{OrderID: "ORD-1"}, Capturing{OrderID: "ORD-1"}, CaptureFailed{OrderID: "ORD-1"}, Capturing{OrderID: "ORD-1"}}, false},
		{"capture from idle", []State{Capturing{OrderID: "ORD-1"}}, false},
		{"capture other order", []State{AwaitingReturn{OrderID: "ORD-1"}, Capturing{OrderID: "ORD-2"}}, false},
		{"capture without id", []State{OrderCreated{Order: order}, Capturing{}}, false},
		{"captured is final", []State{AwaitingReturn{OrderID: "ORD-1"}, Capturing{OrderID: "ORD-1"}, Captured{Result: models.CaptureResult{OrderID: "ORD-1"}}, Capturing{OrderID: "ORD-1"}}, false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession()
			var err error
			for _, st := range tc.steps {
				if err = s.Transition(st); err != nil {
					break
				}
			}
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, "ORD-1", s.OrderID())
				return
			}
			assert.True(t, errors.IsKind(err, errors.IllegalTransition), "%v", err)
		})
	}
}

func TestSessionTerminal(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Terminal())
	assert.Empty(t, s.OrderID())
	assert.Equal(t, "idle", s.State.Name())

	require.NoError(t, s.Transition(AwaitingReturn{OrderID: "ORD-1", Source: SourceStore}))
	require.NoError(t, s.Transition(Capturing{OrderID: "ORD-1"}))
	require.NoError(t, s.Transition(CaptureFailed{OrderID: "ORD-1"}))
	assert.True(t, s.Terminal())
	assert.Equal(t, "capture_failed", s.State.Name())
}
