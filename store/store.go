// Package store keeps the pending order id alive across the redirect to the
// payment provider and back.
package store

import (
	"context"
)

// PendingOrderKey is the well-known key the order id is stored under.
const PendingOrderKey = "paypalOrderId"

// DurableStore is a small string key/value store that survives the portal
// losing all in-memory state between order creation and the return trip.
// A missing key is ("", false, nil), never an error.
type DurableStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// Scoped namespaces every key under a session id, so server-side backends
// shared by all browsers keep one pending order per browser session.
func Scoped(s DurableStore, sessionID string) DurableStore {
	return scoped{inner: s, prefix: "sess:" + sessionID + ":"}
}

type scoped struct {
	inner  DurableStore
	prefix string
}

func (s scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s scoped) Clear(ctx context.Context, key string) error {
	return s.inner.Clear(ctx, s.prefix+key)
}
