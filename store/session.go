package store

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie identifies one browser across the provider round trip.
const SessionCookie = "portal_sid"

// SessionID returns the browser's session id, minting and setting a new one
// when the cookie is absent or not a uuid.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(ck.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Factory yields the store a request should use.
type Factory func(w http.ResponseWriter, r *http.Request) DurableStore

// CookieFactory keeps the pending order in the browser itself.
func CookieFactory(ttl time.Duration) Factory {
	return func(w http.ResponseWriter, r *http.Request) DurableStore {
		return NewCookieStore(w, r, ttl)
	}
}

// SharedFactory scopes a server-side store to the browser session.
func SharedFactory(s DurableStore) Factory {
	return func(w http.ResponseWriter, r *http.Request) DurableStore {
		return Scoped(s, SessionID(w, r))
	}
}
