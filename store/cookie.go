package store

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const cookiePrefix = "portal_"

// CookieStore keeps values in the browser, which is the only storage that
// follows the user through the provider redirect without server state. It is
// bound to one request/response pair; writes are visible to later reads in
// the same request.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	ttl    time.Duration
	secure bool

	mu      sync.Mutex
	pending map[string]*string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, ttl time.Duration) *CookieStore {
	return &CookieStore{
		w:       w,
		r:       r,
		ttl:     ttl,
		secure:  r.TLS != nil,
		pending: make(map[string]*string),
	}
}

func (c *CookieStore) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	if v, ok := c.pending[key]; ok {
		c.mu.Unlock()
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	c.mu.Unlock()

	ck, err := c.r.Cookie(cookiePrefix + key)
	if err != nil || ck.Value == "" {
		return "", false, nil
	}
	v, err := url.QueryUnescape(ck.Value)
	if err != nil {
		return "", false, nil
	}
	return v, true, nil
}

func (c *CookieStore) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	c.pending[key] = &value
	c.mu.Unlock()

	http.SetCookie(c.w, &http.Cookie{
		Name:     cookiePrefix + key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *CookieStore) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	c.pending[key] = nil
	c.mu.Unlock()

	http.SetCookie(c.w, &http.Cookie{
		Name:     cookiePrefix + key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
