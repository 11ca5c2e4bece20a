// Package backend is the portal's client for the institute REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"enrollment-portal/errors"
	"enrollment-portal/logger"
)

const maxBodyBytes = 4 << 20

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}

// Client reports a 4xx answer as the caller's fault.
func (e *StatusError) Client() bool { return e.Code >= 400 && e.Code < 500 }

// Retryable reports an answer that may succeed if the same request is sent
// again: server errors, timeouts and throttling.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return !e.Client()
}

// TransportError means no usable answer arrived: connection failure, timeout,
// or a body that could not be read.
type TransportError struct {
	Err     error
	Timeout bool
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return "backend request timed out: " + e.Err.Error()
	}
	return "backend unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New returns a client rooted at baseURL. Every call is bounded by timeout on
// top of whatever deadline the caller's context carries.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// do sends one request and decodes the JSON answer with UseNumber. An empty
// body decodes to nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, errors.E(errors.Internal, "encoding request body", err)
		}
		reader = bytes.NewReader(buf)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, method, u, reader)
	if err != nil {
		return nil, errors.E(errors.Internal, "building backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	logger.Debug("[BACKEND] %s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: extractMessage(raw, resp.StatusCode)}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, errors.E(errors.Malformed, fmt.Sprintf("%s %s returned invalid JSON", method, path), err)
	}
	return out, nil
}

// classify separates the caller going away from the backend being slow or
// unreachable. Only the former is silent.
func (c *Client) classify(parent context.Context, err error) error {
	if stderrors.Is(parent.Err(), context.Canceled) {
		return errors.E(errors.Canceled, "request canceled by caller", parent.Err())
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Err: err, Timeout: true}
	}
	var ne interface{ Timeout() bool }
	if stderrors.As(err, &ne) && ne.Timeout() {
		return &TransportError{Err: err, Timeout: true}
	}
	return &TransportError{Err: err}
}

// extractMessage prefers the backend's own wording: message, error, details,
// then the raw text, then the status text.
func extractMessage(raw []byte, code int) string {
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, k := range []string{"message", "error", "details"} {
			if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && obj == nil {
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	return http.StatusText(code)
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return stderrors.As(err, &se) && se.Code == http.StatusNotFound
}
