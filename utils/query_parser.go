package utils

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// PathID parses a positive integer path wildcard such as {id}.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// OptionalInt64 parses an optional positive integer; blank means absent.
func OptionalInt64(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("invalid id %q", raw)
	}
	return &v, nil
}

// QueryInt64 parses an optional positive integer query parameter.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	v, err := OptionalInt64(r.URL.Query().Get(name))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// QueryLimit reads ?limit=, falling back to def and capping at max.
func QueryLimit(r *http.Request, def, max int) int {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}
