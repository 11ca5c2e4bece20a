package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var truthyTokens = map[string]bool{
	"true":   true,
	"1":      true,
	"yes":    true,
	"active": true,
}

// CoerceStatus folds the many status encodings into a bool. Booleans pass
// through, numbers are true when nonzero, anything else is matched
// case-insensitively against the truthy token set.
func CoerceStatus(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f != 0
		}
		return false
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		return truthyTokens[strings.ToLower(strings.TrimSpace(t))]
	default:
		return false
	}
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
	case float64:
		if t == math.Trunc(t) {
			return int64(t), true
		}
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// asTime accepts ISO strings with or without zone, dates, epoch millis, and
// the [y, m, d, h, min, s, nanos] arrays Jackson emits for LocalDateTime.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	case []any:
		return fromParts(t)
	default:
		if ms, ok := asInt64(v); ok {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

func fromParts(parts []any) (time.Time, bool) {
	if len(parts) < 3 {
		return time.Time{}, false
	}
	n := make([]int, 7)
	for i := 0; i < len(parts) && i < 7; i++ {
		v, ok := asInt64(parts[i])
		if !ok {
			return time.Time{}, false
		}
		n[i] = int(v)
	}
	return time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], n[6], time.UTC), true
}

// Field helpers: resolve, coerce, and log gaps in one step.

func intField(obj map[string]any, record, field string, a Aliases) *int64 {
	if v, ok := a.First(obj); ok {
		if n, ok := asInt64(v); ok {
			return &n
		}
	}
	gap(record, field)
	return nil
}

func stringField(obj map[string]any, record, field string, a Aliases) *string {
	if v, ok := a.First(obj); ok {
		if s, ok := asString(v); ok {
			return &s
		}
	}
	gap(record, field)
	return nil
}

func timeField(obj map[string]any, record, field string, a Aliases) *time.Time {
	if v, ok := a.First(obj); ok {
		if ts, ok := asTime(v); ok {
			return &ts
		}
	}
	gap(record, field)
	return nil
}

func statusField(obj map[string]any, record, field string, a Aliases) *bool {
	if v, ok := a.First(obj); ok {
		b := CoerceStatus(v)
		return &b
	}
	gap(record, field)
	return nil
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
