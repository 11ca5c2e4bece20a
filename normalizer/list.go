package normalizer

import (
	"enrollment-portal/logger"
	"enrollment-portal/models"
)

// wrapperKeys are the envelope fields some endpoints nest their list under.
var wrapperKeys = []string{"data", "enrollments"}

// Items coerces a decoded payload into a list: arrays pass through, objects
// wrapping an array or a single record under a known key are unwrapped, any
// other object becomes a list of one, and null or scalars become empty.
func Items(payload any) []any {
	switch t := payload.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range wrapperKeys {
			switch inner := t[k].(type) {
			case []any:
				return inner
			case map[string]any:
				return []any{inner}
			}
		}
		return []any{t}
	default:
		return []any{}
	}
}

// NormalizeList normalizes every enrollment in payload. Elements that fail are
// logged and skipped so one bad row never blanks the whole view.
func NormalizeList(payload any) []models.EnrollmentRecord {
	return normalizeAll(payload, "enrollment", NormalizeEnrollment)
}

func normalizeAll[T any](payload any, kind string, fn func(any) (T, error)) []T {
	items := Items(payload)
	out := make([]T, 0, len(items))
	for i, it := range items {
		rec, err := fn(it)
		if err != nil {
			logger.Warn("[NORMALIZE] skipping %s at index %d: %v", kind, i, err)
			continue
		}
		out = append(out, rec)
	}
	return out
}
