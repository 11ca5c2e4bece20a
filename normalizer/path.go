// Package normalizer turns loosely-shaped backend JSON into canonical records.
//
// Every canonical field owns an ordered list of alias accessors. The first
// accessor that yields a usable value (present, not JSON null, not "") wins;
// if none does, the field stays nil and the miss is logged at debug level.
// Nothing in this package fails on a missing or oddly-typed field. The only
// error is a payload that is not a JSON object at all.
package normalizer

import (
	"strings"

	"enrollment-portal/logger"
)

// Accessor reads one candidate value out of a raw object.
type Accessor func(obj map[string]any) (any, bool)

// Path builds an accessor that walks nested objects, e.g.
// Path("student", "studentNumber") reads obj["student"]["studentNumber"].
func Path(keys ...string) Accessor {
	return func(obj map[string]any) (any, bool) {
		var cur any = obj
		for _, k := range keys {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = m[k]
			if !ok {
				return nil, false
			}
		}
		return cur, true
	}
}

// Aliases is an ordered list of accessors for one canonical field.
type Aliases []Accessor

// Keys builds an alias list from dotted paths: "student.student_number".
func Keys(paths ...string) Aliases {
	out := make(Aliases, 0, len(paths))
	for _, p := range paths {
		out = append(out, Path(strings.Split(p, ".")...))
	}
	return out
}

// First walks the aliases in order and returns the first usable value.
func (a Aliases) First(obj map[string]any) (any, bool) {
	for _, get := range a {
		v, ok := get(obj)
		if ok && usable(v) {
			return v, true
		}
	}
	return nil, false
}

func usable(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	default:
		return true
	}
}

// gap records a field that no alias could fill.
func gap(record, field string) {
	logger.Debug("[NORMALIZE] %s.%s: no usable alias, leaving null", record, field)
}
