package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// The probes below read loosely-typed backend objects. Keys are tried in
// order and the first usable value wins. A value that is present but zero,
// empty or false falls through to the next key, so a backend sending
// "revenue": 0 next to "amount": 120 yields 120.

// Float returns the first candidate that coerces to a non-zero number.
func Float(obj map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := toFloat(obj[k]); ok && v != 0 {
			return v, true
		}
	}
	return 0, false
}

// FloatOr is Float with a default.
func FloatOr(obj map[string]any, def float64, keys ...string) float64 {
	if v, ok := Float(obj, keys...); ok {
		return v
	}
	return def
}

// FloatAt reports the numeric value stored under key, zero included.
func FloatAt(obj map[string]any, key string) (float64, bool) {
	return toFloat(obj[key])
}

// Int is Float rounded to the nearest integer.
func Int(obj map[string]any, keys ...string) int64 {
	v, _ := Float(obj, keys...)
	return int64(math.Round(v))
}

// String returns the first non-empty candidate. Numbers are rendered
// without trailing zeros, so an integral id 42 becomes "42".
func String(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case bool:
			if v {
				return "true", true
			}
		default:
			if f, ok := toFloat(v); ok && f != 0 {
				return strconv.FormatFloat(f, 'f', -1, 64), true
			}
		}
	}
	return "", false
}

// StringOr is String with a default.
func StringOr(obj map[string]any, def string, keys ...string) string {
	if v, ok := String(obj, keys...); ok {
		return v
	}
	return def
}

// Bool returns the flag stored under key, or nil when absent or not
// interpretable. Unlike the other probes, false is a value.
func Bool(obj map[string]any, key string) *bool {
	var b bool
	switch v := obj[key].(type) {
	case bool:
		b = v
	case float64:
		b = v != 0
	case int:
		b = v != 0
	case int64:
		b = v != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}

// Slice returns the list stored under key, or nil.
func Slice(obj map[string]any, key string) []any {
	if obj == nil {
		return nil
	}
	list, _ := obj[key].([]any)
	return list
}

// Strings joins the string elements of the list stored under key.
func Strings(obj map[string]any, key, sep string) string {
	var parts []string
	for _, v := range Slice(obj, key) {
		if s, ok := v.(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// FirstKey returns the object's only key, or the lexicographically smallest
// one when there are several. Map order is not stable, so "first" is
// defined by sorting.
func FirstKey(obj map[string]any) string {
	if len(obj) == 0 {
		return ""
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
