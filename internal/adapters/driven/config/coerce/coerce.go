// Package coerce converts loosely typed config values, as decoded from TOML
// or read from the environment, into the types settings need.
//
// Each function takes the (value, found) pair returned by a lookup so it can
// wrap the call directly: coerce.Int(store.Get(key)).
package coerce

import (
	"strconv"
	"strings"
)

// String returns v when it is a string.
func String(v any, ok bool) string {
	s, _ := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Int accepts any integer or float kind and numeric strings.
func Int(v any, ok bool) int {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case int32:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

// Float accepts floats, integers and numeric strings.
func Float(v any, ok bool) float64 {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Bool accepts booleans and strconv.ParseBool strings.
func Bool(v any, ok bool) bool {
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	}
	return false
}

// StringSlice accepts []string, a TOML array of strings, or a comma
// separated string. Non-string array items are skipped.
func StringSlice(v any, ok bool) []string {
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, isStr := item.(string); isStr {
				out = append(out, str)
			}
		}
		return out
	case string:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}
