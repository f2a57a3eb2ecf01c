// Package config holds the value conversions shared by the ConfigStore
// adapters. Stored values arrive as whatever the backing format produced:
// TOML decodes integers as int64, the settings service writes int and
// float64, and tests may store time.Duration directly.
package config

import (
	"strconv"
	"time"
)

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int converts any numeric value, truncating floats. Numeric strings parse.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

// Float converts any numeric value. Numeric strings parse.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

// Bool returns v when it is a bool, or parses "true"/"false".
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	default:
		return false
	}
}

// Duration accepts a time.Duration or a Go duration string such as "30s".
func Duration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
