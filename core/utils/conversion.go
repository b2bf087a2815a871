package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ToFloat converts JSON-decoded values to float64 using explicit type switching.
// It handles json.Number, standard numeric types and numeric strings.
// The second return value is false when the value is absent or not numeric.
func ToFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if s == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		return f, err == nil
	case []byte:
		return ToFloat(string(v))
	default:
		return 0, false
	}
}

// ToInt converts various types to int. Fractions are truncated; values
// outside the int64 range are rejected.
func ToInt(val any) (int, bool) {
	n, ok := ToInt64(val)
	if !ok || int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

// ToInt64 converts various types to int64. Fractions are truncated; values
// outside the int64 range are rejected.
func ToInt64(val any) (int64, bool) {
	f, ok := ToFloat(val)
	if !ok || !FitsInt64(f) {
		return 0, false
	}
	return int64(f), true
}

// FitsInt64 reports whether f converts to int64 without overflow.
func FitsInt64(f float64) bool {
	return !math.IsNaN(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// ToString converts various types to string.
// Nil becomes the empty string; json.Number keeps its literal form.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true", "yes").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "1" || s == "true" || s == "yes"
	default:
		n, ok := ToInt(v)
		return ok && n == 1
	}
}
