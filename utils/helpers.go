package utils

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrInvalidID  = errors.New("id must be an integer")

	ErrFieldMissing   = errors.New("field is missing")
	ErrFieldNotString = errors.New("field must be a string")
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request id stored by the request middleware.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// CoerceID converts a raw JSON value to a number using loose numeric-cast
// rules: numbers pass through, numeric strings are parsed, "" / null / false
// become 0 and true becomes 1. ok is false when the value is not a number,
// which includes an absent value.
func CoerceID(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return math.NaN(), false
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return math.NaN(), false
	}

	switch v := value.(type) {
	case nil:
		return 0, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return math.NaN(), false
		}
		return f, true
	default:
		return math.NaN(), false
	}
}

// IntegralID reports whether f names a storable problem id.
func IntegralID(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// StrictID parses an id that must be sent as a JSON integer.
func StrictID(raw json.RawMessage) (int64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, ErrIDRequired
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, ErrInvalidID
	}
	id, ok := IntegralID(f)
	if !ok {
		return 0, ErrInvalidID
	}
	return id, nil
}

// IsBlank reports whether a raw JSON value counts as not provided: absent,
// null, false, zero or the empty string.
func IsBlank(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}

	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	default:
		return false
	}
}

// RequiredString reads a field that must hold a non-empty string.
func RequiredString(raw json.RawMessage) (string, error) {
	if IsBlank(raw) {
		return "", ErrFieldMissing
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", ErrFieldNotString
	}
	return s, nil
}
