// Package epoch converts temporal values into epoch seconds. It accepts the
// raw attribute and literal shapes that reach the synchronizer and query
// rewriter: time.Time values, datetime strings in the common SQL and RFC 3339
// layouts, and integers that already carry an epoch.
package epoch

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrUnparseable reports a non-null value that cannot be interpreted as a
// moment in time. Callers skip the offending column rather than abort.
var ErrUnparseable = errors.New("epoch: unparseable temporal value")

// layouts are tried in order. Layouts without a zone parse as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Seconds converts v to epoch seconds. Integers and floats pass through as
// already-epoch. A nil or otherwise null v returns ErrUnparseable; callers
// should test IsNull first.
func Seconds(v any) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Unix(), nil
	case *time.Time:
		if t == nil {
			return 0, fmt.Errorf("%w: nil *time.Time", ErrUnparseable)
		}
		return t.Unix(), nil
	case sql.NullTime:
		if !t.Valid {
			return 0, fmt.Errorf("%w: invalid sql.NullTime", ErrUnparseable)
		}
		return t.Time.Unix(), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case float32:
		return int64(t), nil
	case string:
		return parseString(t)
	case []byte:
		return parseString(string(t))
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrUnparseable, v)
	}
}

func parseString(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrUnparseable)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnparseable, s)
}

// IsInteger reports whether v is an integral value the rewriter should pass
// through untouched (treated as already-epoch).
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// IsNull reports whether v represents an absent value: nil, a nil pointer,
// or an invalid sql.Null* wrapper.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case sql.NullTime:
		return !t.Valid
	case sql.NullString:
		return !t.Valid
	case sql.NullInt64:
		return !t.Valid
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
