package db

import (
	"strconv"
	"time"
)

// Typed accessors for Row values as the pgx stdlib driver surfaces them
// (int64 for integers, time.Time for dates, string for text, []byte already
// converted by ScanRows). Missing or NULL columns yield zero values from the
// non-pointer accessors and nil from the pointer ones.

func (r Row) Int(k string) int {
	switch v := r[k].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (r Row) IntPtr(k string) *int {
	if r[k] == nil {
		return nil
	}
	n := r.Int(k)
	return &n
}

func (r Row) String(k string) string {
	if s, ok := r[k].(string); ok {
		return s
	}
	return ""
}

func (r Row) StringPtr(k string) *string {
	if r[k] == nil {
		return nil
	}
	s := r.String(k)
	return &s
}

func (r Row) Time(k string) time.Time {
	if t, ok := r[k].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func (r Row) TimePtr(k string) *time.Time {
	if t, ok := r[k].(time.Time); ok {
		return &t
	}
	return nil
}

func (r Row) Bool(k string) bool {
	if b, ok := r[k].(bool); ok {
		return b
	}
	return false
}

func (r Row) BoolPtr(k string) *bool {
	if b, ok := r[k].(bool); ok {
		return &b
	}
	return nil
}

func (r Row) Float(k string) float64 {
	switch v := r[k].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func (r Row) FloatPtr(k string) *float64 {
	if r[k] == nil {
		return nil
	}
	f := r.Float(k)
	return &f
}
