package db

import (
	"testing"
	"time"
)

func TestRowAccessors(t *testing.T) {
	now := time.Now()
	r := Row{
		"id":         int64(42),
		"count":      "17",
		"name":       "Jane",
		"missing":    nil,
		"created_at": now,
		"active":     true,
		"fee":        "150.50",
	}

	if got := r.Int("id"); got != 42 {
		t.Errorf("Int(id) = %d", got)
	}
	if got := r.Int("count"); got != 17 {
		t.Errorf("Int(count) = %d", got)
	}
	if r.IntPtr("missing") != nil {
		t.Error("IntPtr(missing) should be nil")
	}
	if got := r.String("name"); got != "Jane" {
		t.Errorf("String(name) = %q", got)
	}
	if r.StringPtr("missing") != nil {
		t.Error("StringPtr(missing) should be nil")
	}
	if got := r.Time("created_at"); !got.Equal(now) {
		t.Errorf("Time(created_at) = %v", got)
	}
	if r.TimePtr("missing") != nil {
		t.Error("TimePtr(missing) should be nil")
	}
	if !r.Bool("active") {
		t.Error("Bool(active) = false")
	}
	if got := r.Float("fee"); got != 150.50 {
		t.Errorf("Float(fee) = %v", got)
	}
	if got := r.Int("absent"); got != 0 {
		t.Errorf("Int(absent) = %d, want 0", got)
	}
}
