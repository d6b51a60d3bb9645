package legacy

import (
	"context"
	"testing"
	"time"

	"github.com/bayviewassociation/memberdb/internal/db"
)

func TestMemorialFromRow(t *testing.T) {
	created := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	m := MemorialFromRow(db.Row{
		"id":         int64(7),
		"first_name": "Edith",
		"last_name":  "Crouse",
		"birth_date": nil,
		"message":    "Beloved teacher",
		"created_at": created,
	})
	if m.ID != 7 || m.FirstName != "Edith" {
		t.Errorf("memorial = %+v", m)
	}
	if m.BirthDate != nil {
		t.Error("nil birth_date should stay nil")
	}
	if m.Message == nil || *m.Message != "Beloved teacher" {
		t.Errorf("message = %v", m.Message)
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v", m.CreatedAt)
	}
}

func TestApplicationFromRow(t *testing.T) {
	serviceDate := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	app := ApplicationFromRow(db.Row{
		"id":               int64(3),
		"application_type": "wedding",
		"service_date":     serviceDate,
		"service_time":     "14:00",
		"contact_name":     "Alice Jones",
		"member_name":      "Robert Jones",
		"status":           "pending",
		"payment_status":   "pending",
	})
	if app.ID != 3 || app.ApplicationType != "wedding" {
		t.Errorf("application = %+v", app)
	}
	if !app.ServiceDate.Equal(serviceDate) {
		t.Errorf("service_date = %v", app.ServiceDate)
	}
	if app.Detail != nil || app.Clergy != nil {
		t.Error("bare row conversion must not hydrate details")
	}
}

func TestCreateDetailNilIsNoop(t *testing.T) {
	a := New(nil)
	if err := a.CreateDetail(context.Background(), 1, nil); err != nil {
		t.Fatalf("nil detail should be a no-op, got %v", err)
	}
}
