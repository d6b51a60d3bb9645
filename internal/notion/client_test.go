package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bayviewassociation/memberdb/internal/dualwrite"
	"github.com/bayviewassociation/memberdb/internal/model"
)

func TestPropertyShapes(t *testing.T) {
	cases := []struct {
		name string
		prop Property
		want string
	}{
		{"title", Title("Jane Doe"), `{"title":[{"text":{"content":"Jane Doe"}}]}`},
		{"rich_text", RichText("hi"), `{"rich_text":[{"text":{"content":"hi"}}]}`},
		{"number", Number(42), `{"number":42}`},
		{"checkbox", Checkbox(true), `{"checkbox":true}`},
		{"select", Select("Pending Review"), `{"select":{"name":"Pending Review"}}`},
		{"email", Email("a@b.c"), `{"email":"a@b.c"}`},
		{"phone", PhoneNumber("555-0100"), `{"phone_number":"555-0100"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.prop)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tc.want {
				t.Errorf("marshal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCreatePage(t *testing.T) {
	var captured createPageRequest
	var gotVersion, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotVersion = r.Header.Get("Notion-Version")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"page-1","url":"https://notion.so/page-1"}`))
	}))
	defer srv.Close()

	c := NewClient("secret-token")
	c.http.SetBaseURL(srv.URL)

	page, err := c.CreatePage(context.Background(), "db-1", map[string]Property{
		"Name":    Title("Jane Doe"),
		"Skipped": nil,
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if page.ID != "page-1" || page.URL != "https://notion.so/page-1" {
		t.Errorf("page = %+v", page)
	}
	if gotVersion != apiVersion {
		t.Errorf("Notion-Version = %q", gotVersion)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if captured.Parent["database_id"] != "db-1" {
		t.Errorf("parent = %v", captured.Parent)
	}
	if _, ok := captured.Properties["Skipped"]; ok {
		t.Error("nil properties should be dropped")
	}
	if _, ok := captured.Properties["Name"]; !ok {
		t.Error("Name property missing")
	}
}

func TestCreatePageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"validation failed"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("k")
	c.http.SetBaseURL(srv.URL)

	if _, err := c.CreatePage(context.Background(), "db", nil); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestMirrorDisabled(t *testing.T) {
	m := NewMirror("", "db-memorial", "db-chapel", zerolog.Nop())
	res := m.MemorialMirror(context.Background(), dualwrite.MemorialSubmission{}, &model.MemorialWriteResult{
		Legacy: &model.Memorial{ID: 1},
	})
	if res != (MirrorResult{}) {
		t.Errorf("disabled mirror should return a zero result, got %+v", res)
	}
}

func TestMemorialMirrorNeverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMirror("k", "db-memorial", "", zerolog.Nop())
	m.client.http.SetBaseURL(srv.URL)

	res := m.MemorialMirror(context.Background(), dualwrite.MemorialSubmission{
		MemorialInput: model.MemorialInput{FirstName: "Jane", LastName: "Doe"},
	}, &model.MemorialWriteResult{Legacy: &model.Memorial{ID: 7}})
	if res.Created {
		t.Error("mirror should report failure")
	}
	if res.Err == "" {
		t.Error("failure should be described in Err")
	}
}

func TestMemorialMirrorSuccess(t *testing.T) {
	var captured createPageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"page-9","url":"https://notion.so/page-9"}`))
	}))
	defer srv.Close()

	m := NewMirror("k", "db-memorial", "", zerolog.Nop())
	m.client.http.SetBaseURL(srv.URL)

	email := "mary@example.org"
	res := m.MemorialMirror(context.Background(), dualwrite.MemorialSubmission{
		MemorialInput: model.MemorialInput{FirstName: "Jane", LastName: "Doe"},
		ContactName:   "Mary Smith",
		ContactEmail:  &email,
	}, &model.MemorialWriteResult{
		Legacy: &model.Memorial{ID: 7},
		Modern: &model.Person{ID: 101},
	})
	if !res.Created || res.PageID != "page-9" {
		t.Fatalf("res = %+v", res)
	}
	if _, ok := captured.Properties["Modern ID"]; !ok {
		t.Error("Modern ID should be set when the modern write succeeded")
	}
	if _, ok := captured.Properties["Contact Email"]; !ok {
		t.Error("Contact Email missing")
	}
	if _, ok := captured.Properties["Death Date"]; ok {
		t.Error("absent dates should not produce properties")
	}
}
