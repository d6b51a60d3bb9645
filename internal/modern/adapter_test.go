package modern

import (
	"testing"

	"github.com/bayviewassociation/memberdb/internal/model"
)

func TestLegacyRefColumn(t *testing.T) {
	if got := legacyRefColumn(model.SourceMemorial); got != "legacy_memorial_id" {
		t.Errorf("memorial column = %q", got)
	}
	if got := legacyRefColumn(model.SourceChapel); got != "legacy_chapel_app_id" {
		t.Errorf("chapel column = %q", got)
	}
}

func TestPersonFromRow(t *testing.T) {
	memorialID := 7
	p := personFromRow(map[string]any{
		"id":                 int64(100),
		"person_type":        "deceased",
		"first_name":         "Edith",
		"last_name":          "Crouse",
		"legacy_memorial_id": int64(memorialID),
		"migration_source":   "dual_write",
	})
	if p.ID != 100 || p.PersonType != "deceased" {
		t.Errorf("person = %+v", p)
	}
	if p.LegacyMemorialID == nil || *p.LegacyMemorialID != memorialID {
		t.Error("legacy memorial back-reference lost")
	}
	if p.MigrationSource == nil || *p.MigrationSource != "dual_write" {
		t.Error("migration source lost")
	}
	if p.LegacyChapelAppID != nil {
		t.Error("absent chapel back-reference should be nil")
	}
}
