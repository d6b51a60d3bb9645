package modern

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	"github.com/bayviewassociation/memberdb/internal/db"
	"github.com/bayviewassociation/memberdb/internal/model"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return New(db.NewExecutor(conn, zerolog.Nop())), mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertContactMethodFirstLabelWins(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM core\.contact_methods WHERE`).
		WithArgs("email", "mary@example.org", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "contact_type", "contact_value", "label", "is_primary"}).
			AddRow(int64(5), int64(9), "email", "mary@example.org", "memorial_contact", false))

	second := "chapel_applicant"
	c, err := a.UpsertContactMethod(context.Background(), 9, "email", "mary@example.org", &second)
	if err != nil {
		t.Fatalf("UpsertContactMethod: %v", err)
	}
	if c.ID != 5 {
		t.Errorf("id = %d, want the existing row", c.ID)
	}
	if c.Label == nil || *c.Label != "memorial_contact" {
		t.Errorf("label = %v, the first write must win", c.Label)
	}
	// No INSERT was expected: a second upsert on the same triple must not
	// touch the table.
	expectMet(t, mock)
}

func TestUpsertContactMethodInsertsWhenAbsent(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM core\.contact_methods WHERE`).
		WithArgs("phone", "555-0100", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO core\.contact_methods`).
		WithArgs("phone", "555-0100", false, "memorial_contact", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "contact_type", "contact_value", "label", "is_primary"}).
			AddRow(int64(6), int64(9), "phone", "555-0100", "memorial_contact", false))

	label := "memorial_contact"
	c, err := a.UpsertContactMethod(context.Background(), 9, "phone", "555-0100", &label)
	if err != nil {
		t.Fatalf("UpsertContactMethod: %v", err)
	}
	if c.ID != 6 || c.Label == nil || *c.Label != "memorial_contact" {
		t.Errorf("contact = %+v", c)
	}
	expectMet(t, mock)
}

func TestCreateFamilyRelationshipReactivatesExistingEdge(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM core\.family_relationships WHERE`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "related_person_id", "relationship_type", "is_active"}).
			AddRow(int64(3), int64(1), int64(2), "other", false))
	mock.ExpectQuery(`UPDATE core\.family_relationships SET`).
		WithArgs(true, "spouse", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "related_person_id", "relationship_type", "is_active"}).
			AddRow(int64(3), int64(1), int64(2), "spouse", true))

	rel, err := a.CreateFamilyRelationship(context.Background(), 1, 2, "spouse")
	if err != nil {
		t.Fatalf("CreateFamilyRelationship: %v", err)
	}
	if rel.ID != 3 {
		t.Errorf("id = %d, the existing edge must be reused", rel.ID)
	}
	if rel.RelationshipType != "spouse" || !rel.IsActive {
		t.Errorf("relationship = %+v, want retyped and reactivated", rel)
	}
	expectMet(t, mock)
}

func TestCreateFamilyRelationshipInsertsNewEdge(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM core\.family_relationships WHERE`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO core\.family_relationships`).
		WithArgs(true, int64(1), int64(2), "parent").
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "related_person_id", "relationship_type", "is_active"}).
			AddRow(int64(10), int64(1), int64(2), "parent", true))

	rel, err := a.CreateFamilyRelationship(context.Background(), 1, 2, "parent")
	if err != nil {
		t.Fatalf("CreateFamilyRelationship: %v", err)
	}
	if rel.ID != 10 || rel.RelationshipType != "parent" {
		t.Errorf("relationship = %+v", rel)
	}
	expectMet(t, mock)
}

func TestUpsertPersonFromLegacyUpdatesExisting(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM core\.persons WHERE legacy_memorial_id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "legacy_memorial_id"}).
			AddRow(int64(42), "Edith", "Smith", int64(7)))
	mock.ExpectQuery(`UPDATE core\.persons SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "legacy_memorial_id"}).
			AddRow(int64(42), "Edith", "Crouse", int64(7)))

	p, err := a.UpsertPersonFromLegacy(context.Background(), model.SourceMemorial, 7, model.PersonInput{
		PersonType: "deceased",
		FirstName:  "Edith",
		LastName:   "Crouse",
	})
	if err != nil {
		t.Fatalf("UpsertPersonFromLegacy: %v", err)
	}
	if p.ID != 42 {
		t.Errorf("id = %d, the linked person must be updated in place", p.ID)
	}
	if p.LastName != "Crouse" {
		t.Errorf("last name = %q", p.LastName)
	}
	expectMet(t, mock)
}

func TestUpsertPersonFromLegacyCreatesWithBackReference(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT \* FROM core\.persons WHERE legacy_memorial_id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO core\.persons`).
		WithArgs(nil, nil, "Edith", nil, "Crouse", nil, int64(7), nil, nil,
			sqlmock.AnyArg(), "memorial_migration", "deceased", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "legacy_memorial_id", "migration_source"}).
			AddRow(int64(43), "Edith", "Crouse", int64(7), "memorial_migration"))

	p, err := a.UpsertPersonFromLegacy(context.Background(), model.SourceMemorial, 7, model.PersonInput{
		PersonType: "deceased",
		FirstName:  "Edith",
		LastName:   "Crouse",
	})
	if err != nil {
		t.Fatalf("UpsertPersonFromLegacy: %v", err)
	}
	if p.ID != 43 {
		t.Errorf("id = %d", p.ID)
	}
	if p.LegacyMemorialID == nil || *p.LegacyMemorialID != 7 {
		t.Error("back-reference must be set on create")
	}
	if p.MigrationSource == nil || *p.MigrationSource != "memorial_migration" {
		t.Errorf("migration source = %v", p.MigrationSource)
	}
	expectMet(t, mock)
}
