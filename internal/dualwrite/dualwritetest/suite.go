// Package dualwritetest holds a reusable end-to-end suite for a connected
// Manager. It needs both schemas present and writes real rows, so callers
// should point it at a disposable database.
package dualwritetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/bayviewassociation/memberdb/internal/dualwrite"
	"github.com/bayviewassociation/memberdb/internal/model"
)

// Run exercises the dual-write protocol, re-migration idempotency and the
// cross-schema reads against a live manager.
func Run(t *testing.T, makeManager func(t *testing.T) *dualwrite.Manager) {
	t.Helper()

	m := makeManager(t)
	ctx := context.Background()

	// Unique names so reruns against the same database stay disambiguated.
	marker := uuid.New().String()[:8]
	firstName := "Suite" + marker
	email := firstName + "@example.test"

	res, err := m.CreateMemorial(ctx, dualwrite.MemorialSubmission{
		MemorialInput: model.MemorialInput{FirstName: firstName, LastName: "Memorial"},
		ContactName:   "Suite Contact",
		ContactEmail:  &email,
	})
	if err != nil {
		t.Fatalf("CreateMemorial: %v", err)
	}
	if !res.Success || res.Legacy == nil {
		t.Fatalf("CreateMemorial: success=%v legacy=%v errors=%v", res.Success, res.Legacy, res.Errors)
	}
	if res.Modern == nil {
		t.Fatalf("CreateMemorial: modern phase failed: %v", res.Errors)
	}

	// Re-migrating a memorial written by dual-write must short-circuit.
	outcome, err := m.MigrateMemorial(ctx, res.Legacy.ID)
	if err != nil {
		t.Fatalf("MigrateMemorial: %v", err)
	}
	if outcome.Status != model.MigrationStatusAlreadyMigrated {
		t.Fatalf("MigrateMemorial: status=%q, want already_migrated", outcome.Status)
	}
	if outcome.Person.ID != res.Modern.ID {
		t.Fatalf("MigrateMemorial: returned person %d, want %d", outcome.Person.ID, res.Modern.ID)
	}

	view, err := m.PersonUnifiedView(ctx, res.Modern.ID)
	if err != nil {
		t.Fatalf("PersonUnifiedView: %v", err)
	}
	if view.Modern == nil || view.Legacy.Memorial == nil {
		t.Fatalf("PersonUnifiedView: modern=%v legacyMemorial=%v", view.Modern, view.Legacy.Memorial)
	}
	if got := view.Combined["first_name"]; got != firstName {
		t.Fatalf("PersonUnifiedView: combined first_name=%v", got)
	}

	results, err := m.Search(ctx, firstName, model.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results.Legacy.Memorials) == 0 {
		t.Fatalf("Search: memorial %q not found in legacy results", firstName)
	}

	progress, err := m.MigrationProgress(ctx)
	if err != nil {
		t.Fatalf("MigrationProgress: %v", err)
	}
	if progress.Memorials.Total < 1 {
		t.Fatalf("MigrationProgress: memorial total=%d", progress.Memorials.Total)
	}
	if progress.Overall.Pending != progress.Overall.Total-progress.Overall.Migrated {
		t.Fatalf("MigrationProgress: inconsistent overall counts %+v", progress.Overall)
	}

	if _, err := m.ValidateConsistency(ctx); err != nil {
		t.Fatalf("ValidateConsistency: %v", err)
	}
}
