// Package dualwrite coordinates writes that must land in the legacy schema
// and should land in the modern schema. The legacy write is authoritative:
// its failure aborts everything. The modern write is best effort: its
// failure is recorded and the transaction commits anyway, because a record
// that exists only in the legacy schema is recoverable by re-migration while
// a lost submission is not.
package dualwrite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bayviewassociation/memberdb/internal/bridge"
	"github.com/bayviewassociation/memberdb/internal/db"
	"github.com/bayviewassociation/memberdb/internal/legacy"
	"github.com/bayviewassociation/memberdb/internal/model"
	"github.com/bayviewassociation/memberdb/internal/modern"
)

// Migration source markers stamped on persons created by each write path.
const (
	sourceDualWrite       = "dual_write"
	sourceMemorialContact = "memorial_contact"
	sourceChapelApplicant = "chapel_applicant"
	sourceChapelSponsor   = "chapel_member_sponsor"
	sourceBatchMigration  = "batch_migration"
)

// LegacyStore is the slice of the legacy adapter the manager needs.
type LegacyStore interface {
	GetMemorial(ctx context.Context, id int) (*model.Memorial, error)
	CreateMemorial(ctx context.Context, in model.MemorialInput) (*model.Memorial, error)
	CreateChapelApplication(ctx context.Context, in model.ChapelApplicationInput) (*model.ChapelApplication, error)
	CreateDetail(ctx context.Context, applicationID int, d *model.ChapelDetail) error
	SetNotionID(ctx context.Context, applicationID int, notionID string) error
	UpdateApplicationStatus(ctx context.Context, id int, status string) (*model.ChapelApplication, error)
	CheckAvailability(ctx context.Context, serviceDate time.Time, serviceTime string) (bool, error)
}

// ModernStore is the slice of the modern adapter the manager needs.
type ModernStore interface {
	CreatePerson(ctx context.Context, in model.PersonInput) (*model.Person, error)
	GetPersonByMemorialID(ctx context.Context, memorialID int) (*model.Person, error)
	CreateFamilyRelationship(ctx context.Context, personID, relatedPersonID int, relationshipType string) (*model.FamilyRelationship, error)
	UpsertContactMethod(ctx context.Context, personID int, contactType, contactValue string, label *string) (*model.ContactMethod, error)
}

// BridgeStore is the cross-schema surface the manager delegates to.
type BridgeStore interface {
	SearchEverywhere(ctx context.Context, term string, opts model.ListOptions) (*model.SearchResults, error)
	MigrationProgress(ctx context.Context) (*model.MigrationProgress, error)
	ValidateConsistency(ctx context.Context) ([]model.ConsistencyIssue, error)
	UnifiedPersonView(ctx context.Context, personID int) (*model.UnifiedPersonView, error)
	UnmigratedMemorials(ctx context.Context, limit int) ([]model.Memorial, error)
}

// Stores bundles the per-schema stores a write runs against. Inside a
// transaction all three are scoped to the same *sql.Tx.
type Stores struct {
	Legacy LegacyStore
	Modern ModernStore
}

// MemorialSubmission is a garden memorial submission: the memorial itself
// plus the submitter's contact details, which only the modern schema keeps
// structured.
type MemorialSubmission struct {
	model.MemorialInput
	ContactName    string
	ContactEmail   *string
	ContactPhone   *string
	ContactAddress *string
}

// Manager owns the database connection and orchestrates two-phase writes.
// Safe for concurrent use after Connect.
type Manager struct {
	dsn string
	log zerolog.Logger

	mu        sync.Mutex
	connected bool
	conn      *sql.DB

	legacy   LegacyStore
	modern   ModernStore
	bridge   BridgeStore
	transact func(ctx context.Context, fn func(tx Stores) error) error
}

// NewManager builds an unconnected manager. Connect opens the database
// lazily so construction never fails.
func NewManager(dsn string, log zerolog.Logger) *Manager {
	return &Manager{dsn: dsn, log: log}
}

// Connect opens the database and wires the adapters. Idempotent; every
// public operation calls it first.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return nil
	}

	conn, err := db.Open(m.dsn)
	if err != nil {
		return fmt.Errorf("dualwrite: connect: %w", err)
	}
	exec := db.NewExecutor(conn, m.log)
	legacyAdapter := legacy.New(exec)
	modernAdapter := modern.New(exec)

	m.conn = conn
	m.legacy = legacyAdapter
	m.modern = modernAdapter
	m.bridge = bridge.New(exec, legacyAdapter, modernAdapter)
	m.transact = func(ctx context.Context, fn func(tx Stores) error) error {
		return db.WithinTx(ctx, conn, m.log, func(tx *db.Executor) error {
			return fn(Stores{Legacy: legacy.New(tx), Modern: modern.New(tx)})
		})
	}
	m.connected = true
	m.log.Info().Msg("dual-write manager connected")
	return nil
}

// Disconnect closes the connection. The manager can be reconnected.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	m.connected = false
	return err
}

// HealthPing reports database reachability, implementing
// health.HealthPinger. The connection is snapshotted under the mutex so a
// concurrent Disconnect during shutdown cannot nil it mid-probe.
func (m *Manager) HealthPing(ctx context.Context) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("dualwrite: disconnected")
	}
	return conn.PingContext(ctx)
}

// CreateMemorial runs the two-phase memorial write. The legacy insert is
// fatal: on failure the transaction rolls back and the error returns with a
// legacy-tagged entry in result.Errors. The modern phase is best effort: its
// failure is recorded and the transaction still commits. Success therefore
// means "the submission is durable somewhere", not "fully migrated";
// callers must check Modern and Errors to tell the two apart.
func (m *Manager) CreateMemorial(ctx context.Context, sub MemorialSubmission) (*model.MemorialWriteResult, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	result := &model.MemorialWriteResult{Errors: []model.WriteError{}}
	err := m.transact(ctx, func(tx Stores) error {
		memorial, err := tx.Legacy.CreateMemorial(ctx, sub.MemorialInput)
		if err != nil {
			result.Errors = append(result.Errors, model.WriteError{System: "legacy", Message: err.Error()})
			return err
		}
		result.Legacy = memorial

		if err := m.memorialModernPhase(ctx, tx.Modern, sub, memorial, result); err != nil {
			result.Errors = append(result.Errors, model.WriteError{System: "modern", Message: err.Error()})
			m.log.Warn().Err(err).Int("memorialId", memorial.ID).
				Msg("modern write failed, committing legacy-only")
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	result.Success = true
	return result, nil
}

// memorialModernPhase creates the deceased person, an optional contact
// person with a relationship to the deceased, and the submitter's contact
// methods.
func (m *Manager) memorialModernPhase(ctx context.Context, store ModernStore, sub MemorialSubmission, memorial *model.Memorial, result *model.MemorialWriteResult) error {
	source := sourceDualWrite
	person, err := store.CreatePerson(ctx, model.PersonInput{
		PersonType:       "deceased",
		FirstName:        sub.FirstName,
		LastName:         sub.LastName,
		DateOfBirth:      sub.BirthDate,
		PrimaryEmail:     sub.ContactEmail,
		PrimaryPhone:     sub.ContactPhone,
		LegacyMemorialID: &memorial.ID,
		MigrationSource:  &source,
	})
	if err != nil {
		return err
	}
	result.Modern = person

	if sub.ContactName != "" {
		first, last := splitName(sub.ContactName)
		contactSource := sourceMemorialContact
		contact, err := store.CreatePerson(ctx, model.PersonInput{
			PersonType:      "member",
			FirstName:       first,
			LastName:        last,
			PrimaryEmail:    sub.ContactEmail,
			PrimaryPhone:    sub.ContactPhone,
			MigrationSource: &contactSource,
		})
		if err != nil {
			return err
		}
		if _, err := store.CreateFamilyRelationship(ctx, person.ID, contact.ID, "other"); err != nil {
			return err
		}
	}

	label := sourceMemorialContact
	for _, c := range []struct {
		kind  string
		value *string
	}{
		{"email", sub.ContactEmail},
		{"phone", sub.ContactPhone},
		{"address", sub.ContactAddress},
	} {
		if c.value == nil || *c.value == "" {
			continue
		}
		if _, err := store.UpsertContactMethod(ctx, person.ID, c.kind, *c.value, &label); err != nil {
			return err
		}
	}
	return nil
}

// CreateChapelApplication runs the two-phase chapel write under the same
// protocol: legacy fatal, modern best effort, commit regardless.
func (m *Manager) CreateChapelApplication(ctx context.Context, in model.ChapelApplicationInput) (*model.ChapelWriteResult, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	result := &model.ChapelWriteResult{Errors: []model.WriteError{}}
	err := m.transact(ctx, func(tx Stores) error {
		app, err := tx.Legacy.CreateChapelApplication(ctx, in)
		if err != nil {
			result.Errors = append(result.Errors, model.WriteError{System: "legacy", Message: err.Error()})
			return err
		}
		result.Legacy = app

		if err := m.chapelModernPhase(ctx, tx.Modern, in, app, result); err != nil {
			result.Errors = append(result.Errors, model.WriteError{System: "modern", Message: err.Error()})
			m.log.Warn().Err(err).Int("applicationId", app.ID).
				Msg("modern write failed, committing legacy-only")
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	result.Success = true
	return result, nil
}

// chapelModernPhase creates the applicant person and, when a member sponsor
// with a different name vouched for the application, the sponsor person and
// a relationship between them.
func (m *Manager) chapelModernPhase(ctx context.Context, store ModernStore, in model.ChapelApplicationInput, app *model.ChapelApplication, result *model.ChapelWriteResult) error {
	first, last := splitName(in.ContactName)
	source := sourceChapelApplicant
	var email, phone *string
	if in.ContactEmail != "" {
		email = &in.ContactEmail
	}
	if in.ContactPhone != "" {
		phone = &in.ContactPhone
	}
	applicant, err := store.CreatePerson(ctx, model.PersonInput{
		PersonType:        "member",
		FirstName:         first,
		LastName:          last,
		PrimaryEmail:      email,
		PrimaryPhone:      phone,
		LegacyChapelAppID: &app.ID,
		MigrationSource:   &source,
	})
	if err != nil {
		return err
	}
	result.Modern = applicant

	if in.MemberName != "" && in.MemberName != in.ContactName {
		sponsorFirst, sponsorLast := splitName(in.MemberName)
		sponsorSource := sourceChapelSponsor
		sponsor, err := store.CreatePerson(ctx, model.PersonInput{
			PersonType:      "member",
			FirstName:       sponsorFirst,
			LastName:        sponsorLast,
			MigrationSource: &sponsorSource,
		})
		if err != nil {
			return err
		}
		if _, err := store.CreateFamilyRelationship(ctx, applicant.ID, sponsor.ID, "other"); err != nil {
			return err
		}
	}
	return nil
}

// CreateChapelDetail writes the type-specific detail row for a committed
// application. It runs outside the dual-write transaction so a detail
// failure cannot take the application down with it.
func (m *Manager) CreateChapelDetail(ctx context.Context, applicationID int, d *model.ChapelDetail) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	return m.legacy.CreateDetail(ctx, applicationID, d)
}

// RecordChapelNotionID stamps the mirrored workflow page ID on the legacy
// application.
func (m *Manager) RecordChapelNotionID(ctx context.Context, applicationID int, notionID string) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	return m.legacy.SetNotionID(ctx, applicationID, notionID)
}

// UpdateChapelApplicationStatus moves an application through its review
// workflow. Status changes only touch the legacy schema; the modern person
// carries no application state.
func (m *Manager) UpdateChapelApplicationStatus(ctx context.Context, applicationID int, status string) (*model.ChapelApplication, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	app, err := m.legacy.UpdateApplicationStatus(ctx, applicationID, status)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", applicationID, model.ErrNotFound)
	}
	return app, nil
}

// CheckAvailability reports whether the chapel slot is free.
func (m *Manager) CheckAvailability(ctx context.Context, serviceDate time.Time, serviceTime string) (bool, error) {
	if err := m.Connect(ctx); err != nil {
		return false, err
	}
	return m.legacy.CheckAvailability(ctx, serviceDate, serviceTime)
}

// Search queries both schemas through the bridge.
func (m *Manager) Search(ctx context.Context, term string, opts model.ListOptions) (*model.SearchResults, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	return m.bridge.SearchEverywhere(ctx, term, opts)
}

// MigrationProgress reports per-domain and overall migration counts.
func (m *Manager) MigrationProgress(ctx context.Context) (*model.MigrationProgress, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	return m.bridge.MigrationProgress(ctx)
}

// ValidateConsistency runs the read-only reconciliation sweep.
func (m *Manager) ValidateConsistency(ctx context.Context) ([]model.ConsistencyIssue, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	return m.bridge.ValidateConsistency(ctx)
}

// PersonUnifiedView returns the merged cross-schema view of one person.
func (m *Manager) PersonUnifiedView(ctx context.Context, personID int) (*model.UnifiedPersonView, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	return m.bridge.UnifiedPersonView(ctx, personID)
}

// MigrateMemorial migrates one legacy memorial into the modern schema.
// Re-running it for an already-migrated memorial is a no-op returning the
// existing person. The check-then-insert window is accepted: migration runs
// from a single operator process.
func (m *Manager) MigrateMemorial(ctx context.Context, memorialID int) (*model.MigrationOutcome, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	memorial, err := m.legacy.GetMemorial(ctx, memorialID)
	if err != nil {
		return nil, err
	}
	if memorial == nil {
		return nil, fmt.Errorf("memorial %d: %w", memorialID, model.ErrNotFound)
	}

	existing, err := m.modern.GetPersonByMemorialID(ctx, memorialID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &model.MigrationOutcome{Status: model.MigrationStatusAlreadyMigrated, Person: existing}, nil
	}

	source := sourceBatchMigration
	person, err := m.modern.CreatePerson(ctx, model.PersonInput{
		PersonType:       "deceased",
		FirstName:        memorial.FirstName,
		LastName:         memorial.LastName,
		DateOfBirth:      memorial.BirthDate,
		LegacyMemorialID: &memorial.ID,
		MigrationSource:  &source,
	})
	if err != nil {
		return nil, err
	}
	return &model.MigrationOutcome{Status: model.MigrationStatusMigrated, Person: person}, nil
}

// BatchMigrateMemorials migrates up to limit unmigrated memorials. One
// row's failure is recorded against its ID and the loop continues.
func (m *Manager) BatchMigrateMemorials(ctx context.Context, limit int) (*model.BatchMigrationResult, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	unmigrated, err := m.bridge.UnmigratedMemorials(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &model.BatchMigrationResult{
		Total:  len(unmigrated),
		Errors: []model.BatchMigrationError{},
	}
	for _, memorial := range unmigrated {
		outcome, err := m.MigrateMemorial(ctx, memorial.ID)
		if err != nil {
			result.Errors = append(result.Errors, model.BatchMigrationError{
				LegacyID: memorial.ID,
				Error:    err.Error(),
			})
			continue
		}
		if outcome.Status == model.MigrationStatusMigrated {
			result.Migrated++
		} else {
			result.Skipped++
		}
	}
	m.log.Info().Int("total", result.Total).Int("migrated", result.Migrated).
		Int("skipped", result.Skipped).Int("failed", len(result.Errors)).
		Msg("batch migration finished")
	return result, nil
}

// splitName divides a free-form name into first and last on the first
// space; a single token gets last name "Unknown".
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", "Unknown"
	}
	first = parts[0]
	last = strings.Join(parts[1:], " ")
	if last == "" {
		last = "Unknown"
	}
	return first, last
}
