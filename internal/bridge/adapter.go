// Package bridge provides reads and reconciliation across the legacy and
// modern schemas while both are live. All cross-schema output is provenance
// tagged so callers always know which system a record came from.
package bridge

import (
	"context"
	"encoding/json"
	"math"

	"github.com/bayviewassociation/memberdb/internal/db"
	"github.com/bayviewassociation/memberdb/internal/legacy"
	"github.com/bayviewassociation/memberdb/internal/model"
	"github.com/bayviewassociation/memberdb/internal/modern"
)

// Adapter composes the two schema adapters with direct cross-schema queries
// that neither side can answer alone.
type Adapter struct {
	exec   *db.Executor
	legacy *legacy.Adapter
	modern *modern.Adapter
}

func New(exec *db.Executor, l *legacy.Adapter, m *modern.Adapter) *Adapter {
	return &Adapter{exec: exec, legacy: l, modern: m}
}

// PersonFromMemorial resolves a memorial to a person, preferring the modern
// row and falling back to an in-memory projection of the legacy memorial.
// The projection is never written anywhere. Nil when neither side knows the
// memorial.
func (a *Adapter) PersonFromMemorial(ctx context.Context, memorialID int) (*model.TaggedPerson, error) {
	person, err := a.modern.GetPersonByMemorialID(ctx, memorialID)
	if err != nil {
		return nil, err
	}
	if person != nil {
		return &model.TaggedPerson{Source: "modern", Person: person}, nil
	}

	memorial, err := a.legacy.GetMemorial(ctx, memorialID)
	if err != nil || memorial == nil {
		return nil, err
	}
	return &model.TaggedPerson{Source: "legacy", Person: ProjectMemorial(memorial)}, nil
}

// ProjectMemorial synthesizes a person-shaped projection from a legacy
// memorial. The ID is the memorial's own ID; the "legacy" source tag and the
// back-reference keep it from being mistaken for a core.persons row.
func ProjectMemorial(m *model.Memorial) *model.Person {
	id := m.ID
	return &model.Person{
		ID:               m.ID,
		PersonType:       "deceased",
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		DateOfBirth:      m.BirthDate,
		DateOfDeath:      m.DeathDate,
		LegacyMemorialID: &id,
		MemorialMessage:  m.Message,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// AllPersons lists modern persons followed by legacy memorials that have no
// modern counterpart, each tagged with its source. Paging applies to each
// side independently.
func (a *Adapter) AllPersons(ctx context.Context, opts model.ListOptions) ([]model.TaggedPerson, error) {
	persons, err := a.modern.ListPersons(ctx, opts)
	if err != nil {
		return nil, err
	}
	results := make([]model.TaggedPerson, 0, len(persons))
	for i := range persons {
		results = append(results, model.TaggedPerson{Source: "modern", Person: &persons[i]})
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.exec.Query(ctx, `
        SELECT m.*
        FROM bayview.memorials m
        LEFT JOIN core.persons p ON p.legacy_memorial_id = m.id
        WHERE p.id IS NULL
        ORDER BY m.created_at DESC
        LIMIT $1 OFFSET $2
    `, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range scanned {
		results = append(results, model.TaggedPerson{
			Source: "legacy",
			Person: ProjectMemorial(legacy.MemorialFromRow(r)),
		})
	}
	return results, nil
}

// DualWriteOptions controls CreatePersonDualWrite.
type DualWriteOptions struct {
	// CreateMemorial also writes a legacy memorial when the person is
	// deceased, then links the two records.
	CreateMemorial bool
}

// DualWriteResult statuses.
const (
	DualWriteSuccess = "success"
	DualWritePartial = "partial"
)

// DualWriteResult is the terminal state of a generic person dual-write.
type DualWriteResult struct {
	Status string          `json:"status"`
	Legacy *model.Memorial `json:"legacy"`
	Modern *model.Person   `json:"modern"`
	Err    string          `json:"error,omitempty"`
}

// CreatePersonDualWrite writes a person to the modern schema, optionally
// creating and linking a legacy memorial first. A modern failure after a
// successful legacy write returns a partial result without an error; any
// other failure propagates.
func (a *Adapter) CreatePersonDualWrite(ctx context.Context, in model.PersonInput, memorial *model.MemorialInput, opts DualWriteOptions) (*DualWriteResult, error) {
	result := &DualWriteResult{}

	if opts.CreateMemorial && in.PersonType == "deceased" && memorial != nil {
		created, err := a.legacy.CreateMemorial(ctx, *memorial)
		if err != nil {
			result.Err = err.Error()
			return result, err
		}
		result.Legacy = created
		in.LegacyMemorialID = &created.ID
	}

	person, err := a.modern.CreatePerson(ctx, in)
	if err != nil {
		result.Err = err.Error()
		if result.Legacy != nil {
			result.Status = DualWritePartial
			return result, nil
		}
		return result, err
	}
	result.Modern = person

	if result.Legacy != nil {
		if _, err := a.modern.LinkToLegacy(ctx, person.ID, model.SourceMemorial, result.Legacy.ID); err != nil {
			result.Err = err.Error()
			result.Status = DualWritePartial
			return result, nil
		}
	}

	result.Status = DualWriteSuccess
	return result, nil
}

// UnifiedPersonView merges both schemas for one person: the modern row, the
// linked legacy records it references, and a combined map where modern
// values win key collisions. The raw legacy records survive under
// combined["legacy_data"].
func (a *Adapter) UnifiedPersonView(ctx context.Context, personID int) (*model.UnifiedPersonView, error) {
	view := &model.UnifiedPersonView{}

	person, err := a.modern.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person != nil {
		view.Modern = person
		if person.LegacyMemorialID != nil {
			view.Legacy.Memorial, err = a.legacy.GetMemorial(ctx, *person.LegacyMemorialID)
			if err != nil {
				return nil, err
			}
		}
		if person.LegacyChapelAppID != nil {
			view.Legacy.Chapel, err = a.legacy.GetChapelApplication(ctx, *person.LegacyChapelAppID)
			if err != nil {
				return nil, err
			}
		}
	}

	view.Combined = combineView(view.Modern, view.Legacy.Memorial, view.Legacy.Chapel)
	return view, nil
}

// combineView flattens the three records into one map, later sources
// overwriting earlier ones so modern takes precedence, and preserves the
// untouched legacy records under legacy_data.
func combineView(person *model.Person, memorial *model.Memorial, chapel *model.ChapelApplication) map[string]any {
	combined := map[string]any{}
	mergeInto(combined, memorial)
	mergeInto(combined, chapel)
	mergeInto(combined, person)
	combined["legacy_data"] = map[string]any{
		"memorial": memorial,
		"chapel":   chapel,
	}
	return combined
}

// mergeInto overlays v's JSON representation onto dst. A JSON round-trip
// keeps the key set identical to what the API serves.
func mergeInto(dst map[string]any, v any) {
	if v == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return
	}
	for k, val := range fields {
		dst[k] = val
	}
}

// SearchEverywhere searches both schemas, keeping the three result lists
// separate: ranked modern persons, legacy memorials, legacy chapel
// applications.
func (a *Adapter) SearchEverywhere(ctx context.Context, term string, opts model.ListOptions) (*model.SearchResults, error) {
	results := &model.SearchResults{
		Modern: []model.PersonSearchHit{},
		Legacy: model.LegacySearchResults{
			Memorials: []model.Memorial{},
			Chapel:    []model.ChapelApplication{},
		},
	}

	hits, err := a.modern.SearchPersons(ctx, term, opts)
	if err != nil {
		return nil, err
	}
	results.Modern = hits

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + term + "%"

	memorialRows, err := a.exec.Query(ctx, `
        SELECT m.*
        FROM bayview.memorials m
        WHERE m.first_name ILIKE $1 OR m.last_name ILIKE $1 OR m.message ILIKE $1
        ORDER BY m.created_at DESC
        LIMIT $2
    `, pattern, limit)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(memorialRows)
	if err != nil {
		return nil, err
	}
	for _, r := range scanned {
		results.Legacy.Memorials = append(results.Legacy.Memorials, *legacy.MemorialFromRow(r))
	}

	chapelRows, err := a.exec.Query(ctx, `
        SELECT sa.*
        FROM crouse_chapel.service_applications sa
        WHERE sa.contact_name ILIKE $1 OR sa.contact_email ILIKE $1 OR sa.member_name ILIKE $1
        ORDER BY sa.created_at DESC
        LIMIT $2
    `, pattern, limit)
	if err != nil {
		return nil, err
	}
	scanned, err = db.ScanRows(chapelRows)
	if err != nil {
		return nil, err
	}
	for _, r := range scanned {
		results.Legacy.Chapel = append(results.Legacy.Chapel, *legacy.ApplicationFromRow(r))
	}

	return results, nil
}

// MigrationProgress computes per-domain and overall migration counts on
// read. Nothing is persisted; the anti-join is always current.
func (a *Adapter) MigrationProgress(ctx context.Context) (*model.MigrationProgress, error) {
	memorials, err := a.domainCounts(ctx, `
        SELECT COUNT(m.id) AS total, COUNT(p.id) AS migrated
        FROM bayview.memorials m
        LEFT JOIN core.persons p ON p.legacy_memorial_id = m.id
    `)
	if err != nil {
		return nil, err
	}
	chapel, err := a.domainCounts(ctx, `
        SELECT COUNT(sa.id) AS total, COUNT(p.id) AS migrated
        FROM crouse_chapel.service_applications sa
        LEFT JOIN core.persons p ON p.legacy_chapel_app_id = sa.id
    `)
	if err != nil {
		return nil, err
	}
	return &model.MigrationProgress{
		Memorials: memorials,
		Chapel:    chapel,
		Overall:   domainProgress(memorials.Total+chapel.Total, memorials.Migrated+chapel.Migrated),
	}, nil
}

func (a *Adapter) domainCounts(ctx context.Context, query string) (model.DomainProgress, error) {
	var total, migrated int
	if err := a.exec.QueryRow(ctx, query).Scan(&total, &migrated); err != nil {
		return model.DomainProgress{}, err
	}
	return domainProgress(total, migrated), nil
}

// domainProgress derives the pending count and a rounded percentage,
// guarding the zero-total case.
func domainProgress(total, migrated int) model.DomainProgress {
	p := model.DomainProgress{
		Total:    total,
		Migrated: migrated,
		Pending:  total - migrated,
	}
	if total > 0 {
		p.Percentage = int(math.Round(float64(migrated) / float64(total) * 100))
	}
	return p
}

// ValidateConsistency is a read-only reconciliation sweep. Each finding
// carries a count and at most five example rows; nothing is repaired.
func (a *Adapter) ValidateConsistency(ctx context.Context) ([]model.ConsistencyIssue, error) {
	issues := []model.ConsistencyIssue{}

	orphaned, err := a.exec.Query(ctx, `
        SELECT
            p.id,
            p.first_name || ' ' || p.last_name AS name,
            p.legacy_memorial_id,
            p.legacy_chapel_app_id
        FROM core.persons p
        WHERE (p.legacy_memorial_id IS NOT NULL AND NOT EXISTS (
                SELECT 1 FROM bayview.memorials m WHERE m.id = p.legacy_memorial_id
            ))
           OR (p.legacy_chapel_app_id IS NOT NULL AND NOT EXISTS (
                SELECT 1 FROM crouse_chapel.service_applications sa WHERE sa.id = p.legacy_chapel_app_id
            ))
    `)
	if err != nil {
		return nil, err
	}
	orphanedRows, err := db.ScanRows(orphaned)
	if err != nil {
		return nil, err
	}
	if len(orphanedRows) > 0 {
		issues = append(issues, consistencyIssue(
			"orphaned_persons", "Persons with invalid legacy links", orphanedRows))
	}

	mismatched, err := a.exec.Query(ctx, `
        SELECT
            p.id,
            p.first_name AS modern_first,
            p.last_name AS modern_last,
            m.first_name AS legacy_first,
            m.last_name AS legacy_last
        FROM core.persons p
        JOIN bayview.memorials m ON p.legacy_memorial_id = m.id
        WHERE p.first_name != m.first_name OR p.last_name != m.last_name
    `)
	if err != nil {
		return nil, err
	}
	mismatchedRows, err := db.ScanRows(mismatched)
	if err != nil {
		return nil, err
	}
	if len(mismatchedRows) > 0 {
		issues = append(issues, consistencyIssue(
			"data_mismatch", "Name mismatches between modern and legacy", mismatchedRows))
	}

	return issues, nil
}

func consistencyIssue(issueType, description string, rows []db.Row) model.ConsistencyIssue {
	examples := make([]map[string]any, 0, 5)
	for i := 0; i < len(rows) && i < 5; i++ {
		examples = append(examples, rows[i])
	}
	return model.ConsistencyIssue{
		Type:        issueType,
		Description: description,
		Count:       len(rows),
		Examples:    examples,
	}
}

// UnmigratedMemorials returns the oldest legacy memorials with no modern
// counterpart, feeding batch migration.
func (a *Adapter) UnmigratedMemorials(ctx context.Context, limit int) ([]model.Memorial, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.exec.Query(ctx, `
        SELECT m.*
        FROM bayview.memorials m
        LEFT JOIN core.persons p ON p.legacy_memorial_id = m.id
        WHERE p.id IS NULL
        ORDER BY m.created_at
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	out := make([]model.Memorial, 0, len(scanned))
	for _, r := range scanned {
		out = append(out, *legacy.MemorialFromRow(r))
	}
	return out, nil
}
