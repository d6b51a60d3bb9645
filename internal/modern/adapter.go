// Package modern encapsulates the normalized post-migration schema centered
// on core.persons, with contact methods, family relationships and membership
// radiating from it.
package modern

import (
	"context"
	"time"

	"github.com/bayviewassociation/memberdb/internal/db"
	"github.com/bayviewassociation/memberdb/internal/model"
)

const (
	personsTable       = "core.persons"
	contactsTable      = "core.contact_methods"
	relationshipsTable = "core.family_relationships"
	membersTable       = "core.members"
	auditLogTable      = "bayview.audit_log"
)

// Adapter runs modern-schema operations on one Executor. Absence is a nil
// record, not an error; database errors propagate unchanged.
type Adapter struct {
	exec *db.Executor
}

func New(exec *db.Executor) *Adapter { return &Adapter{exec: exec} }

// CreatePerson inserts a core.persons row. A migration timestamp is stamped
// when the caller did not supply one.
func (a *Adapter) CreatePerson(ctx context.Context, in model.PersonInput) (*model.Person, error) {
	migrationDate := in.MigrationDate
	if migrationDate == nil {
		now := time.Now()
		migrationDate = &now
	}
	row, err := a.exec.Insert(ctx, personsTable, db.Row{
		"person_type":          in.PersonType,
		"first_name":           in.FirstName,
		"middle_name":          in.MiddleName,
		"last_name":            in.LastName,
		"maiden_name":          in.MaidenName,
		"date_of_birth":        in.DateOfBirth,
		"gender":               in.Gender,
		"primary_email":        in.PrimaryEmail,
		"primary_phone":        in.PrimaryPhone,
		"legacy_memorial_id":   in.LegacyMemorialID,
		"legacy_chapel_app_id": in.LegacyChapelAppID,
		"migration_source":     in.MigrationSource,
		"migration_date":       migrationDate,
		"created_by":           in.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return personFromRow(row), nil
}

// GetPerson hydrates a person with contact methods, active outgoing family
// relationships (joined to the related display name) and the membership row.
// Absence of membership is normal, not an error.
func (a *Adapter) GetPerson(ctx context.Context, id int) (*model.Person, error) {
	row, err := a.exec.FindOne(ctx, personsTable, db.Row{"id": id})
	if err != nil || row == nil {
		return nil, err
	}
	person := personFromRow(row)

	contactRows, err := a.exec.FindMany(ctx, contactsTable, db.Row{"person_id": id}, db.FindOptions{})
	if err != nil {
		return nil, err
	}
	for _, cr := range contactRows {
		person.Contacts = append(person.Contacts, contactFromRow(cr))
	}

	relRows, err := a.exec.Query(ctx, `
        SELECT fr.*, p.first_name, p.last_name
        FROM core.family_relationships fr
        JOIN core.persons p ON fr.related_person_id = p.id
        WHERE fr.person_id = $1 AND fr.is_active = true
    `, id)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(relRows)
	if err != nil {
		return nil, err
	}
	for _, rr := range scanned {
		person.Family = append(person.Family, model.FamilyLink{
			FamilyRelationship: relationshipFromRow(rr),
			RelatedFirstName:   rr.String("first_name"),
			RelatedLastName:    rr.String("last_name"),
		})
	}

	memberRow, err := a.exec.FindOne(ctx, membersTable, db.Row{"person_id": id})
	if err != nil {
		return nil, err
	}
	if memberRow != nil {
		m := memberFromRow(memberRow)
		person.Membership = &m
	}

	return person, nil
}

// ListPersons returns bare persons rows without hydration.
func (a *Adapter) ListPersons(ctx context.Context, opts model.ListOptions) ([]model.Person, error) {
	rows, err := a.exec.FindMany(ctx, personsTable, nil, db.FindOptions{
		OrderBy: opts.OrderBy,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Person, 0, len(rows))
	for _, r := range rows {
		out = append(out, *personFromRow(r))
	}
	return out, nil
}

// GetPersonByMemorialID looks a person up via its legacy memorial
// back-reference.
func (a *Adapter) GetPersonByMemorialID(ctx context.Context, memorialID int) (*model.Person, error) {
	row, err := a.exec.FindOne(ctx, personsTable, db.Row{"legacy_memorial_id": memorialID})
	if err != nil || row == nil {
		return nil, err
	}
	return personFromRow(row), nil
}

// GetPersonByChapelAppID looks a person up via its legacy chapel application
// back-reference.
func (a *Adapter) GetPersonByChapelAppID(ctx context.Context, chapelAppID int) (*model.Person, error) {
	row, err := a.exec.FindOne(ctx, personsTable, db.Row{"legacy_chapel_app_id": chapelAppID})
	if err != nil || row == nil {
		return nil, err
	}
	return personFromRow(row), nil
}

// legacyRefColumn maps a migration source to the back-reference column it
// owns. Each source sets exactly one column.
func legacyRefColumn(source string) string {
	if source == model.SourceMemorial {
		return "legacy_memorial_id"
	}
	return "legacy_chapel_app_id"
}

// UpsertPersonFromLegacy is the idempotency gate for re-migration: a person
// already linked to (source, legacyID) is updated in place, otherwise a new
// person is created with the back-reference set. Calling it twice with the
// same pair never creates a second person.
func (a *Adapter) UpsertPersonFromLegacy(ctx context.Context, source string, legacyID int, in model.PersonInput) (*model.Person, error) {
	column := legacyRefColumn(source)
	existing, err := a.exec.FindOne(ctx, personsTable, db.Row{column: legacyID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		row, err := a.exec.Update(ctx, personsTable, db.Row{"id": existing.Int("id")}, db.Row{
			"person_type":   in.PersonType,
			"first_name":    in.FirstName,
			"middle_name":   in.MiddleName,
			"last_name":     in.LastName,
			"maiden_name":   in.MaidenName,
			"date_of_birth": in.DateOfBirth,
			"gender":        in.Gender,
			"primary_email": in.PrimaryEmail,
			"primary_phone": in.PrimaryPhone,
			"updated_at":    time.Now(),
		})
		if err != nil {
			return nil, err
		}
		return personFromRow(row), nil
	}

	source = source + "_migration"
	now := time.Now()
	in.MigrationSource = &source
	in.MigrationDate = &now
	if column == "legacy_memorial_id" {
		in.LegacyMemorialID = &legacyID
	} else {
		in.LegacyChapelAppID = &legacyID
	}
	return a.CreatePerson(ctx, in)
}

// LinkToLegacy sets exactly one back-reference column chosen by source,
// leaving the other untouched.
func (a *Adapter) LinkToLegacy(ctx context.Context, personID int, source string, legacyID int) (*model.Person, error) {
	row, err := a.exec.Update(ctx, personsTable, db.Row{"id": personID}, db.Row{
		legacyRefColumn(source): legacyID,
		"updated_at":            time.Now(),
	})
	if err != nil || row == nil {
		return nil, err
	}
	return personFromRow(row), nil
}

// CreateFamilyRelationship upserts a directed edge keyed on the ordered
// (person, related) pair. An existing edge is retyped and reactivated rather
// than duplicated.
func (a *Adapter) CreateFamilyRelationship(ctx context.Context, personID, relatedPersonID int, relationshipType string) (*model.FamilyRelationship, error) {
	existing, err := a.exec.FindOne(ctx, relationshipsTable, db.Row{
		"person_id":         personID,
		"related_person_id": relatedPersonID,
	})
	if err != nil {
		return nil, err
	}
	var row db.Row
	if existing != nil {
		row, err = a.exec.Update(ctx, relationshipsTable, db.Row{"id": existing.Int("id")}, db.Row{
			"relationship_type": relationshipType,
			"is_active":         true,
		})
	} else {
		row, err = a.exec.Insert(ctx, relationshipsTable, db.Row{
			"person_id":         personID,
			"related_person_id": relatedPersonID,
			"relationship_type": relationshipType,
			"is_active":         true,
		})
	}
	if err != nil {
		return nil, err
	}
	rel := relationshipFromRow(row)
	return &rel, nil
}

// UpsertContactMethod dedups on the (person, type, value) triple. An existing
// row is returned unchanged: the label is first-write-wins.
func (a *Adapter) UpsertContactMethod(ctx context.Context, personID int, contactType, contactValue string, label *string) (*model.ContactMethod, error) {
	existing, err := a.exec.FindOne(ctx, contactsTable, db.Row{
		"person_id":     personID,
		"contact_type":  contactType,
		"contact_value": contactValue,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		c := contactFromRow(existing)
		return &c, nil
	}
	row, err := a.exec.Insert(ctx, contactsTable, db.Row{
		"person_id":     personID,
		"contact_type":  contactType,
		"contact_value": contactValue,
		"label":         label,
		"is_primary":    false,
	})
	if err != nil {
		return nil, err
	}
	c := contactFromRow(row)
	return &c, nil
}

// CreateMember inserts a core.members row with the documented defaults.
func (a *Adapter) CreateMember(ctx context.Context, personID int, in model.MemberInput) (*model.Member, error) {
	membershipType := in.MembershipType
	if membershipType == "" {
		membershipType = "regular"
	}
	status := in.Status
	if status == "" {
		status = "active"
	}
	start := in.MembershipStartDate
	if start == nil {
		now := time.Now()
		start = &now
	}
	voting := true
	if in.VotingEligible != nil {
		voting = *in.VotingEligible
	}
	board := true
	if in.BoardEligible != nil {
		board = *in.BoardEligible
	}
	row, err := a.exec.Insert(ctx, membersTable, db.Row{
		"person_id":             personID,
		"member_number":         in.MemberNumber,
		"membership_type":       membershipType,
		"status":                status,
		"membership_start_date": start,
		"voting_eligible":       voting,
		"board_eligible":        board,
		"legacy_family_id":      in.LegacyFamilyID,
		"generation_number":     in.GenerationNumber,
	})
	if err != nil {
		return nil, err
	}
	m := memberFromRow(row)
	return &m, nil
}

// SearchPersons runs ranked full-text search unioned with a substring match
// on email and member number, ordered by relevance then last/first name.
func (a *Adapter) SearchPersons(ctx context.Context, term string, opts model.ListOptions) ([]model.PersonSearchHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.exec.Query(ctx, `
        SELECT
            p.*,
            m.member_number,
            ts_rank(p.full_name_search, plainto_tsquery('english', $1)) AS relevance
        FROM core.persons p
        LEFT JOIN core.members m ON p.id = m.person_id
        WHERE p.full_name_search @@ plainto_tsquery('english', $1)
           OR p.primary_email ILIKE $2
           OR m.member_number ILIKE $2
        ORDER BY relevance DESC, p.last_name, p.first_name
        LIMIT $3 OFFSET $4
    `, term, "%"+term+"%", limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	hits := make([]model.PersonSearchHit, 0, len(scanned))
	for _, r := range scanned {
		hits = append(hits, model.PersonSearchHit{
			Person:       *personFromRow(r),
			MemberNumber: r.StringPtr("member_number"),
			Relevance:    r.Float("relevance"),
		})
	}
	return hits, nil
}

// MigrationStats aggregates the modern schema population.
func (a *Adapter) MigrationStats(ctx context.Context) (*model.MigrationStats, error) {
	total, err := a.exec.Count(ctx, personsTable, nil)
	if err != nil {
		return nil, err
	}
	stats := &model.MigrationStats{
		TotalPersons: total,
		ByType:       map[string]int{},
		BySource:     map[string]int{},
	}

	typeRows, err := a.exec.Query(ctx, `
        SELECT person_type, COUNT(*) AS count
        FROM core.persons
        GROUP BY person_type
    `)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(typeRows)
	if err != nil {
		return nil, err
	}
	for _, r := range scanned {
		stats.ByType[r.String("person_type")] = r.Int("count")
	}

	sourceRows, err := a.exec.Query(ctx, `
        SELECT migration_source, COUNT(*) AS count
        FROM core.persons
        WHERE migration_source IS NOT NULL
        GROUP BY migration_source
    `)
	if err != nil {
		return nil, err
	}
	scanned, err = db.ScanRows(sourceRows)
	if err != nil {
		return nil, err
	}
	for _, r := range scanned {
		stats.BySource[r.String("migration_source")] = r.Int("count")
	}

	linkRow := a.exec.QueryRow(ctx, `
        SELECT
            COUNT(CASE WHEN legacy_memorial_id IS NOT NULL THEN 1 END) AS memorial_links,
            COUNT(CASE WHEN legacy_chapel_app_id IS NOT NULL THEN 1 END) AS chapel_links
        FROM core.persons
    `)
	if err := linkRow.Scan(&stats.MemorialLinks, &stats.ChapelLinks); err != nil {
		return nil, err
	}

	return stats, nil
}

// CreateAuditLog records a change against the shared audit table.
func (a *Adapter) CreateAuditLog(ctx context.Context, tableName string, recordID int, action, userID string, oldValues, newValues []byte) error {
	_, err := a.exec.Insert(ctx, auditLogTable, db.Row{
		"table_name": tableName,
		"record_id":  recordID,
		"action":     action,
		"changed_by": userID,
		"old_values": oldValues,
		"new_values": newValues,
	})
	return err
}

// PersonTimeline unions heterogeneous event sources (audit entries, contact
// creations, relationship additions) ordered by event date descending, each
// tagged with an event_type discriminator.
func (a *Adapter) PersonTimeline(ctx context.Context, personID, limit int) ([]model.TimelineEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.exec.Query(ctx, `
        WITH timeline AS (
            SELECT
                'audit' AS event_type,
                changed_at AS event_date,
                action AS event_action,
                table_name AS event_context,
                new_values AS event_data
            FROM bayview.audit_log
            WHERE table_name = 'core.persons' AND record_id = $1

            UNION ALL

            SELECT
                'contact' AS event_type,
                created_at AS event_date,
                'created' AS event_action,
                contact_type AS event_context,
                jsonb_build_object('value', contact_value, 'label', label) AS event_data
            FROM core.contact_methods
            WHERE person_id = $1

            UNION ALL

            SELECT
                'family' AS event_type,
                fr.created_at AS event_date,
                'added' AS event_action,
                fr.relationship_type AS event_context,
                jsonb_build_object(
                    'related_person', p.first_name || ' ' || p.last_name,
                    'related_person_id', p.id
                ) AS event_data
            FROM core.family_relationships fr
            JOIN core.persons p ON fr.related_person_id = p.id
            WHERE fr.person_id = $1
        )
        SELECT * FROM timeline
        ORDER BY event_date DESC
        LIMIT $2
    `, personID, limit)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	events := make([]model.TimelineEvent, 0, len(scanned))
	for _, r := range scanned {
		ev := model.TimelineEvent{
			EventType:    r.String("event_type"),
			EventDate:    r.Time("event_date"),
			EventAction:  r.String("event_action"),
			EventContext: r.String("event_context"),
		}
		if s := r.String("event_data"); s != "" {
			ev.EventData = []byte(s)
		}
		events = append(events, ev)
	}
	return events, nil
}

func personFromRow(r db.Row) *model.Person {
	return &model.Person{
		ID:                r.Int("id"),
		PersonType:        r.String("person_type"),
		FirstName:         r.String("first_name"),
		MiddleName:        r.StringPtr("middle_name"),
		LastName:          r.String("last_name"),
		MaidenName:        r.StringPtr("maiden_name"),
		DateOfBirth:       r.TimePtr("date_of_birth"),
		Gender:            r.StringPtr("gender"),
		PrimaryEmail:      r.StringPtr("primary_email"),
		PrimaryPhone:      r.StringPtr("primary_phone"),
		LegacyMemorialID:  r.IntPtr("legacy_memorial_id"),
		LegacyChapelAppID: r.IntPtr("legacy_chapel_app_id"),
		MigrationSource:   r.StringPtr("migration_source"),
		MigrationDate:     r.TimePtr("migration_date"),
		CreatedBy:         r.StringPtr("created_by"),
		CreatedAt:         r.Time("created_at"),
		UpdatedAt:         r.Time("updated_at"),
	}
}

func contactFromRow(r db.Row) model.ContactMethod {
	return model.ContactMethod{
		ID:           r.Int("id"),
		PersonID:     r.Int("person_id"),
		ContactType:  r.String("contact_type"),
		ContactValue: r.String("contact_value"),
		Label:        r.StringPtr("label"),
		IsPrimary:    r.Bool("is_primary"),
		CreatedAt:    r.Time("created_at"),
	}
}

func relationshipFromRow(r db.Row) model.FamilyRelationship {
	return model.FamilyRelationship{
		ID:               r.Int("id"),
		PersonID:         r.Int("person_id"),
		RelatedPersonID:  r.Int("related_person_id"),
		RelationshipType: r.String("relationship_type"),
		IsActive:         r.Bool("is_active"),
		CreatedAt:        r.Time("created_at"),
	}
}

func memberFromRow(r db.Row) model.Member {
	return model.Member{
		ID:                  r.Int("id"),
		PersonID:            r.Int("person_id"),
		MemberNumber:        r.StringPtr("member_number"),
		MembershipType:      r.String("membership_type"),
		Status:              r.String("status"),
		MembershipStartDate: r.Time("membership_start_date"),
		VotingEligible:      r.Bool("voting_eligible"),
		BoardEligible:       r.Bool("board_eligible"),
		LegacyFamilyID:      r.IntPtr("legacy_family_id"),
		GenerationNumber:    r.IntPtr("generation_number"),
	}
}
