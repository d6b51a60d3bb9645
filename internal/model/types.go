package model

import (
	"encoding/json"
	"time"
)

// Sources selecting which legacy back-reference column a modern person carries.
const (
	SourceMemorial = "memorial"
	SourceChapel   = "chapel"
)

// Memorial is a row in the legacy bayview.memorials table.
type Memorial struct {
	ID        int        `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	DeathDate *time.Time `json:"death_date,omitempty"`
	Message   *string    `json:"message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MemorialInput carries the fields the legacy memorial shape recognizes.
// The struct definition is the allow-list: anything else a caller holds
// simply has nowhere to go.
type MemorialInput struct {
	FirstName string
	LastName  string
	BirthDate *time.Time
	DeathDate *time.Time
	Message   *string
}

// Chapel application types stored in crouse_chapel.service_applications.
const (
	ChapelWedding    = "wedding"
	ChapelMemorial   = "memorial"
	ChapelFuneral    = "funeral"
	ChapelBaptism    = "baptism"
	ChapelGeneralUse = "general_use"
)

// ChapelApplication is a parent row in crouse_chapel.service_applications,
// optionally hydrated with its type-specific detail, clergy and equipment.
type ChapelApplication struct {
	ID                 int            `json:"id"`
	ApplicationType    string         `json:"application_type"`
	ServiceDate        time.Time      `json:"service_date"`
	ServiceTime        string         `json:"service_time"`
	RehearsalDate      *time.Time     `json:"rehearsal_date,omitempty"`
	RehearsalTime      *string        `json:"rehearsal_time,omitempty"`
	MemberName         string         `json:"member_name"`
	MemberRelationship string         `json:"member_relationship"`
	ContactName        string         `json:"contact_name"`
	ContactAddress     string         `json:"contact_address"`
	ContactPhone       string         `json:"contact_phone"`
	ContactEmail       string         `json:"contact_email"`
	Status             string         `json:"status"`
	PaymentStatus      string         `json:"payment_status"`
	SubmissionDate     *time.Time     `json:"submission_date,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Detail             *ChapelDetail  `json:"details,omitempty"`
	Clergy             []Clergy       `json:"clergy,omitempty"`
	Equipment          map[string]any `json:"equipment,omitempty"`
}

// ChapelDetail is the type-specific detail row, resolved once at read time.
// Exactly one variant field is non-nil and Type names it.
type ChapelDetail struct {
	Type       string            `json:"type"`
	Wedding    *WeddingDetail    `json:"wedding,omitempty"`
	Memorial   *MemorialDetail   `json:"memorial,omitempty"`
	Baptism    *BaptismDetail    `json:"baptism,omitempty"`
	GeneralUse *GeneralUseDetail `json:"general_use,omitempty"`
}

type WeddingDetail struct {
	ApplicationID    int      `json:"application_id"`
	CoupleNames      string   `json:"couple_names"`
	GuestCount       *int     `json:"guest_count,omitempty"`
	BrideArrivalTime *string  `json:"bride_arrival_time,omitempty"`
	WeddingFee       *float64 `json:"wedding_fee,omitempty"`
}

type MemorialDetail struct {
	ApplicationID           int    `json:"application_id"`
	DeceasedName            string `json:"deceased_name"`
	MemorialGardenPlacement *bool  `json:"memorial_garden_placement,omitempty"`
}

type BaptismDetail struct {
	ApplicationID int     `json:"application_id"`
	CandidateName string  `json:"candidate_name"`
	ParentsNames  *string `json:"parents_names,omitempty"`
	Witnesses     *string `json:"witnesses,omitempty"`
	BaptismType   *string `json:"baptism_type,omitempty"`
}

type GeneralUseDetail struct {
	ApplicationID      int     `json:"application_id"`
	EventType          string  `json:"event_type"`
	OrganizationName   *string `json:"organization_name,omitempty"`
	EventDescription   *string `json:"event_description,omitempty"`
	ExpectedAttendance *int    `json:"expected_attendance,omitempty"`
}

// Clergy is a row in crouse_chapel.clergy.
type Clergy struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// ChapelApplicationInput carries the parent-row fields for a new application.
// Type-specific detail rows are the caller's responsibility.
type ChapelApplicationInput struct {
	ApplicationType    string
	ServiceDate        time.Time
	ServiceTime        string
	RehearsalDate      *time.Time
	RehearsalTime      *string
	MemberName         string
	MemberRelationship string
	ContactName        string
	ContactAddress     string
	ContactPhone       string
	ContactEmail       string
	Status             string
	PaymentStatus      string
	SubmissionDate     *time.Time
}

// Person is a row in core.persons, optionally hydrated with contacts,
// family links and membership. DateOfDeath and MemorialMessage only appear
// on projections synthesized from legacy memorials; persons rows do not
// store them.
type Person struct {
	ID                int             `json:"id"`
	PersonType        string          `json:"person_type"`
	FirstName         string          `json:"first_name"`
	MiddleName        *string         `json:"middle_name,omitempty"`
	LastName          string          `json:"last_name"`
	MaidenName        *string         `json:"maiden_name,omitempty"`
	DateOfBirth       *time.Time      `json:"date_of_birth,omitempty"`
	DateOfDeath       *time.Time      `json:"date_of_death,omitempty"`
	Gender            *string         `json:"gender,omitempty"`
	PrimaryEmail      *string         `json:"primary_email,omitempty"`
	PrimaryPhone      *string         `json:"primary_phone,omitempty"`
	LegacyMemorialID  *int            `json:"legacy_memorial_id,omitempty"`
	LegacyChapelAppID *int            `json:"legacy_chapel_app_id,omitempty"`
	MigrationSource   *string         `json:"migration_source,omitempty"`
	MigrationDate     *time.Time      `json:"migration_date,omitempty"`
	CreatedBy         *string         `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	MemorialMessage   *string         `json:"memorial_message,omitempty"`
	Contacts          []ContactMethod `json:"contacts,omitempty"`
	Family            []FamilyLink    `json:"family,omitempty"`
	Membership        *Member         `json:"membership,omitempty"`
}

// PersonInput carries the insertable core.persons fields.
type PersonInput struct {
	PersonType        string
	FirstName         string
	MiddleName        *string
	LastName          string
	MaidenName        *string
	DateOfBirth       *time.Time
	Gender            *string
	PrimaryEmail      *string
	PrimaryPhone      *string
	LegacyMemorialID  *int
	LegacyChapelAppID *int
	MigrationSource   *string
	MigrationDate     *time.Time
	CreatedBy         *string
}

// ContactMethod is a row in core.contact_methods. The natural key is
// (person_id, contact_type, contact_value).
type ContactMethod struct {
	ID           int       `json:"id"`
	PersonID     int       `json:"person_id"`
	ContactType  string    `json:"contact_type"`
	ContactValue string    `json:"contact_value"`
	Label        *string   `json:"label,omitempty"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// FamilyRelationship is a directed edge in core.family_relationships.
type FamilyRelationship struct {
	ID               int       `json:"id"`
	PersonID         int       `json:"person_id"`
	RelatedPersonID  int       `json:"related_person_id"`
	RelationshipType string    `json:"relationship_type"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// FamilyLink is a relationship joined to the related person's display name.
type FamilyLink struct {
	FamilyRelationship
	RelatedFirstName string `json:"first_name"`
	RelatedLastName  string `json:"last_name"`
}

// Member is a row in core.members.
type Member struct {
	ID                  int       `json:"id"`
	PersonID            int       `json:"person_id"`
	MemberNumber        *string   `json:"member_number,omitempty"`
	MembershipType      string    `json:"membership_type"`
	Status              string    `json:"status"`
	MembershipStartDate time.Time `json:"membership_start_date"`
	VotingEligible      bool      `json:"voting_eligible"`
	BoardEligible       bool      `json:"board_eligible"`
	LegacyFamilyID      *int      `json:"legacy_family_id,omitempty"`
	GenerationNumber    *int      `json:"generation_number,omitempty"`
}

// MemberInput carries the insertable core.members fields; zero values take
// the defaults (regular/active, start date now, eligible for both).
type MemberInput struct {
	MemberNumber        *string
	MembershipType      string
	Status              string
	MembershipStartDate *time.Time
	VotingEligible      *bool
	BoardEligible       *bool
	LegacyFamilyID      *int
	GenerationNumber    *int
}

// TaggedPerson pairs a person projection with the schema that produced it.
// Source is "modern" for core.persons rows and "legacy" for projections
// synthesized in memory from unmigrated legacy records.
type TaggedPerson struct {
	Source string  `json:"source"`
	Person *Person `json:"data"`
}

// ListOptions are the common paging knobs for list/search reads.
type ListOptions struct {
	OrderBy string
	Limit   int
	Offset  int
}

// PersonSearchHit is a ranked full-text search result.
type PersonSearchHit struct {
	Person
	MemberNumber *string `json:"member_number,omitempty"`
	Relevance    float64 `json:"relevance"`
}

// SearchResults keeps the three provenance-separated result lists; callers
// decide how to present them.
type SearchResults struct {
	Modern []PersonSearchHit   `json:"modern"`
	Legacy LegacySearchResults `json:"legacy"`
}

type LegacySearchResults struct {
	Memorials []Memorial          `json:"memorials"`
	Chapel    []ChapelApplication `json:"chapel"`
}

// WriteError records which system failed during a dual-write.
type WriteError struct {
	System  string `json:"system"`
	Message string `json:"message"`
}

// MemorialWriteResult is the terminal state of a memorial dual-write.
// Success tracks "no data lost", not "fully migrated": it is true whenever
// the transaction committed, even if Modern stayed nil.
type MemorialWriteResult struct {
	Success bool         `json:"success"`
	Legacy  *Memorial    `json:"legacy"`
	Modern  *Person      `json:"modern"`
	Errors  []WriteError `json:"errors"`
}

// ChapelWriteResult is the terminal state of a chapel-application dual-write.
type ChapelWriteResult struct {
	Success bool               `json:"success"`
	Legacy  *ChapelApplication `json:"legacy"`
	Modern  *Person            `json:"modern"`
	Errors  []WriteError       `json:"errors"`
}

// DomainProgress counts migration state for one legacy domain.
type DomainProgress struct {
	Total      int `json:"total"`
	Migrated   int `json:"migrated"`
	Pending    int `json:"pending"`
	Percentage int `json:"percentage"`
}

// MigrationProgress is computed on read and never persisted.
type MigrationProgress struct {
	Memorials DomainProgress `json:"memorials"`
	Chapel    DomainProgress `json:"chapel"`
	Overall   DomainProgress `json:"overall"`
}

// ConsistencyIssue is a read-only reconciliation finding. Examples holds at
// most five offending rows.
type ConsistencyIssue struct {
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Count       int              `json:"count"`
	Examples    []map[string]any `json:"examples"`
}

// IntegrityIssue is a structural problem inside the legacy schema itself.
type IntegrityIssue struct {
	Type  string `json:"type"`
	Table string `json:"table"`
	Count int    `json:"count"`
}

// LegacyCounts summarizes legacy record volume.
type LegacyCounts struct {
	Memorials          int            `json:"memorials"`
	ChapelApplications int            `json:"chapel_applications"`
	ChapelByType       map[string]int `json:"chapel_by_type"`
}

// MigrationStats summarizes the modern schema population.
type MigrationStats struct {
	TotalPersons  int            `json:"total_persons"`
	ByType        map[string]int `json:"by_type"`
	BySource      map[string]int `json:"by_source"`
	MemorialLinks int            `json:"memorial_links"`
	ChapelLinks   int            `json:"chapel_links"`
}

// TimelineEvent is one entry in a person's activity timeline, tagged with
// the source it was unioned from.
type TimelineEvent struct {
	EventType    string          `json:"event_type"`
	EventDate    time.Time       `json:"event_date"`
	EventAction  string          `json:"event_action"`
	EventContext string          `json:"event_context"`
	EventData    json.RawMessage `json:"event_data,omitempty"`
}

// Migration outcome statuses for single-record re-migration.
const (
	MigrationStatusMigrated        = "migrated"
	MigrationStatusAlreadyMigrated = "already_migrated"
)

// MigrationOutcome reports a single-record re-migration.
type MigrationOutcome struct {
	Status string  `json:"status"`
	Person *Person `json:"person"`
}

// BatchMigrationError records one failed row of a batch run.
type BatchMigrationError struct {
	LegacyID int    `json:"legacy_id"`
	Error    string `json:"error"`
}

// BatchMigrationResult aggregates a batch migration run; one row's failure
// never aborts the batch.
type BatchMigrationResult struct {
	Total    int                   `json:"total"`
	Migrated int                   `json:"migrated"`
	Skipped  int                   `json:"skipped"`
	Errors   []BatchMigrationError `json:"errors"`
}

// UnifiedLegacy holds the untouched legacy sub-objects of a unified view.
type UnifiedLegacy struct {
	Memorial *Memorial          `json:"memorial"`
	Chapel   *ChapelApplication `json:"chapel"`
}

// UnifiedPersonView merges both schemas for one person. Combined resolves
// key collisions with modern values winning; the raw legacy records stay
// reachable under Legacy and Combined["legacy_data"] for traceability.
type UnifiedPersonView struct {
	Modern   *Person        `json:"modern"`
	Legacy   UnifiedLegacy  `json:"legacy"`
	Combined map[string]any `json:"combined"`
}
