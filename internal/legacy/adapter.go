// Package legacy encapsulates reads and writes against the pre-migration
// schemas (bayview, crouse_chapel). The legacy schema stays the system of
// record until migration completes.
package legacy

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/bayviewassociation/memberdb/internal/db"
	"github.com/bayviewassociation/memberdb/internal/model"
)

const (
	memorialsTable    = "bayview.memorials"
	applicationsTable = "crouse_chapel.service_applications"
	equipmentTable    = "crouse_chapel.service_equipment"
)

// Adapter runs legacy-schema operations on one Executor. Methods never catch
// database errors; the executor logs context and the error propagates.
// Absence is a nil record, not an error.
type Adapter struct {
	exec *db.Executor
}

func New(exec *db.Executor) *Adapter { return &Adapter{exec: exec} }

// GetMemorial fetches one memorial, nil when absent.
func (a *Adapter) GetMemorial(ctx context.Context, id int) (*model.Memorial, error) {
	row, err := a.exec.FindOne(ctx, memorialsTable, db.Row{"id": id})
	if err != nil || row == nil {
		return nil, err
	}
	return MemorialFromRow(row), nil
}

// ListMemorials returns memorials ordered by creation time descending unless
// the caller overrides the ordering.
func (a *Adapter) ListMemorials(ctx context.Context, opts model.ListOptions) ([]model.Memorial, error) {
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	rows, err := a.exec.FindMany(ctx, memorialsTable, nil, db.FindOptions{
		OrderBy: orderBy,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Memorial, 0, len(rows))
	for _, r := range rows {
		out = append(out, *MemorialFromRow(r))
	}
	return out, nil
}

// CreateMemorial inserts a memorial. The input struct is the allow-list of
// fields the legacy shape recognizes.
func (a *Adapter) CreateMemorial(ctx context.Context, in model.MemorialInput) (*model.Memorial, error) {
	row, err := a.exec.Insert(ctx, memorialsTable, db.Row{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"birth_date": in.BirthDate,
		"death_date": in.DeathDate,
		"message":    in.Message,
	})
	if err != nil {
		return nil, err
	}
	return MemorialFromRow(row), nil
}

// UpdateMemorial applies a partial field update and returns the updated row.
func (a *Adapter) UpdateMemorial(ctx context.Context, id int, fields db.Row) (*model.Memorial, error) {
	row, err := a.exec.Update(ctx, memorialsTable, db.Row{"id": id}, fields)
	if err != nil || row == nil {
		return nil, err
	}
	return MemorialFromRow(row), nil
}

// GetChapelApplication fetches the parent row and hydrates the type-specific
// detail (resolved once into the ChapelDetail variant), clergy links and the
// equipment row. Nil when absent.
func (a *Adapter) GetChapelApplication(ctx context.Context, id int) (*model.ChapelApplication, error) {
	row, err := a.exec.FindOne(ctx, applicationsTable, db.Row{"id": id})
	if err != nil || row == nil {
		return nil, err
	}
	app := ApplicationFromRow(row)

	detail, err := a.loadDetail(ctx, app.ApplicationType, id)
	if err != nil {
		return nil, err
	}
	app.Detail = detail

	clergyRows, err := a.exec.Query(ctx, `
        SELECT c.id, c.name, c.phone, c.email
        FROM crouse_chapel.clergy c
        JOIN crouse_chapel.service_clergy sc ON c.id = sc.clergy_id
        WHERE sc.application_id = $1
    `, id)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(clergyRows)
	if err != nil {
		return nil, err
	}
	for _, cr := range scanned {
		app.Clergy = append(app.Clergy, model.Clergy{
			ID:    cr.Int("id"),
			Name:  cr.String("name"),
			Phone: cr.StringPtr("phone"),
			Email: cr.StringPtr("email"),
		})
	}

	equipment, err := a.exec.FindOne(ctx, equipmentTable, db.Row{"application_id": id})
	if err != nil {
		return nil, err
	}
	app.Equipment = equipment

	return app, nil
}

func (a *Adapter) loadDetail(ctx context.Context, appType string, id int) (*model.ChapelDetail, error) {
	cond := db.Row{"application_id": id}
	switch appType {
	case model.ChapelWedding:
		row, err := a.exec.FindOne(ctx, "crouse_chapel.wedding_details", cond)
		if err != nil || row == nil {
			return nil, err
		}
		return &model.ChapelDetail{Type: model.ChapelWedding, Wedding: &model.WeddingDetail{
			ApplicationID:    row.Int("application_id"),
			CoupleNames:      row.String("couple_names"),
			GuestCount:       row.IntPtr("guest_count"),
			BrideArrivalTime: row.StringPtr("bride_arrival_time"),
			WeddingFee:       row.FloatPtr("wedding_fee"),
		}}, nil
	case model.ChapelMemorial, model.ChapelFuneral:
		row, err := a.exec.FindOne(ctx, "crouse_chapel.memorial_details", cond)
		if err != nil || row == nil {
			return nil, err
		}
		return &model.ChapelDetail{Type: model.ChapelMemorial, Memorial: &model.MemorialDetail{
			ApplicationID:           row.Int("application_id"),
			DeceasedName:            row.String("deceased_name"),
			MemorialGardenPlacement: row.BoolPtr("memorial_garden_placement"),
		}}, nil
	case model.ChapelBaptism:
		row, err := a.exec.FindOne(ctx, "crouse_chapel.baptism_details", cond)
		if err != nil || row == nil {
			return nil, err
		}
		return &model.ChapelDetail{Type: model.ChapelBaptism, Baptism: &model.BaptismDetail{
			ApplicationID: row.Int("application_id"),
			CandidateName: row.String("baptism_candidate_name"),
			ParentsNames:  row.StringPtr("parents_names"),
			Witnesses:     row.StringPtr("witnesses"),
			BaptismType:   row.StringPtr("baptism_type"),
		}}, nil
	case model.ChapelGeneralUse:
		row, err := a.exec.FindOne(ctx, "crouse_chapel.general_use_details", cond)
		if err != nil || row == nil {
			return nil, err
		}
		return &model.ChapelDetail{Type: model.ChapelGeneralUse, GeneralUse: &model.GeneralUseDetail{
			ApplicationID:      row.Int("application_id"),
			EventType:          row.String("event_type"),
			OrganizationName:   row.StringPtr("organization_name"),
			EventDescription:   row.StringPtr("event_description"),
			ExpectedAttendance: row.IntPtr("expected_attendance"),
		}}, nil
	}
	return nil, nil
}

// CreateChapelApplication inserts the parent application row. Type-specific
// detail rows are the caller's responsibility. During a manager-orchestrated
// write this runs on the manager's transaction; use CreateApplicationTx for
// a standalone transactional create.
func (a *Adapter) CreateChapelApplication(ctx context.Context, in model.ChapelApplicationInput) (*model.ChapelApplication, error) {
	status := in.Status
	if status == "" {
		status = "pending"
	}
	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = "pending"
	}
	submission := in.SubmissionDate
	if submission == nil {
		now := time.Now()
		submission = &now
	}
	rows, err := a.exec.Query(ctx, `
        INSERT INTO crouse_chapel.service_applications (
            application_type, service_date, service_time,
            rehearsal_date, rehearsal_time,
            member_name, member_relationship,
            contact_name, contact_address, contact_phone, contact_email,
            status, payment_status, submission_date,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
        RETURNING *
    `,
		in.ApplicationType,
		in.ServiceDate,
		in.ServiceTime,
		in.RehearsalDate,
		in.RehearsalTime,
		in.MemberName,
		in.MemberRelationship,
		in.ContactName,
		in.ContactAddress,
		in.ContactPhone,
		in.ContactEmail,
		status,
		paymentStatus,
		submission,
	)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(scanned) == 0 {
		return nil, sql.ErrNoRows
	}
	return ApplicationFromRow(scanned[0]), nil
}

// CreateApplicationTx runs CreateChapelApplication inside its own
// transaction, for callers outside a manager-orchestrated write.
func CreateApplicationTx(ctx context.Context, conn *sql.DB, log zerolog.Logger, in model.ChapelApplicationInput) (*model.ChapelApplication, error) {
	var out *model.ChapelApplication
	err := db.WithinTx(ctx, conn, log, func(tx *db.Executor) error {
		app, err := New(tx).CreateChapelApplication(ctx, in)
		if err != nil {
			return err
		}
		out = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDetail inserts the type-specific detail row for an application.
// A nil detail or an empty variant is a no-op; the parent application is
// valid without one.
func (a *Adapter) CreateDetail(ctx context.Context, applicationID int, d *model.ChapelDetail) error {
	if d == nil {
		return nil
	}
	switch {
	case d.Wedding != nil && d.Wedding.CoupleNames != "":
		_, err := a.exec.Insert(ctx, "crouse_chapel.wedding_details", db.Row{
			"application_id":     applicationID,
			"couple_names":       d.Wedding.CoupleNames,
			"guest_count":        d.Wedding.GuestCount,
			"bride_arrival_time": d.Wedding.BrideArrivalTime,
			"wedding_fee":        d.Wedding.WeddingFee,
			"dressing_at_chapel": false,
		})
		return err
	case d.Memorial != nil && d.Memorial.DeceasedName != "":
		placement := false
		if d.Memorial.MemorialGardenPlacement != nil {
			placement = *d.Memorial.MemorialGardenPlacement
		}
		_, err := a.exec.Insert(ctx, "crouse_chapel.memorial_details", db.Row{
			"application_id":            applicationID,
			"deceased_name":             d.Memorial.DeceasedName,
			"memorial_garden_placement": placement,
		})
		return err
	case d.Baptism != nil && d.Baptism.CandidateName != "":
		baptismType := "infant"
		if d.Baptism.BaptismType != nil && *d.Baptism.BaptismType != "" {
			baptismType = *d.Baptism.BaptismType
		}
		_, err := a.exec.Insert(ctx, "crouse_chapel.baptism_details", db.Row{
			"application_id":         applicationID,
			"baptism_candidate_name": d.Baptism.CandidateName,
			"parents_names":          d.Baptism.ParentsNames,
			"witnesses":              d.Baptism.Witnesses,
			"baptism_type":           baptismType,
		})
		return err
	case d.GeneralUse != nil && d.GeneralUse.EventType != "":
		_, err := a.exec.Insert(ctx, "crouse_chapel.general_use_details", db.Row{
			"application_id":      applicationID,
			"event_type":          d.GeneralUse.EventType,
			"organization_name":   d.GeneralUse.OrganizationName,
			"event_description":   d.GeneralUse.EventDescription,
			"expected_attendance": d.GeneralUse.ExpectedAttendance,
		})
		return err
	}
	return nil
}

// SetNotionID records the mirrored workflow page on the legacy application.
func (a *Adapter) SetNotionID(ctx context.Context, applicationID int, notionID string) error {
	_, err := a.exec.Update(ctx, applicationsTable, db.Row{"id": applicationID}, db.Row{"notion_id": notionID})
	return err
}

// UpdateApplicationStatus moves an application through its review workflow.
func (a *Adapter) UpdateApplicationStatus(ctx context.Context, id int, status string) (*model.ChapelApplication, error) {
	row, err := a.exec.Update(ctx, applicationsTable, db.Row{"id": id}, db.Row{"status": status})
	if err != nil || row == nil {
		return nil, err
	}
	return ApplicationFromRow(row), nil
}

// CheckAvailability reports whether the chapel is free at the given date and
// time; pending and approved applications both occupy the slot.
func (a *Adapter) CheckAvailability(ctx context.Context, serviceDate time.Time, serviceTime string) (bool, error) {
	var occupied bool
	row := a.exec.QueryRow(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM crouse_chapel.service_applications
            WHERE service_date = $1 AND service_time = $2
              AND status IN ('pending', 'approved')
        )
    `, serviceDate, serviceTime)
	if err := row.Scan(&occupied); err != nil {
		return false, err
	}
	return !occupied, nil
}

// MemorialsNeedingSync returns memorials to mirror to the workflow tool.
// The legacy table carries no sync bookkeeping, so this is simply the
// oldest hundred records.
func (a *Adapter) MemorialsNeedingSync(ctx context.Context) ([]model.Memorial, error) {
	return a.ListMemorials(ctx, model.ListOptions{OrderBy: "created_at", Limit: 100})
}

// Counts returns legacy record volume per domain.
func (a *Adapter) Counts(ctx context.Context) (*model.LegacyCounts, error) {
	memorials, err := a.exec.Count(ctx, memorialsTable, nil)
	if err != nil {
		return nil, err
	}
	chapel, err := a.exec.Count(ctx, applicationsTable, nil)
	if err != nil {
		return nil, err
	}
	counts := &model.LegacyCounts{
		Memorials:          memorials,
		ChapelApplications: chapel,
		ChapelByType:       map[string]int{},
	}
	rows, err := a.exec.Query(ctx, `
        SELECT application_type, COUNT(*) AS count
        FROM crouse_chapel.service_applications
        GROUP BY application_type
    `)
	if err != nil {
		return nil, err
	}
	scanned, err := db.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range scanned {
		counts.ChapelByType[r.String("application_type")] = r.Int("count")
	}
	return counts, nil
}

// CheckIntegrity scans for structural problems inside the legacy schema:
// detail rows with no parent, and parents with no detail row for their
// declared type. Findings are reported, never auto-repaired.
func (a *Adapter) CheckIntegrity(ctx context.Context) ([]model.IntegrityIssue, error) {
	var issues []model.IntegrityIssue

	orphaned, err := a.exec.Query(ctx, `
        SELECT wd.id
        FROM crouse_chapel.wedding_details wd
        LEFT JOIN crouse_chapel.service_applications sa ON wd.application_id = sa.id
        WHERE sa.id IS NULL
    `)
	if err != nil {
		return nil, err
	}
	orphanedRows, err := db.ScanRows(orphaned)
	if err != nil {
		return nil, err
	}
	if len(orphanedRows) > 0 {
		issues = append(issues, model.IntegrityIssue{
			Type:  "orphaned_records",
			Table: "wedding_details",
			Count: len(orphanedRows),
		})
	}

	missing, err := a.exec.Query(ctx, `
        SELECT sa.id, sa.application_type
        FROM crouse_chapel.service_applications sa
        LEFT JOIN crouse_chapel.wedding_details wd ON sa.id = wd.application_id AND sa.application_type = 'wedding'
        LEFT JOIN crouse_chapel.memorial_details md ON sa.id = md.application_id AND sa.application_type = 'memorial'
        LEFT JOIN crouse_chapel.baptism_details bd ON sa.id = bd.application_id AND sa.application_type = 'baptism'
        LEFT JOIN crouse_chapel.general_use_details gd ON sa.id = gd.application_id AND sa.application_type = 'general_use'
        WHERE wd.id IS NULL AND md.id IS NULL AND bd.id IS NULL AND gd.id IS NULL
    `)
	if err != nil {
		return nil, err
	}
	missingRows, err := db.ScanRows(missing)
	if err != nil {
		return nil, err
	}
	if len(missingRows) > 0 {
		issues = append(issues, model.IntegrityIssue{
			Type:  "missing_details",
			Table: "service_applications",
			Count: len(missingRows),
		})
	}

	return issues, nil
}

// MemorialFromRow converts a scanned bayview.memorials row. Exported for
// cross-schema reads that query the legacy tables directly.
func MemorialFromRow(r db.Row) *model.Memorial {
	return &model.Memorial{
		ID:        r.Int("id"),
		FirstName: r.String("first_name"),
		LastName:  r.String("last_name"),
		BirthDate: r.TimePtr("birth_date"),
		DeathDate: r.TimePtr("death_date"),
		Message:   r.StringPtr("message"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
}

// ApplicationFromRow converts a scanned service_applications parent row
// without hydrating details.
func ApplicationFromRow(r db.Row) *model.ChapelApplication {
	return &model.ChapelApplication{
		ID:                 r.Int("id"),
		ApplicationType:    r.String("application_type"),
		ServiceDate:        r.Time("service_date"),
		ServiceTime:        r.String("service_time"),
		RehearsalDate:      r.TimePtr("rehearsal_date"),
		RehearsalTime:      r.StringPtr("rehearsal_time"),
		MemberName:         r.String("member_name"),
		MemberRelationship: r.String("member_relationship"),
		ContactName:        r.String("contact_name"),
		ContactAddress:     r.String("contact_address"),
		ContactPhone:       r.String("contact_phone"),
		ContactEmail:       r.String("contact_email"),
		Status:             r.String("status"),
		PaymentStatus:      r.String("payment_status"),
		SubmissionDate:     r.TimePtr("submission_date"),
		CreatedAt:          r.Time("created_at"),
		UpdatedAt:          r.Time("updated_at"),
	}
}
