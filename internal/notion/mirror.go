package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bayviewassociation/memberdb/internal/dualwrite"
	"github.com/bayviewassociation/memberdb/internal/model"
)

// MirrorResult reports a mirror attempt as a value, never an error: the
// signature itself guarantees a Notion outage cannot abort a submission.
type MirrorResult struct {
	Created bool   `json:"created"`
	PageID  string `json:"page_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Mirror copies committed submissions onto the staff workflow boards. A
// Mirror without an API key or a board ID is disabled and returns zero
// results.
type Mirror struct {
	client     *Client
	memorialDB string
	chapelDB   string
	log        zerolog.Logger
}

// NewMirror builds a mirror. An empty apiKey disables it entirely.
func NewMirror(apiKey, memorialDB, chapelDB string, log zerolog.Logger) *Mirror {
	m := &Mirror{memorialDB: memorialDB, chapelDB: chapelDB, log: log}
	if apiKey != "" {
		m.client = NewClient(apiKey)
	}
	return m
}

// MemorialMirror posts a committed memorial submission to the memorial
// board.
func (m *Mirror) MemorialMirror(ctx context.Context, sub dualwrite.MemorialSubmission, res *model.MemorialWriteResult) MirrorResult {
	if m.client == nil || m.memorialDB == "" || res.Legacy == nil {
		return MirrorResult{}
	}

	props := map[string]Property{
		"Name":            Title(sub.FirstName + " " + sub.LastName),
		"First Name":      RichText(sub.FirstName),
		"Last Name":       RichText(sub.LastName),
		"Legacy ID":       Number(float64(res.Legacy.ID)),
		"Submission Date": Date(time.Now()),
	}
	if sub.BirthDate != nil {
		props["Birth Date"] = Date(*sub.BirthDate)
	}
	if sub.DeathDate != nil {
		props["Death Date"] = Date(*sub.DeathDate)
	}
	if sub.Message != nil && *sub.Message != "" {
		props["Message"] = RichText(*sub.Message)
	}
	if sub.ContactName != "" {
		props["Contact Name"] = RichText(sub.ContactName)
	}
	if sub.ContactEmail != nil && *sub.ContactEmail != "" {
		props["Contact Email"] = Email(*sub.ContactEmail)
	}
	if sub.ContactPhone != nil && *sub.ContactPhone != "" {
		props["Contact Phone"] = PhoneNumber(*sub.ContactPhone)
	}
	if res.Modern != nil {
		props["Modern ID"] = Number(float64(res.Modern.ID))
	}

	return m.create(ctx, m.memorialDB, props)
}

// ChapelMirror posts a committed chapel application to the chapel board.
// serviceType is the caller's original type string so the board shows what
// the applicant picked, not the normalized storage value.
func (m *Mirror) ChapelMirror(ctx context.Context, in model.ChapelApplicationInput, detail *model.ChapelDetail, serviceType string, res *model.ChapelWriteResult) MirrorResult {
	if m.client == nil || m.chapelDB == "" || res.Legacy == nil {
		return MirrorResult{}
	}

	props := map[string]Property{
		"Service Type":    Select(serviceType),
		"Contact Name":    Title(in.ContactName),
		"Service Date":    Date(in.ServiceDate),
		"Service Time":    RichText(in.ServiceTime),
		"Member Name":     RichText(in.MemberName),
		"Status":          Select("Pending Review"),
		"Legacy ID":       Number(float64(res.Legacy.ID)),
		"Submission Date": Date(time.Now()),
	}
	if in.ContactEmail != "" {
		props["Contact Email"] = Email(in.ContactEmail)
	}
	if in.ContactPhone != "" {
		props["Contact Phone"] = PhoneNumber(in.ContactPhone)
	}
	if res.Modern != nil {
		props["Modern ID"] = Number(float64(res.Modern.ID))
	}
	if detail != nil {
		switch {
		case detail.Wedding != nil && detail.Wedding.CoupleNames != "":
			props["Couple Names"] = RichText(detail.Wedding.CoupleNames)
		case detail.Memorial != nil && detail.Memorial.DeceasedName != "":
			props["Deceased Name"] = RichText(detail.Memorial.DeceasedName)
		case detail.Baptism != nil && detail.Baptism.CandidateName != "":
			props["Baptism Candidate"] = RichText(detail.Baptism.CandidateName)
		case detail.GeneralUse != nil && detail.GeneralUse.EventType != "":
			props["Event Type"] = RichText(detail.GeneralUse.EventType)
		}
	}

	return m.create(ctx, m.chapelDB, props)
}

func (m *Mirror) create(ctx context.Context, databaseID string, props map[string]Property) MirrorResult {
	page, err := m.client.CreatePage(ctx, databaseID, props)
	if err != nil {
		m.log.Warn().Err(err).Str("databaseId", databaseID).Msg("notion mirror failed")
		return MirrorResult{Err: fmt.Sprintf("notion mirror failed: %v", err)}
	}
	m.log.Info().Str("pageId", page.ID).Msg("notion page created")
	return MirrorResult{Created: true, PageID: page.ID, URL: page.URL}
}
