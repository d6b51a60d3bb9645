package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	respond "github.com/bayviewassociation/memberdb/internal/api/respond"
	"github.com/bayviewassociation/memberdb/internal/dualwrite"
	"github.com/bayviewassociation/memberdb/internal/model"
)

// MemorialHandler handles memorial garden submissions.
type MemorialHandler struct {
	manager Manager
	mirror  WorkflowMirror
}

func NewMemorialHandler(manager Manager, mirror WorkflowMirror) *MemorialHandler {
	return &MemorialHandler{manager: manager, mirror: mirror}
}

type memorialRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	BirthDate      string `json:"birthDate"`
	DeathDate      string `json:"deathDate"`
	Message        string `json:"message"`
	ContactName    string `json:"contactName"`
	ContactEmail   string `json:"contactEmail"`
	ContactPhone   string `json:"contactPhone"`
	ContactAddress string `json:"contactAddress"`
}

type memorialResponse struct {
	Success      bool     `json:"success"`
	SubmissionID string   `json:"submissionId"`
	LegacyID     int      `json:"legacyId"`
	ModernID     *int     `json:"modernId,omitempty"`
	NotionID     string   `json:"notionId,omitempty"`
	NotionURL    string   `json:"notionUrl,omitempty"`
	Message      string   `json:"message"`
	SyncStatus   string   `json:"syncStatus"`
	Warnings     []string `json:"warnings,omitempty"`
}

// SubmitGarden handles POST /api/memorial/submit-garden. A modern-phase or
// mirror failure degrades to a warning; the submission succeeds as long as
// the legacy write committed.
func (h *MemorialHandler) SubmitGarden(w http.ResponseWriter, r *http.Request) {
	var req memorialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		respond.WriteBadRequest(w, "First name and last name are required")
		return
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		respond.WriteBadRequest(w, "invalid birthDate")
		return
	}
	deathDate, err := parseDate(req.DeathDate)
	if err != nil {
		respond.WriteBadRequest(w, "invalid deathDate")
		return
	}

	sub := dualwrite.MemorialSubmission{
		MemorialInput: model.MemorialInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			BirthDate: birthDate,
			DeathDate: deathDate,
			Message:   optional(req.Message),
		},
		ContactName:    req.ContactName,
		ContactEmail:   optional(req.ContactEmail),
		ContactPhone:   optional(req.ContactPhone),
		ContactAddress: optional(req.ContactAddress),
	}

	result, err := h.manager.CreateMemorial(r.Context(), sub)
	if err != nil {
		log.Error().Err(err).Msg("memorial submission failed")
		respond.WriteInternalError(w, "Failed to submit memorial garden application")
		return
	}

	resp := memorialResponse{
		Success:      true,
		SubmissionID: fmt.Sprintf("MEM-%d", result.Legacy.ID),
		LegacyID:     result.Legacy.ID,
		Message:      "Memorial garden application submitted successfully",
		SyncStatus:   "legacy_only",
	}
	if result.Modern != nil {
		resp.ModernID = &result.Modern.ID
		resp.SyncStatus = "complete"
	}
	for _, we := range result.Errors {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: %s", we.System, we.Message))
	}

	mirror := h.mirror.MemorialMirror(r.Context(), sub, result)
	if mirror.Created {
		resp.NotionID = mirror.PageID
		resp.NotionURL = mirror.URL
	} else if mirror.Err != "" {
		resp.Warnings = append(resp.Warnings, mirror.Err)
	}

	respond.WriteJSON(w, http.StatusCreated, resp)
}

// parseDate accepts date-only or RFC3339 values; empty means absent.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
