package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	respond "github.com/bayviewassociation/memberdb/internal/api/respond"
	"github.com/bayviewassociation/memberdb/internal/model"
)

// serviceTypes maps the submission-form type names onto the storage values.
// Two form names collapse onto "memorial" and the hyphenated general-use
// variant is normalized.
var serviceTypes = map[string]string{
	"wedding":                  model.ChapelWedding,
	"memorial-funeral-service": model.ChapelMemorial,
	"memorial":                 model.ChapelMemorial,
	"funeral":                  model.ChapelFuneral,
	"baptism":                  model.ChapelBaptism,
	"general-use":              model.ChapelGeneralUse,
	"general_use":              model.ChapelGeneralUse,
}

// ChapelHandler handles chapel service applications.
type ChapelHandler struct {
	manager Manager
	mirror  WorkflowMirror
}

func NewChapelHandler(manager Manager, mirror WorkflowMirror) *ChapelHandler {
	return &ChapelHandler{manager: manager, mirror: mirror}
}

type chapelRequest struct {
	ApplicationType    string `json:"applicationType"`
	ServiceDate        string `json:"serviceDate"`
	ServiceTime        string `json:"serviceTime"`
	RehearsalDate      string `json:"rehearsalDate"`
	RehearsalTime      string `json:"rehearsalTime"`
	MemberName         string `json:"memberName"`
	MemberRelationship string `json:"memberRelationship"`
	ContactName        string `json:"contactName"`
	ContactAddress     string `json:"contactAddress"`
	ContactPhone       string `json:"contactPhone"`
	ContactEmail       string `json:"contactEmail"`

	CoupleNames      string   `json:"coupleNames"`
	GuestCount       *int     `json:"guestCount"`
	BrideArrivalTime string   `json:"brideArrivalTime"`
	WeddingFee       *float64 `json:"weddingFee"`

	DeceasedName            string `json:"deceasedName"`
	MemorialGardenPlacement *bool  `json:"memorialGardenPlacement"`

	BaptismCandidateName string `json:"baptismCandidateName"`
	ParentsNames         string `json:"parentsNames"`
	Witnesses            string `json:"witnesses"`
	BaptismType          string `json:"baptismType"`

	EventType          string `json:"eventType"`
	OrganizationName   string `json:"organizationName"`
	EventDescription   string `json:"eventDescription"`
	ExpectedAttendance *int   `json:"expectedAttendance"`
}

type chapelResponse struct {
	Success        bool     `json:"success"`
	ApplicationID  int      `json:"applicationId"`
	ModernID       *int     `json:"modernId,omitempty"`
	SubmissionDate string   `json:"submissionDate"`
	NotionID       string   `json:"notionId,omitempty"`
	NotionURL      string   `json:"notionUrl,omitempty"`
	Message        string   `json:"message"`
	SyncStatus     string   `json:"syncStatus"`
	Warnings       []string `json:"warnings,omitempty"`
	NextSteps      []string `json:"nextSteps"`
}

// SubmitService handles POST /api/chapel/submit-service.
func (h *ChapelHandler) SubmitService(w http.ResponseWriter, r *http.Request) {
	var req chapelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.ApplicationType == "" || req.ServiceDate == "" || req.ServiceTime == "" ||
		req.ContactName == "" || req.MemberName == "" {
		respond.WriteBadRequest(w, "Application type, service date, service time, contact name, and member name are required")
		return
	}
	normalized, ok := serviceTypes[req.ApplicationType]
	if !ok {
		respond.WriteBadRequest(w, "Invalid application type")
		return
	}

	serviceDate, err := parseDate(req.ServiceDate)
	if err != nil {
		respond.WriteBadRequest(w, "invalid serviceDate")
		return
	}
	rehearsalDate, err := parseDate(req.RehearsalDate)
	if err != nil {
		respond.WriteBadRequest(w, "invalid rehearsalDate")
		return
	}

	now := time.Now()
	in := model.ChapelApplicationInput{
		ApplicationType:    normalized,
		ServiceDate:        *serviceDate,
		ServiceTime:        req.ServiceTime,
		RehearsalDate:      rehearsalDate,
		RehearsalTime:      optional(req.RehearsalTime),
		MemberName:         req.MemberName,
		MemberRelationship: req.MemberRelationship,
		ContactName:        req.ContactName,
		ContactAddress:     req.ContactAddress,
		ContactPhone:       req.ContactPhone,
		ContactEmail:       req.ContactEmail,
		Status:             "pending",
		PaymentStatus:      "pending",
		SubmissionDate:     &now,
	}

	result, err := h.manager.CreateChapelApplication(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Msg("chapel submission failed")
		respond.WriteInternalError(w, "Failed to submit chapel service application")
		return
	}

	resp := chapelResponse{
		Success:        true,
		ApplicationID:  result.Legacy.ID,
		SubmissionDate: now.Format(time.RFC3339),
		Message:        "Chapel service application submitted successfully",
		SyncStatus:     "legacy_only",
		NextSteps: []string{
			"Your application will be reviewed by the Director of Worship",
			"You will be contacted within 2-3 business days",
			"Full payment is required to secure your date",
			"Clergy must be approved before the service",
		},
	}
	if result.Modern != nil {
		resp.ModernID = &result.Modern.ID
		resp.SyncStatus = "complete"
	}
	for _, we := range result.Errors {
		resp.Warnings = append(resp.Warnings, we.System+": "+we.Message)
	}

	detail := req.detail(normalized)
	if detail != nil {
		if err := h.manager.CreateChapelDetail(r.Context(), result.Legacy.ID, detail); err != nil {
			log.Warn().Err(err).Int("applicationId", result.Legacy.ID).Msg("detail row creation failed")
			resp.Warnings = append(resp.Warnings, "details: "+err.Error())
		}
	}

	mirror := h.mirror.ChapelMirror(r.Context(), in, detail, req.ApplicationType, result)
	if mirror.Created {
		resp.NotionID = mirror.PageID
		resp.NotionURL = mirror.URL
		if err := h.manager.RecordChapelNotionID(r.Context(), result.Legacy.ID, mirror.PageID); err != nil {
			log.Warn().Err(err).Msg("failed to record notion page id")
		}
	} else if mirror.Err != "" {
		resp.Warnings = append(resp.Warnings, mirror.Err)
	}

	respond.WriteJSON(w, http.StatusCreated, resp)
}

// detail builds the type-specific detail variant from the request, nil when
// the request carries no detail fields for the normalized type.
func (r *chapelRequest) detail(normalized string) *model.ChapelDetail {
	switch normalized {
	case model.ChapelWedding:
		if r.CoupleNames == "" {
			return nil
		}
		return &model.ChapelDetail{Type: model.ChapelWedding, Wedding: &model.WeddingDetail{
			CoupleNames:      r.CoupleNames,
			GuestCount:       r.GuestCount,
			BrideArrivalTime: optional(r.BrideArrivalTime),
			WeddingFee:       r.WeddingFee,
		}}
	case model.ChapelMemorial, model.ChapelFuneral:
		if r.DeceasedName == "" {
			return nil
		}
		return &model.ChapelDetail{Type: model.ChapelMemorial, Memorial: &model.MemorialDetail{
			DeceasedName:            r.DeceasedName,
			MemorialGardenPlacement: r.MemorialGardenPlacement,
		}}
	case model.ChapelBaptism:
		if r.BaptismCandidateName == "" {
			return nil
		}
		return &model.ChapelDetail{Type: model.ChapelBaptism, Baptism: &model.BaptismDetail{
			CandidateName: r.BaptismCandidateName,
			ParentsNames:  optional(r.ParentsNames),
			Witnesses:     optional(r.Witnesses),
			BaptismType:   optional(r.BaptismType),
		}}
	case model.ChapelGeneralUse:
		if r.EventType == "" {
			return nil
		}
		return &model.ChapelDetail{Type: model.ChapelGeneralUse, GeneralUse: &model.GeneralUseDetail{
			EventType:          r.EventType,
			OrganizationName:   optional(r.OrganizationName),
			EventDescription:   optional(r.EventDescription),
			ExpectedAttendance: r.ExpectedAttendance,
		}}
	}
	return nil
}

// UpdateApplication handles PUT /api/chapel/applications/{id}. Only the
// review status is writable over the API; approval bookkeeping stays with
// the office tooling.
func (h *ChapelHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respond.WriteBadRequest(w, "application id must be an integer")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.Status == "" {
		respond.WriteBadRequest(w, "status is required")
		return
	}

	app, err := h.manager.UpdateChapelApplicationStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "application not found")
			return
		}
		log.Error().Err(err).Int("applicationId", id).Msg("application update failed")
		respond.WriteInternalError(w, "Failed to update application")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Application updated successfully",
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

// CheckAvailability handles GET /api/chapel/availability?date=&time=.
func (h *ChapelHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	dateParam := r.URL.Query().Get("date")
	timeParam := r.URL.Query().Get("time")
	if dateParam == "" || timeParam == "" {
		respond.WriteBadRequest(w, "date and time query parameters are required")
		return
	}
	date, err := parseDate(dateParam)
	if err != nil {
		respond.WriteBadRequest(w, "invalid date")
		return
	}

	available, err := h.manager.CheckAvailability(r.Context(), *date, timeParam)
	if err != nil {
		log.Error().Err(err).Msg("availability check failed")
		respond.WriteInternalError(w, "Failed to check availability")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"date":      dateParam,
		"time":      timeParam,
		"available": available,
	})
}
