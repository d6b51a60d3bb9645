package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	respond "github.com/bayviewassociation/memberdb/internal/api/respond"
	"github.com/bayviewassociation/memberdb/internal/model"
)

// MigrationHandler serves the operator migration endpoints.
type MigrationHandler struct {
	manager Manager
}

func NewMigrationHandler(manager Manager) *MigrationHandler {
	return &MigrationHandler{manager: manager}
}

// GetProgress handles GET /api/migration/progress.
func (h *MigrationHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.manager.MigrationProgress(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("migration progress failed")
		respond.WriteInternalError(w, "Failed to compute migration progress")
		return
	}
	respond.WriteJSON(w, http.StatusOK, progress)
}

// GetConsistency handles GET /api/migration/consistency.
func (h *MigrationHandler) GetConsistency(w http.ResponseWriter, r *http.Request) {
	issues, err := h.manager.ValidateConsistency(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("consistency validation failed")
		respond.WriteInternalError(w, "Failed to validate consistency")
		return
	}
	if issues == nil {
		issues = []model.ConsistencyIssue{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"issues":    issues,
		"checkedAt": time.Now().Format(time.RFC3339),
	})
}

// MigrateMemorial handles POST /api/migration/memorials/{id}.
func (h *MigrationHandler) MigrateMemorial(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respond.WriteBadRequest(w, "memorial id must be an integer")
		return
	}

	outcome, err := h.manager.MigrateMemorial(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "memorial not found")
			return
		}
		log.Error().Err(err).Int("memorialId", id).Msg("migration failed")
		respond.WriteInternalError(w, "Failed to migrate memorial")
		return
	}
	respond.WriteJSON(w, http.StatusOK, outcome)
}

// BatchMigrate handles POST /api/migration/batch?limit=.
func (h *MigrationHandler) BatchMigrate(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	result, err := h.manager.BatchMigrateMemorials(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("batch migration failed")
		respond.WriteInternalError(w, "Batch migration failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}
